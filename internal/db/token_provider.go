package db

import (
	"context"
	"time"
)

// TokenProvider supplies short-lived passwords for cloud-hosted PostgreSQL
// result stores. TokenConnector calls it from the pool's BeforeConnect hook,
// so every physical connection opened while saving a scan run gets a token
// that is still valid, even when a long scan outlives the first one.
//
// Implementations in this package: AWSIAMTokenProvider (RDS IAM),
// AzureServicePrincipalProvider and AzureDefaultCredentialProvider (Entra ID).
// Google Cloud SQL uses its own dialer instead, see GoogleCloudSQLConnector.
type TokenProvider interface {
	// GetToken returns a token to use as the connection password, and the
	// time it stops being accepted. It may be called concurrently by the pool.
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String describes the provider for verbose logs and error messages,
	// e.g. "AzureServicePrincipal(tenant=..., client=...)". It must never
	// include secrets or tokens.
	String() string
}

// AzurePostgreSQLScope is the Entra ID resource scope that Azure Database for
// PostgreSQL accepts tokens for.
const AzurePostgreSQLScope = "https://ossrdbms-aad.database.windows.net/.default"
