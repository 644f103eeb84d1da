package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/sqlscan/internal/logging"
	"github.com/vvka-141/sqlscan/internal/retry"
	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

// TokenConnector authenticates with short-lived cloud tokens (AWS IAM, Azure
// Entra ID). A fresh token is requested for every new physical connection, so
// pools outlive individual tokens.
type TokenConnector struct {
	dsn           string
	tokenProvider TokenProvider
	providerName  string
	logger        sqlscan.Logger
	retryExecutor *retry.Executor
}

// NewTokenConnector creates a connector that uses tokenProvider for passwords.
// providerName appears in errors and warnings ("AWS IAM", "Azure").
func NewTokenConnector(dsn string, tokenProvider TokenProvider, providerName string, logger sqlscan.Logger) *TokenConnector {
	logger = logging.OrNull(logger)
	return &TokenConnector{
		dsn:           dsn,
		tokenProvider: tokenProvider,
		providerName:  providerName,
		logger:        logger,
		retryExecutor: newRetryExecutor(logger),
	}
}

func (c *TokenConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	poolConfig, err := c.poolConfig()
	if err != nil {
		return nil, err
	}
	return openPool(ctx, c.retryExecutor, poolConfig)
}

func (c *TokenConnector) poolConfig() (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(c.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %v: %w", err, sqlscan.ErrInvalidConfig)
	}
	configurePool(poolConfig, c.logger)

	poolConfig.BeforeConnect = func(ctx context.Context, cc *pgx.ConnConfig) error {
		token, expiresOn, err := c.tokenProvider.GetToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to acquire %s token: %w", c.providerName, err)
		}
		if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning {
			c.logger.Info("Warning: %s token expires in %v", c.providerName, remaining.Round(time.Second))
		}
		cc.Password = token
		return nil
	}
	return poolConfig, nil
}

func newAWSConnector(cfg sqlscan.StoreConfig, logger sqlscan.Logger) (sqlscan.Connector, error) {
	parsed, err := pgx.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %v: %w", err, sqlscan.ErrInvalidConfig)
	}

	endpoint := fmt.Sprintf("%s:%d", parsed.Host, parsed.Port)
	provider, err := NewAWSIAMTokenProvider(endpoint, cfg.AWSRegion, parsed.User)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS IAM token provider: %v: %w", err, sqlscan.ErrInvalidConfig)
	}
	return NewTokenConnector(cfg.DSN, provider, "AWS IAM", logger), nil
}

// newAzureConnector uses Service Principal auth when tenant, client and
// secret are all set, otherwise the DefaultAzureCredential chain.
func newAzureConnector(cfg sqlscan.StoreConfig, logger sqlscan.Logger) (sqlscan.Connector, error) {
	var provider TokenProvider
	var err error

	if cfg.AzureTenantID != "" && cfg.AzureClientID != "" && cfg.AzureClientSecret != "" {
		provider, err = NewAzureServicePrincipalProvider(cfg.AzureTenantID, cfg.AzureClientID, cfg.AzureClientSecret)
	} else {
		provider, err = NewAzureDefaultCredentialProvider()
	}
	if err != nil {
		return nil, err
	}
	return NewTokenConnector(cfg.DSN, provider, "Azure", logger), nil
}
