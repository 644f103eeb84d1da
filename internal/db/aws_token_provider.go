package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"
)

// rdsTokenLifetime is fixed by RDS; a signed token cannot be requested for longer.
const rdsTokenLifetime = 15 * time.Minute

// AWSIAMTokenProvider signs RDS IAM authentication tokens for the run store.
//
// Credentials are resolved once through the default AWS chain (environment
// variables, shared config and credentials files, SSO, instance or task
// roles) and reused for every connection the pool opens. The SDK credentials
// cache refreshes expiring role credentials on its own, so only the signing
// step runs per connection. Signing happens locally and needs no network
// round trip.
type AWSIAMTokenProvider struct {
	endpoint string // host:port
	region   string
	username string

	// loadCredentials is replaced in tests.
	loadCredentials func(ctx context.Context, region string) (aws.CredentialsProvider, error)

	mu    sync.Mutex
	creds aws.CredentialsProvider
}

// NewAWSIAMTokenProvider creates a token provider for an RDS or Aurora
// PostgreSQL endpoint.
//
// endpoint is the instance address in host:port form, as taken from the store
// DSN (e.g. "results.cluster-abc.eu-west-1.rds.amazonaws.com:5432").
// region comes from store.aws_region in sqlscan.yaml.
// username is the DSN user, which must have been granted rds_iam.
func NewAWSIAMTokenProvider(endpoint, region, username string) (*AWSIAMTokenProvider, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("AWS IAM auth requires endpoint (host:port)")
	}
	if region == "" {
		return nil, fmt.Errorf("AWS IAM auth requires region (set store.aws_region in sqlscan.yaml)")
	}
	if username == "" {
		return nil, fmt.Errorf("AWS IAM auth requires the database user in the DSN")
	}

	return &AWSIAMTokenProvider{
		endpoint:        endpoint,
		region:          region,
		username:        username,
		loadCredentials: loadDefaultCredentials,
	}, nil
}

func loadDefaultCredentials(ctx context.Context, region string) (aws.CredentialsProvider, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return cfg.Credentials, nil
}

// credentials returns the cached credentials provider, resolving it on first
// use. A failed resolution is not cached, so the next connection retries.
func (p *AWSIAMTokenProvider) credentials(ctx context.Context) (aws.CredentialsProvider, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.creds != nil {
		return p.creds, nil
	}
	creds, err := p.loadCredentials(ctx, p.region)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if creds == nil {
		return nil, fmt.Errorf("failed to load AWS config: no credentials found in the default chain")
	}
	p.creds = creds
	return creds, nil
}

// GetToken signs a fresh token for the configured endpoint and user.
// The token replaces the password for one connection attempt and is valid
// for 15 minutes.
func (p *AWSIAMTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	creds, err := p.credentials(ctx)
	if err != nil {
		return "", time.Time{}, err
	}

	token, err := auth.BuildAuthToken(ctx, p.endpoint, p.region, p.username, creds)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to build RDS auth token: %w", err)
	}
	return token, time.Now().Add(rdsTokenLifetime), nil
}

// String identifies the endpoint and user for logs. No credentials are included.
func (p *AWSIAMTokenProvider) String() string {
	return fmt.Sprintf("AWSIAMTokenProvider(endpoint=%s, region=%s, user=%s)", p.endpoint, p.region, p.username)
}
