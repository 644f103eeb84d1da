package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/sqlscan/internal/heuristic"
	"github.com/vvka-141/sqlscan/internal/params"
	"github.com/vvka-141/sqlscan/internal/rules"
	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = sqlscan.ErrConfigNotFound

type StoreConfig struct {
	DSN            string `yaml:"dsn,omitempty"`
	AuthMethod     string `yaml:"auth_method,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`

	// Secrets are read from the environment only.
	AzureClientSecret string `yaml:"-"`
}

type UploadConfig struct {
	Endpoint string `yaml:"endpoint,omitempty"`
	Bucket   string `yaml:"bucket,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
	Region   string `yaml:"region,omitempty"`
	Insecure bool   `yaml:"insecure,omitempty"`

	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

type ProjectConfig struct {
	Include      []string          `yaml:"include,omitempty"`
	Exclude      []string          `yaml:"exclude,omitempty"`
	Workers      int               `yaml:"workers,omitempty"`
	CacheSize    *int              `yaml:"cache_size,omitempty"`
	Timeout      string            `yaml:"timeout,omitempty"`
	IncludeEmpty bool              `yaml:"include_empty,omitempty"`
	Keywords     []string          `yaml:"keywords,omitempty"`
	Sinks        []string          `yaml:"sinks,omitempty"`
	PlainTypes   []string          `yaml:"plain_types,omitempty"`
	BuilderTypes []string          `yaml:"builder_types,omitempty"`
	Labels       map[string]string `yaml:"labels,omitempty"`
	Store        StoreConfig       `yaml:"store,omitempty"`
	Upload       UploadConfig      `yaml:"upload,omitempty"`
}

const ConfigFileName = sqlscan.DefaultConfigFile

// Environment variables that override file values.
const (
	EnvDatabaseURL       = "SQLSCAN_DATABASE_URL"
	EnvStoreAuth         = "SQLSCAN_STORE_AUTH"
	EnvAzureClientSecret = "SQLSCAN_AZURE_CLIENT_SECRET"
	EnvS3Endpoint        = "SQLSCAN_S3_ENDPOINT"
	EnvS3Bucket          = "SQLSCAN_S3_BUCKET"
	EnvS3Prefix          = "SQLSCAN_S3_PREFIX"
	EnvS3Region          = "SQLSCAN_S3_REGION"
	EnvS3Insecure        = "SQLSCAN_S3_INSECURE"
	EnvS3AccessKey       = "SQLSCAN_S3_ACCESS_KEY"
	EnvS3SecretKey       = "SQLSCAN_S3_SECRET_KEY"
)

// Load reads sqlscan.yaml from sourcePath.
func Load(sourcePath string) (*ProjectConfig, error) {
	return LoadFile(filepath.Join(sourcePath, ConfigFileName))
}

// LoadFile reads a config file. Unknown keys are rejected so typos in rule
// or keyword lists do not silently fall back to defaults.
func LoadFile(configPath string) (*ProjectConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", configPath, ErrConfigNotFound)
		}
		return nil, err
	}

	var cfg ProjectConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %v: %w", configPath, err, sqlscan.ErrInvalidConfig)
	}
	return &cfg, nil
}

// ApplyEnv overrides store and upload settings from the environment.
// lookup is usually os.LookupEnv.
func (c *ProjectConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set(&c.Store.DSN, EnvDatabaseURL)
	set(&c.Store.AuthMethod, EnvStoreAuth)
	set(&c.Store.AzureClientSecret, EnvAzureClientSecret)
	set(&c.Upload.Endpoint, EnvS3Endpoint)
	set(&c.Upload.Bucket, EnvS3Bucket)
	set(&c.Upload.Prefix, EnvS3Prefix)
	set(&c.Upload.Region, EnvS3Region)
	set(&c.Upload.AccessKey, EnvS3AccessKey)
	set(&c.Upload.SecretKey, EnvS3SecretKey)

	if v, ok := lookup(EnvS3Insecure); ok && v != "" {
		insecure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %v: %w", EnvS3Insecure, v, err, sqlscan.ErrInvalidConfig)
		}
		c.Upload.Insecure = insecure
	}
	return nil
}

// Validate checks every section and reports all problems at once.
func (c *ProjectConfig) Validate() error {
	var errs []error

	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers cannot be negative: %w", sqlscan.ErrInvalidConfig))
	}
	if c.CacheSize != nil && *c.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("cache_size cannot be negative: %w", sqlscan.ErrInvalidConfig))
	}
	if _, err := c.ScanTimeout(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.RuleTable(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Classifier(); err != nil {
		errs = append(errs, err)
	}
	for key := range c.Labels {
		if err := params.ValidateKey(key); err != nil {
			errs = append(errs, fmt.Errorf("labels: %v: %w", err, sqlscan.ErrInvalidConfig))
		}
	}
	if _, err := sqlscan.ParseAuthMethod(c.Store.AuthMethod); err != nil {
		errs = append(errs, fmt.Errorf("store.auth_method: %w", err))
	}

	return errors.Join(errs...)
}

// ScanTimeout parses the timeout field; zero means unset.
func (c *ProjectConfig) ScanTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout in %s: %v: %w", ConfigFileName, err, sqlscan.ErrInvalidConfig)
	}
	if d < 0 {
		return 0, fmt.Errorf("timeout cannot be negative: %w", sqlscan.ErrInvalidConfig)
	}
	return d, nil
}

// RuleTable builds the effective classification table. overrides (from
// --rule) take precedence over the file's sinks, which take precedence over
// the built-in rules.
func (c *ProjectConfig) RuleTable(overrides ...string) (*rules.Table, error) {
	specs := append(append([]string{}, overrides...), c.Sinks...)
	extra := make([]rules.Rule, 0, len(specs))
	for _, s := range specs {
		r, err := rules.ParseRule(s)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, sqlscan.ErrInvalidConfig)
		}
		extra = append(extra, r)
	}

	table, err := rules.Default().With(extra...)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, sqlscan.ErrInvalidConfig)
	}
	return table, nil
}

// Classifier builds the keyword classifier. A keywords list in the file
// replaces the defaults; extra keywords (from --keyword) are added on top.
func (c *ProjectConfig) Classifier(extra ...string) (*heuristic.Classifier, error) {
	keywords := heuristic.DefaultKeywords()
	if len(c.Keywords) > 0 {
		keywords = append([]string{}, c.Keywords...)
	}
	keywords = append(keywords, extra...)

	cls, err := heuristic.NewClassifier(keywords)
	if err != nil {
		return nil, fmt.Errorf("keywords: %v: %w", err, sqlscan.ErrInvalidConfig)
	}
	return cls, nil
}

// StoreSettings converts the store section for the store package.
func (c *ProjectConfig) StoreSettings() (sqlscan.StoreConfig, error) {
	method, err := sqlscan.ParseAuthMethod(c.Store.AuthMethod)
	if err != nil {
		return sqlscan.StoreConfig{}, err
	}
	return sqlscan.StoreConfig{
		DSN:               c.Store.DSN,
		AuthMethod:        method,
		AWSRegion:         c.Store.AWSRegion,
		GoogleInstance:    c.Store.GoogleInstance,
		AzureTenantID:     c.Store.AzureTenantID,
		AzureClientID:     c.Store.AzureClientID,
		AzureClientSecret: c.Store.AzureClientSecret,
	}, nil
}
