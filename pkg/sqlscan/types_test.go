package sqlscan_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

func TestScanConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		config    sqlscan.ScanConfig
		wantError bool
	}{
		{"valid", sqlscan.ScanConfig{SourcePath: "./src", Workers: 4, CacheSize: 16}, false},
		{"zero workers means default", sqlscan.ScanConfig{SourcePath: "./src"}, false},
		{"missing source path", sqlscan.ScanConfig{Workers: 1}, true},
		{"blank source path", sqlscan.ScanConfig{SourcePath: "  "}, true},
		{"negative workers", sqlscan.ScanConfig{SourcePath: "./src", Workers: -1}, true},
		{"negative cache", sqlscan.ScanConfig{SourcePath: "./src", CacheSize: -5}, true},
		{"negative timeout", sqlscan.ScanConfig{SourcePath: "./src", Timeout: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, sqlscan.ErrInvalidConfig))
		})
	}
}

func TestScanConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := sqlscan.ScanConfig{Workers: -1, CacheSize: -1}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SourcePath is required")
	assert.Contains(t, err.Error(), "workers cannot be negative")
	assert.Contains(t, err.Error(), "cache size cannot be negative")
}

func TestStoreConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  sqlscan.StoreConfig
		wantErr error
	}{
		{"sqlite", sqlscan.StoreConfig{DSN: "sqlite://results.db"}, nil},
		{"missing dsn", sqlscan.StoreConfig{}, sqlscan.ErrInvalidConfig},
		{"aws without region", sqlscan.StoreConfig{DSN: "postgres://h/db", AuthMethod: sqlscan.AuthMethodAWSIAM}, sqlscan.ErrInvalidConfig},
		{"aws with region", sqlscan.StoreConfig{DSN: "postgres://h/db", AuthMethod: sqlscan.AuthMethodAWSIAM, AWSRegion: "eu-west-1"}, nil},
		{"google without instance", sqlscan.StoreConfig{DSN: "postgres://h/db", AuthMethod: sqlscan.AuthMethodGoogleIAM}, sqlscan.ErrInvalidConfig},
		{"partial azure", sqlscan.StoreConfig{DSN: "postgres://h/db", AuthMethod: sqlscan.AuthMethodAzureEntraID, AzureTenantID: "t"}, sqlscan.ErrInvalidConfig},
		{"azure default chain", sqlscan.StoreConfig{DSN: "postgres://h/db", AuthMethod: sqlscan.AuthMethodAzureEntraID}, nil},
		{"invalid method", sqlscan.StoreConfig{DSN: "postgres://h/db", AuthMethod: sqlscan.AuthMethod(42)}, sqlscan.ErrUnsupportedAuthMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseAuthMethod(t *testing.T) {
	tests := []struct {
		in   string
		want sqlscan.AuthMethod
	}{
		{"", sqlscan.AuthMethodStandard},
		{"standard", sqlscan.AuthMethodStandard},
		{"AWS-IAM", sqlscan.AuthMethodAWSIAM},
		{"google-cloudsql", sqlscan.AuthMethodGoogleIAM},
		{"azure", sqlscan.AuthMethodAzureEntraID},
	}
	for _, tt := range tests {
		got, err := sqlscan.ParseAuthMethod(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := sqlscan.ParseAuthMethod("kerberos")
	assert.ErrorIs(t, err, sqlscan.ErrUnsupportedAuthMethod)
}

func TestCandidateJSONUsesNames(t *testing.T) {
	c := sqlscan.Candidate{
		Text:        "SELECT 1",
		StartLine:   3,
		EndLine:     4,
		Origin:      sqlscan.OriginBuilderAppend,
		Disposition: sqlscan.DispositionAssigned,
	}

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"origin":"BuilderAppend"`)
	assert.Contains(t, string(data), `"disposition":"Assigned"`)

	var back sqlscan.Candidate
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, c.Origin, back.Origin)
	assert.Equal(t, c.Disposition, back.Disposition)
}

func TestOriginUnmarshalRejectsUnknown(t *testing.T) {
	var o sqlscan.Origin
	assert.Error(t, o.UnmarshalText([]byte("Regex")))
	assert.Equal(t, "Unknown(9)", sqlscan.Origin(9).String())
}

func TestCandidateTouches(t *testing.T) {
	base := sqlscan.Candidate{StartLine: 5, EndLine: 5}
	assert.True(t, base.Touches(sqlscan.Candidate{StartLine: 5, EndLine: 7}))
	assert.True(t, base.Touches(sqlscan.Candidate{StartLine: 6, EndLine: 6}))
	assert.False(t, base.Touches(sqlscan.Candidate{StartLine: 7, EndLine: 7}))
}

func TestScanReport_HasFindings(t *testing.T) {
	r := &sqlscan.ScanReport{Files: []sqlscan.FileResult{{Path: "A.java"}}}
	assert.False(t, r.HasFindings())

	r.Files = append(r.Files, sqlscan.FileResult{Path: "B.java", Candidates: []sqlscan.Candidate{{Text: "SELECT 1"}}})
	assert.True(t, r.HasFindings())
}
