package sqlscan

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Origin records how the text of a candidate was assembled.
type Origin int

const (
	OriginLiteral        Origin = iota // a single string literal
	OriginConcatenation                // fragments joined with + or +=
	OriginBuilderAppend                // StringBuilder/StringBuffer accumulation
	OriginMethodArgument               // a literal passed straight into a call
)

var originNames = map[Origin]string{
	OriginLiteral:        "Literal",
	OriginConcatenation:  "Concatenation",
	OriginBuilderAppend:  "BuilderAppend",
	OriginMethodArgument: "MethodArgument",
}

// String returns a human-readable string representation of the Origin.
func (o Origin) String() string {
	if name, ok := originNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", int(o))
}

// MarshalText renders the origin by name for JSON and YAML reports.
func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText parses an origin name (case-insensitive).
func (o *Origin) UnmarshalText(text []byte) error {
	for value, name := range originNames {
		if strings.EqualFold(name, string(text)) {
			*o = value
			return nil
		}
	}
	return fmt.Errorf("unknown origin %q", text)
}

// Disposition records whether a candidate was found in place or through a variable.
type Disposition int

const (
	DispositionDetected Disposition = iota // literal or expression used in place
	DispositionAssigned                    // text accumulated in a tracked variable
)

// String returns a human-readable string representation of the Disposition.
func (d Disposition) String() string {
	switch d {
	case DispositionDetected:
		return "Detected"
	case DispositionAssigned:
		return "Assigned"
	default:
		return fmt.Sprintf("Unknown(%d)", int(d))
	}
}

// MarshalText renders the disposition by name for JSON and YAML reports.
func (d Disposition) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses a disposition name (case-insensitive).
func (d *Disposition) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "detected":
		*d = DispositionDetected
	case "assigned":
		*d = DispositionAssigned
	default:
		return fmt.Errorf("unknown disposition %q", text)
	}
	return nil
}

// Candidate is one extracted SQL statement, or several statements whose
// line ranges touched and were merged.
type Candidate struct {
	// Text is the reconstructed statement. Unknown values appear as ${name}.
	// Merged candidates join their statements with a boundary marker.
	Text string `json:"text" yaml:"text"`

	// StartLine and EndLine are 1-based and inclusive.
	StartLine int `json:"startLine" yaml:"startLine"`
	EndLine   int `json:"endLine" yaml:"endLine"`

	Origin      Origin      `json:"origin" yaml:"origin"`
	Disposition Disposition `json:"disposition" yaml:"disposition"`

	// Statements lists the constituent texts in range order (one entry unless merged).
	Statements []string `json:"statements" yaml:"statements"`
}

// Touches reports whether other starts within or directly after this candidate's range.
func (c Candidate) Touches(other Candidate) bool {
	return other.StartLine <= c.EndLine+1
}

// Paragraph is the source-level view of a candidate: the lines it spans and
// the statements found there.
type Paragraph struct {
	LineStart  int      `json:"lineStart" yaml:"lineStart"`
	LineEnd    int      `json:"lineEnd" yaml:"lineEnd"`
	Content    string   `json:"content" yaml:"content"`
	Statements []string `json:"sqlStatements" yaml:"sqlStatements"`
}

// FileResult is the extraction result for one source file.
type FileResult struct {
	// Path is the file identifier handed to the extractor.
	Path string `json:"filePath" yaml:"filePath"`

	// RelativePath is the path relative to the scan root (Unix separators).
	RelativePath string `json:"relativePath,omitempty" yaml:"relativePath,omitempty"`

	// Checksum is the SHA-256 of the raw file content.
	Checksum string `json:"checksum,omitempty" yaml:"checksum,omitempty"`

	Candidates []Candidate `json:"candidates" yaml:"candidates"`
	Paragraphs []Paragraph `json:"sqlParagraphs" yaml:"sqlParagraphs"`
}

// Diagnostic describes a file that could not be processed.
type Diagnostic struct {
	Path    string `json:"path" yaml:"path"`
	Message string `json:"message" yaml:"message"`
}

// ScanStats summarizes one scan run.
type ScanStats struct {
	FilesDiscovered int `json:"filesDiscovered" yaml:"filesDiscovered"`
	FilesScanned    int `json:"filesScanned" yaml:"filesScanned"`
	FilesSkipped    int `json:"filesSkipped" yaml:"filesSkipped"`
	CacheHits       int `json:"cacheHits" yaml:"cacheHits"`
	Candidates      int `json:"candidates" yaml:"candidates"`
}

// ScanReport is everything one scan run produced.
type ScanReport struct {
	RunID       uuid.UUID         `json:"runId" yaml:"runId"`
	SourcePath  string            `json:"sourcePath" yaml:"sourcePath"`
	StartedAt   time.Time         `json:"startedAt" yaml:"startedAt"`
	Labels      map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Duration    time.Duration     `json:"duration" yaml:"duration"`
	Files       []FileResult      `json:"files" yaml:"files"`
	Diagnostics []Diagnostic      `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Stats       ScanStats         `json:"stats" yaml:"stats"`
}

// HasFindings reports whether any file produced at least one candidate.
func (r *ScanReport) HasFindings() bool {
	for _, f := range r.Files {
		if len(f.Candidates) > 0 {
			return true
		}
	}
	return false
}

// ScanConfig contains all parameters needed for a scan run.
type ScanConfig struct {
	// SourcePath is the root directory to scan for Java files
	SourcePath string

	// Workers bounds the number of files processed concurrently (0 = number of CPUs)
	Workers int

	// Include and Exclude are slash-separated glob patterns relative to SourcePath.
	// "**" matches any number of directories.
	Include []string
	Exclude []string

	// IncludeEmpty keeps files without candidates in the report
	IncludeEmpty bool

	// CacheSize is the number of per-file results kept between scans (0 disables caching)
	CacheSize int

	// Timeout is the global timeout for the entire scan
	Timeout time.Duration

	// Labels are free-form key/value pairs copied into the report (team=payments)
	Labels map[string]string

	// Verbose enables detailed logging
	Verbose bool
}

// Validate checks if the ScanConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *ScanConfig) Validate() error {
	var errs []error

	if strings.TrimSpace(c.SourcePath) == "" {
		errs = append(errs, fmt.Errorf("SourcePath is required: %w", ErrInvalidConfig))
	}

	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers cannot be negative: %w", ErrInvalidConfig))
	}

	if c.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("cache size cannot be negative: %w", ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// AuthMethod represents the type of authentication used by the PostgreSQL store.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password from the DSN
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// ParseAuthMethod maps the CLI/config spelling of an auth method.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "aws", "aws-iam", "awsiam":
		return AuthMethodAWSIAM, nil
	case "google", "google-iam", "google-cloudsql", "gcp":
		return AuthMethodGoogleIAM, nil
	case "azure", "azure-entra", "entra":
		return AuthMethodAzureEntraID, nil
	default:
		return AuthMethodStandard, fmt.Errorf("%q: %w", s, ErrUnsupportedAuthMethod)
	}
}

// StoreConfig describes where scan results are persisted.
type StoreConfig struct {
	// DSN is a postgres:// URL or a sqlite:// (or file:) location
	DSN string

	// AuthMethod applies to PostgreSQL DSNs only
	AuthMethod AuthMethod

	// AWSRegion is required for AWS IAM authentication
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name (project:region:instance)
	GoogleInstance string

	// Azure Entra ID parameters. If all three are provided, Service Principal
	// authentication is used; otherwise the DefaultAzureCredential chain.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// Validate checks the store configuration for the selected auth method.
func (c *StoreConfig) Validate() error {
	var errs []error

	if strings.TrimSpace(c.DSN) == "" {
		errs = append(errs, fmt.Errorf("store DSN is required: %w", ErrInvalidConfig))
	}

	if !c.AuthMethod.IsValid() {
		errs = append(errs, fmt.Errorf("auth method %s: %w", c.AuthMethod, ErrUnsupportedAuthMethod))
	}

	if c.AuthMethod == AuthMethodAWSIAM && c.AWSRegion == "" {
		errs = append(errs, fmt.Errorf("AWS region is required for AWS IAM authentication: %w", ErrInvalidConfig))
	}

	if c.AuthMethod == AuthMethodGoogleIAM && c.GoogleInstance == "" {
		errs = append(errs, fmt.Errorf("instance connection name is required for Google IAM authentication: %w", ErrInvalidConfig))
	}

	azureSet := 0
	for _, v := range []string{c.AzureTenantID, c.AzureClientID, c.AzureClientSecret} {
		if v != "" {
			azureSet++
		}
	}
	if azureSet != 0 && azureSet != 3 {
		errs = append(errs, fmt.Errorf("azure tenant, client id and secret must be set together: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}
