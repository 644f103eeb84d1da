package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

func sampleReport() *sqlscan.ScanReport {
	long := "SELECT id, name, email, created_at, updated_at, status, role FROM users WHERE status = 'active' ORDER BY created_at"
	return &sqlscan.ScanReport{
		RunID:      uuid.MustParse("3f2c8f0e-6a51-4a51-9d8e-2b0f4c1d7e11"),
		SourcePath: "/repo",
		StartedAt:  time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
		Files: []sqlscan.FileResult{{
			Path:         "/repo/src/UserDao.java",
			RelativePath: "src/UserDao.java",
			Candidates: []sqlscan.Candidate{
				{Text: "SELECT *\nFROM users", StartLine: 10, EndLine: 11, Origin: sqlscan.OriginLiteral, Disposition: sqlscan.DispositionAssigned},
				{Text: long, StartLine: 20, EndLine: 20, Origin: sqlscan.OriginBuilderAppend, Disposition: sqlscan.DispositionAssigned},
				{Text: "UPDATE t SET a = 'x|y'", StartLine: 30, EndLine: 30, Origin: sqlscan.OriginMethodArgument, Disposition: sqlscan.DispositionDetected},
			},
		}},
		Stats: sqlscan.ScanStats{FilesDiscovered: 1, FilesScanned: 1, Candidates: 3},
	}
}

func render(t *testing.T, format Format, r *sqlscan.ScanReport) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, format, r))
	return buf.String()
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"":         FormatTable,
		"TABLE":    FormatTable,
		"json":     FormatJSON,
		"yml":      FormatYAML,
		"csv":      FormatCSV,
		"md":       FormatMarkdown,
		"markdown": FormatMarkdown,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table, json, yaml, csv, markdown")
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "SELECT * FROM users", Preview("SELECT *\n   FROM users", 80))
	assert.Equal(t, "SELECT...", Preview("SELECT id FROM users", 9))
	assert.Equal(t, "SELECT id", Preview("SELECT id", 9))
}

func TestWrite_Table(t *testing.T) {
	out := render(t, FormatTable, sampleReport())

	assert.Contains(t, out, "src/UserDao.java")
	assert.Contains(t, out, "10-11")
	assert.Contains(t, out, "SELECT * FROM users")
	assert.Contains(t, out, "BuilderAppend")
	assert.Contains(t, out, "...")
	assert.NotContains(t, out, "ORDER BY created_at", "long statements are truncated")
	assert.Contains(t, out, "(3 statements in 1 files)")
}

func TestWrite_TableEmpty(t *testing.T) {
	out := render(t, FormatTable, &sqlscan.ScanReport{})
	assert.Equal(t, "No SQL found\n", out)
}

func TestWrite_Markdown(t *testing.T) {
	out := render(t, FormatMarkdown, sampleReport())

	assert.Contains(t, out, "File")
	assert.Contains(t, out, "|-")
	assert.Contains(t, out, "`SELECT * FROM users`")
	assert.Contains(t, out, `x\|y`)
	assert.Contains(t, out, "ORDER BY created_at", "markdown keeps full statements")
}

func TestWrite_JSON(t *testing.T) {
	out := render(t, FormatJSON, sampleReport())

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "3f2c8f0e-6a51-4a51-9d8e-2b0f4c1d7e11", decoded["runId"])

	files := decoded["files"].([]any)
	first := files[0].(map[string]any)
	assert.Equal(t, "/repo/src/UserDao.java", first["filePath"])
	cand := first["candidates"].([]any)[0].(map[string]any)
	assert.Equal(t, "Literal", cand["origin"])
	assert.Equal(t, "Assigned", cand["disposition"])
}

func TestWrite_YAML(t *testing.T) {
	out := render(t, FormatYAML, sampleReport())

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "3f2c8f0e-6a51-4a51-9d8e-2b0f4c1d7e11", decoded["runId"])
	assert.Contains(t, out, "origin: BuilderAppend")
}

func TestWrite_CSV(t *testing.T) {
	out := render(t, FormatCSV, sampleReport())

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"file", "start_line", "end_line", "origin", "disposition", "statement"}, records[0])
	assert.Equal(t, []string{"src/UserDao.java", "10", "11", "Literal", "Assigned", "SELECT *\nFROM users"}, records[1])
}
