package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

type fakeScanner struct {
	mu      sync.Mutex
	configs []sqlscan.ScanConfig
	report  *sqlscan.ScanReport
	err     error
}

func (f *fakeScanner) Scan(_ context.Context, cfg sqlscan.ScanConfig) (*sqlscan.ScanReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs = append(f.configs, cfg)
	return f.report, f.err
}

func (f *fakeScanner) lastConfig(t *testing.T) sqlscan.ScanConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.configs)
	return f.configs[len(f.configs)-1]
}

type fakeStore struct {
	saved []uuid.UUID
	err   error
}

func (s *fakeStore) Save(_ context.Context, r *sqlscan.ScanReport) error {
	s.saved = append(s.saved, r.RunID)
	return s.err
}

func (s *fakeStore) Close() error { return nil }

func sampleReport() *sqlscan.ScanReport {
	return &sqlscan.ScanReport{
		RunID:      uuid.New(),
		SourcePath: "/src/app",
		Files: []sqlscan.FileResult{{
			Path:         "/src/app/UserDao.java",
			RelativePath: "UserDao.java",
			Paragraphs: []sqlscan.Paragraph{{
				LineStart:  3,
				LineEnd:    3,
				Content:    "SELECT * FROM users WHERE id = ?",
				Statements: []string{"SELECT * FROM users WHERE id = ?"},
			}},
		}},
	}
}

type analyzedFile struct {
	FilePath      string `json:"filePath"`
	SQLParagraphs []struct {
		LineStart     int      `json:"lineStart"`
		LineEnd       int      `json:"lineEnd"`
		Content       string   `json:"content"`
		SQLStatements []string `json:"sqlStatements"`
	} `json:"sqlParagraphs"`
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNew_PanicsWithoutScanner(t *testing.T) {
	assert.Panics(t, func() { New(Config{}) })
}

func TestHealth(t *testing.T) {
	srv := New(Config{Scanner: &fakeScanner{}})

	rec := do(t, srv.Handler(), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAnalyze_PostBody(t *testing.T) {
	scanner := &fakeScanner{report: sampleReport()}
	srv := New(Config{
		Scanner:  scanner,
		Template: sqlscan.ScanConfig{Workers: 2, IncludeEmpty: true},
	})

	rec := do(t, srv.Handler(), http.MethodPost, "/java-analyzer/analyze", `{"directoryPath":"/src/app"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var files []analyzedFile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &files))
	require.Len(t, files, 1)
	assert.Equal(t, "/src/app/UserDao.java", files[0].FilePath)
	require.Len(t, files[0].SQLParagraphs, 1)
	assert.Equal(t, 3, files[0].SQLParagraphs[0].LineStart)
	assert.Equal(t, []string{"SELECT * FROM users WHERE id = ?"}, files[0].SQLParagraphs[0].SQLStatements)

	cfg := scanner.lastConfig(t)
	assert.Equal(t, "/src/app", cfg.SourcePath)
	assert.Equal(t, 2, cfg.Workers)
	assert.False(t, cfg.IncludeEmpty)
}

func TestAnalyze_EscapedPath(t *testing.T) {
	scanner := &fakeScanner{report: sampleReport()}
	srv := New(Config{Scanner: scanner})

	rec := do(t, srv.Handler(), http.MethodGet, "/java-analyzer/analyze/%2Fsrc%2Fapp", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "/src/app", scanner.lastConfig(t).SourcePath)
}

func TestAnalyze_EmptyResultIsEmptyArray(t *testing.T) {
	srv := New(Config{Scanner: &fakeScanner{report: &sqlscan.ScanReport{RunID: uuid.New()}}})

	rec := do(t, srv.Handler(), http.MethodPost, "/java-analyzer/analyze", `{"directoryPath":"/empty"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		scanErr    error
		wantStatus int
	}{
		{"malformed body", `{"directoryPath":`, nil, http.StatusBadRequest},
		{"missing path", `{}`, nil, http.StatusBadRequest},
		{"blank path", `{"directoryPath":"   "}`, nil, http.StatusBadRequest},
		{"source missing", `{"directoryPath":"/nope"}`, fmt.Errorf("/nope: %w", sqlscan.ErrSourceNotFound), http.StatusNotFound},
		{"invalid config", `{"directoryPath":"/src"}`, fmt.Errorf("workers: %w", sqlscan.ErrInvalidConfig), http.StatusBadRequest},
		{"scan failure", `{"directoryPath":"/src"}`, errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(Config{Scanner: &fakeScanner{err: tt.scanErr}})

			rec := do(t, srv.Handler(), http.MethodPost, "/java-analyzer/analyze", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestAnalyze_StoresReport(t *testing.T) {
	report := sampleReport()
	store := &fakeStore{}
	srv := New(Config{Scanner: &fakeScanner{report: report}, Store: store})

	rec := do(t, srv.Handler(), http.MethodPost, "/java-analyzer/analyze", `{"directoryPath":"/src/app"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uuid.UUID{report.RunID}, store.saved)
}

func TestAnalyze_StoreFailureStillAnswers(t *testing.T) {
	store := &fakeStore{err: errors.New("database is down")}
	srv := New(Config{Scanner: &fakeScanner{report: sampleReport()}, Store: store})

	rec := do(t, srv.Handler(), http.MethodPost, "/java-analyzer/analyze", `{"directoryPath":"/src/app"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, store.saved, 1)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(Config{Scanner: &fakeScanner{}})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
