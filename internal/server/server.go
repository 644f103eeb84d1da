// Package server exposes scans over HTTP:
//
//	POST /java-analyzer/analyze                    {"directoryPath": "/src/app"}
//	GET  /java-analyzer/analyze/{directoryPath}    URL-escaped path
//	GET  /healthz
//
// Both analyze endpoints answer with the files that contain SQL and their
// paragraphs.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/vvka-141/sqlscan/internal/logging"
	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

const (
	DefaultAddr     = ":8080"
	shutdownTimeout = 5 * time.Second
	maxRequestBytes = 1 << 20
)

// Scanner runs one scan; *services.ScanService satisfies it.
type Scanner interface {
	Scan(ctx context.Context, cfg sqlscan.ScanConfig) (*sqlscan.ScanReport, error)
}

type Config struct {
	Addr    string
	Scanner Scanner

	// Template is copied for every request; SourcePath is replaced.
	Template sqlscan.ScanConfig

	// Store, when set, receives every completed report. Failures are logged.
	Store sqlscan.ResultStore

	Logger sqlscan.Logger
}

type Server struct {
	addr     string
	scanner  Scanner
	template sqlscan.ScanConfig
	store    sqlscan.ResultStore
	logger   sqlscan.Logger
}

// New creates a server. Panics if cfg.Scanner is nil.
func New(cfg Config) *Server {
	if cfg.Scanner == nil {
		panic("scanner cannot be nil")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	cfg.Logger = logging.OrNull(cfg.Logger)
	return &Server{
		addr:     cfg.Addr,
		scanner:  cfg.Scanner,
		template: cfg.Template,
		store:    cfg.Store,
		logger:   cfg.Logger,
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
	)

	r.Get("/healthz", s.health)
	r.Route("/java-analyzer/analyze", func(r chi.Router) {
		r.Post("/", s.analyzeBody)
		r.Get("/*", s.analyzePath)
	})
	return r
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Listening on http://%s", ln.Addr())

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Verbose("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

type analyzeRequest struct {
	DirectoryPath string `json:"directoryPath"`
}

// fileResponse is the wire shape of one analyzed file.
type fileResponse struct {
	FilePath      string              `json:"filePath"`
	SQLParagraphs []sqlscan.Paragraph `json:"sqlParagraphs"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) analyzeBody(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	s.analyze(w, r, req.DirectoryPath)
}

func (s *Server) analyzePath(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "*")
	dir, err := url.PathUnescape(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid directory path: " + err.Error()})
		return
	}
	s.analyze(w, r, dir)
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request, dir string) {
	if strings.TrimSpace(dir) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "directoryPath is required"})
		return
	}

	cfg := s.template
	cfg.SourcePath = dir
	cfg.IncludeEmpty = false

	report, err := s.scanner.Scan(r.Context(), cfg)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, sqlscan.ErrSourceNotFound):
			status = http.StatusNotFound
		case errors.Is(err, sqlscan.ErrInvalidConfig):
			status = http.StatusBadRequest
		}
		s.logger.Error("Analyze %s failed: %v", dir, err)
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	if s.store != nil {
		if err := s.store.Save(r.Context(), report); err != nil {
			s.logger.Error("Failed to store run %s: %v", report.RunID, err)
		}
	}

	files := make([]fileResponse, 0, len(report.Files))
	for _, f := range report.Files {
		files = append(files, fileResponse{FilePath: f.Path, SQLParagraphs: f.Paragraphs})
	}
	s.logger.Verbose("Analyzed %s: %d files with SQL", dir, len(files))
	writeJSON(w, http.StatusOK, files)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
