// Package server exposes the matching workflow over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/resume-matcher/internal/matching"
	"github.com/spigell/resume-matcher/internal/results"
	"github.com/spigell/resume-matcher/internal/uploads"
)

// Matcher runs one batch; *matching.Pipeline implements it.
type Matcher interface {
	Run(ctx context.Context, jd string, docs []matching.Document, method string) (*matching.Batch, error)
}

// Extractor turns an uploaded file into text; *extract.Extractor implements it.
type Extractor interface {
	Extract(ctx context.Context, name string, r io.Reader) (string, error)
}

// Config holds server settings.
type Config struct {
	Addr            string
	MaxUploadMB     int
	RateLimit       float64
	Burst           int
	AllowedOrigins  []string
	DefaultMethod   string
	ShutdownTimeout time.Duration
}

// Deps are the collaborators the handlers use. Uploads may be nil, in which
// case originals are not kept and archives come out empty.
type Deps struct {
	Matcher   Matcher
	Extractor Extractor
	Store     results.Store
	Uploads   *uploads.Storage
	Sessions  *Sessions
	Logger    *zap.Logger
}

// Server is the HTTP API.
type Server struct {
	cfg       Config
	matcher   Matcher
	extractor Extractor
	store     results.Store
	uploads   *uploads.Storage
	sessions  *Sessions
	limiter   *clientLimiter
	validate  *validator.Validate
	logger    *zap.Logger
	http      *http.Server
}

func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Matcher == nil || deps.Extractor == nil || deps.Store == nil || deps.Sessions == nil {
		return nil, errors.New("server requires a matcher, an extractor, a result store and sessions")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 32
	}
	if cfg.DefaultMethod == "" {
		cfg.DefaultMethod = string(matching.MethodLLM)
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	s := &Server{
		cfg:       cfg,
		matcher:   deps.Matcher,
		extractor: deps.Extractor,
		store:     deps.Store,
		uploads:   deps.Uploads,
		sessions:  deps.Sessions,
		validate:  validator.New(),
		logger:    deps.Logger,
	}
	if cfg.RateLimit > 0 {
		s.limiter = newClientLimiter(cfg.RateLimit, cfg.Burst)
	}

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		// batches call hosted models once or twice per resume
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("POST /match", Chain(http.HandlerFunc(s.handleMatch), s.rateLimit, s.withSession))
	mux.Handle("GET /results", s.withSession(http.HandlerFunc(s.handleResults)))
	mux.Handle("POST /download-zip", s.withSession(http.HandlerFunc(s.handleDownloadZip)))

	return Chain(mux, requestID, s.accessLog, s.recoverer, s.cors)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}
