// Package server provides the HTTP API that triggers reconciliation and question regeneration.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jonathan/interview-kit/internal/regenerate"
	"github.com/jonathan/interview-kit/internal/server/middleware"
	"github.com/jonathan/interview-kit/internal/server/ratelimit"
	"github.com/jonathan/interview-kit/internal/syncer"
	"github.com/jonathan/interview-kit/internal/types"
)

// Syncer runs reconciliations.
type Syncer interface {
	SyncRecord(ctx context.Context, reqID, userID string) (*syncer.Summary, error)
	Preview(ctx context.Context, reqID, userID string) (*syncer.Plan, error)
}

// Regenerator regenerates questions and reads their audit history.
type Regenerator interface {
	RegenerateQuestion(ctx context.Context, questionID int64, reason string, feedback *string) (*types.Question, error)
	RegenerateWithFeedback(ctx context.Context, recordID int64, items []regenerate.FeedbackItem, globalFeedback string) (*regenerate.BatchResult, error)
	History(ctx context.Context, questionID int64) ([]types.Regeneration, error)
}

// Config holds server configuration
type Config struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Deps are the services the handlers call.
type Deps struct {
	Syncer      Syncer
	Regenerator Regenerator
	// Health reports datastore reachability. Optional.
	Health func(ctx context.Context) error
	// JWT enables bearer authentication on every route except /health. Optional.
	JWT *JWTService
	// RateLimiter throttles expensive routes. Optional.
	RateLimiter *ratelimit.Limiter
	Logger      *zap.Logger
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	syncer      Syncer
	regenerator Regenerator
	health      func(ctx context.Context) error
	limiter     *ratelimit.Limiter
	validate    *validator.Validate
	logger      *zap.Logger
}

// New creates a new server instance
func New(cfg Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		syncer:      deps.Syncer,
		regenerator: deps.Regenerator,
		health:      deps.Health,
		limiter:     deps.RateLimiter,
		validate:    newValidator(),
		logger:      logger.Named("server"),
	}

	api := http.NewServeMux()
	api.HandleFunc("POST /sync", s.handleSync)
	api.HandleFunc("POST /questions/{id}/regenerate", s.handleRegenerateQuestion)
	api.HandleFunc("GET /questions/{id}/regenerations", s.handleListRegenerations)
	api.HandleFunc("POST /records/{id}/regenerate", s.handleRegenerateRecord)

	var protected http.Handler = s.withRateLimit(api)
	if deps.JWT != nil {
		protected = middleware.AuthMiddleware(deps.JWT.AsTokenValidator())(protected)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("/", protected)

	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Minute // regeneration waits on the generator
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      middleware.RequestLogging(s.logger)(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("Server stopped")
	return nil
}

// withRateLimit rejects requests over the configured per-caller budget.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := s.limiter.Allow(clientID(r), r.Method, r.URL.Path)
		if info.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		}
		if !info.Allowed {
			retry := int(info.RetryAfter.Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			s.logger.Warn("Rate limit exceeded",
				zap.String("client", clientID(r)),
				zap.String("path", r.URL.Path))
			s.jsonResponse(w, http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded", Kind: "rate_limited"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientID is the authenticated subject, or the remote IP when auth is disabled.
func clientID(r *http.Request) string {
	if subject, err := middleware.GetSubject(r); err == nil {
		return subject
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Warn("Health check failed", zap.Error(err))
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("Failed to encode JSON response", zap.Error(err))
	}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
