// Package server serves the dashboard over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/nao1215/salesdash"
	"github.com/nao1215/salesdash/domain/model"
	"github.com/nao1215/salesdash/internal/logging"
	"github.com/nao1215/salesdash/internal/metrics"
)

const (
	// DefaultMaxUploadBytes caps the size of an uploaded order file
	DefaultMaxUploadBytes = 32 << 20
	// shutdownTimeout bounds the graceful shutdown
	shutdownTimeout = 10 * time.Second
)

// dataset is the table currently served, identified by the id of its load event.
type dataset struct {
	id       string
	table    *salesdash.Table
	loadedAt time.Time
}

// Server holds the current dataset and answers dashboard requests.
type Server struct {
	loader         *salesdash.Loader
	resolver       salesdash.LocationResolver
	metrics        *metrics.Metrics
	logger         *slog.Logger
	maxUploadBytes int64
	dashboardOpts  []salesdash.DashboardOption

	mu      sync.RWMutex
	current dataset
}

// Option configures a Server.
type Option func(*Server)

// WithLoader sets the loader used for uploads.
func WithLoader(loader *salesdash.Loader) Option {
	return func(s *Server) {
		if loader != nil {
			s.loader = loader
		}
	}
}

// WithResolver sets the resolver placing states on the map. Without one the map has no markers.
func WithResolver(resolver salesdash.LocationResolver) Option {
	return func(s *Server) {
		s.resolver = resolver
	}
}

// WithMetrics records requests and loads and serves /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxUploadBytes caps upload bodies. Non-positive values keep the default.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithDashboardOptions passes options to every dashboard build.
func WithDashboardOptions(opts ...salesdash.DashboardOption) Option {
	return func(s *Server) {
		s.dashboardOpts = append(s.dashboardOpts, opts...)
	}
}

// New returns a Server serving table. A nil table is served as empty.
func New(table *salesdash.Table, opts ...Option) *Server {
	s := &Server{
		loader:         salesdash.NewLoader(),
		logger:         slog.New(slog.DiscardHandler),
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Replace(table)
	return s
}

// Replace swaps the served table and returns the id of the new dataset.
// A nil table is served as an empty table without columns.
func (s *Server) Replace(table *salesdash.Table) string {
	if table == nil {
		table = model.NewTable("orders", model.NewFieldSet(), nil, nil)
	}
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = dataset{id: id, table: table, loadedAt: time.Now()}
	return id
}

// Dataset returns the id and table currently served.
func (s *Server) Dataset() (string, *salesdash.Table) {
	d := s.snapshot()
	return d.id, d.table
}

func (s *Server) snapshot() dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/options", s.handleOptions)
		r.Post("/upload", s.handleUpload)
		r.Get("/export", s.handleExport)
	})
	r.Get("/charts/{panel}.png", s.handleChart)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

// observe logs and measures every request. The request context carries a
// logger tagged with the request id so handlers log through internal/logging.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logging.WithLogger(r.Context(), s.logger)
		ctx = logging.WithAttrs(ctx, slog.String("request_id", middleware.GetReqID(ctx)))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		elapsed := time.Since(start)
		if s.metrics != nil {
			s.metrics.ObserveRequest(route, r.Method, status, elapsed)
		}
		logging.Info(ctx, "request handled",
			slog.String("method", r.Method),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Duration("elapsed", elapsed),
		)
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readTimeout,
		ReadTimeout:       readTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logging.Info(ctx, "server listening", slog.String("addr", addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	logging.Info(ctx, "server stopped")
	return nil
}
