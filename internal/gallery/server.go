package gallery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/comalice/statekernel/internal/core"
	"github.com/comalice/statekernel/internal/expr"
	xlog "github.com/comalice/statekernel/internal/log"
	"github.com/comalice/statekernel/internal/production"
)

// Options configures a Server. Registry is required.
type Options struct {
	Registry core.Registry
	// VectorsDir holds <component>.unified.json files served by /api/vectors.
	VectorsDir string
	// Persister stores session snapshots. Nil keeps sessions in memory only.
	Persister production.Persister
	// RateLimit is requests per minute per client IP; 0 disables limiting.
	RateLimit int
	Logger    zerolog.Logger
	// Registerer receives the engine metrics; Gatherer backs /metrics. Both
	// default to the prometheus default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	// TracerProvider, when set, records a span per session event.
	TracerProvider trace.TracerProvider
}

// Server is the gallery HTTP API.
type Server struct {
	registry   core.Registry
	vectorsDir string
	persister  production.Persister
	rateLimit  int
	logger     zerolog.Logger
	gatherer   prometheus.Gatherer
	metrics    *production.Metrics
	tp         trace.TracerProvider
	viz        production.DefaultVisualizer
	cache      *expr.Cache

	mu       sync.RWMutex
	sessions map[string]*session
}

// New builds a Server. It registers the engine metrics with opts.Registerer,
// so build at most one Server per registry.
func New(opts Options) (*Server, error) {
	if opts.Registry == nil {
		return nil, errors.New("gallery: registry is required")
	}
	reg, gat := opts.Registerer, opts.Gatherer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if gat == nil {
		gat = prometheus.DefaultGatherer
	}
	return &Server{
		registry:   opts.Registry,
		vectorsDir: opts.VectorsDir,
		persister:  opts.Persister,
		rateLimit:  opts.RateLimit,
		logger:     opts.Logger.With().Str(xlog.FieldComponent, "gallery").Logger(),
		gatherer:   gat,
		metrics:    production.NewMetrics(reg),
		tp:         opts.TracerProvider,
		cache:      expr.NewCache(),
		sessions:   make(map[string]*session),
	}, nil
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(recoverer(s.logger))
	r.Use(accessLog(s.logger))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		if s.rateLimit > 0 {
			r.Use(rateLimit(s.rateLimit))
		}
		r.Get("/components", s.handleComponents)
		r.Get("/components/{id}/config", s.handleConfig)
		r.Get("/components/{id}/dot", s.handleDOT)
		r.Get("/vectors/{id}", s.handleVectors)

		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions/{sid}", s.handleGetSession)
		r.Delete("/sessions/{sid}", s.handleDeleteSession)
		r.Post("/sessions/{sid}/events", s.handleSendEvent)
	})
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then drains open
// requests for up to five seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str(xlog.FieldListen, addr).Msg("gallery listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
