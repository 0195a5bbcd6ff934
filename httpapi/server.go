// Copyright © 2024 The Quill authors

// Package httpapi exposes the analysis service as a JSON API.
//
// Routes:
//
//	POST   /v1/analyze                          analyze a document, returns a snapshot id
//	GET    /v1/snapshots/{id}/hover?line=&col=   hover information or null
//	GET    /v1/snapshots/{id}/definition?line=&col=
//	GET    /v1/snapshots/{id}/references?line=&col=
//	POST   /v1/snapshots/{id}/rename             compute rename edits
//	POST   /v1/snapshots/{id}/commit             apply edits, returns the next snapshot
//	DELETE /v1/documents?uri=                    drop every snapshot of a document
//	GET    /metrics                             Prometheus metrics
//	GET    /healthz
package httpapi

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/luthersystems/quill/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// MaxBodyBytes bounds the size of request bodies.
const MaxBodyBytes = 8 << 20

const shutdownTimeout = 5 * time.Second

// Server serves the JSON API for one analysis service.
type Server struct {
	svc      *service.Service
	logger   zerolog.Logger
	gatherer prometheus.Gatherer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for access logs and passed to the
// service through request contexts.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithGatherer sets the registry exposed on /metrics.  It defaults to the
// Prometheus default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// New creates a server over svc.
func New(svc *service.Service, opts ...Option) *Server {
	s := &Server{
		svc:      svc,
		logger:   zerolog.Nop(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		s.accessLog,
		middleware.Recoverer,
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Delete("/documents", s.handleClose)
		r.Route("/snapshots/{id}", func(r chi.Router) {
			r.Get("/hover", s.handleHover)
			r.Get("/definition", s.handleDefinition)
			r.Get("/references", s.handleReferences)
			r.Post("/rename", s.handleRename)
			r.Post("/commit", s.handleCommit)
		})
	})
	return r
}

// Serve listens on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	eg, egctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		s.logger.Info().Str("addr", addr).Msg("serving")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Errorf("serve %s: %w", addr, err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Debug().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}

// accessLog attaches a request scoped logger to the context and logs each
// completed request.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := s.logger.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context())))
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
