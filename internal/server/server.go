// Package server serves the browser viewer and its JSON API.
//
// Each browser tab owns one viewer session. The page creates the session on
// load, then loads documents into it, selects nodes and fetches the graph over
// the API. All mutable state lives in the viewer.Store, so handlers are
// stateless and safe for concurrent use.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/thoughtgraph/pkg/catalog"
	"github.com/matzehuels/thoughtgraph/pkg/observability"
	"github.com/matzehuels/thoughtgraph/pkg/pipeline"
	"github.com/matzehuels/thoughtgraph/pkg/viewer"
)

const (
	shutdownTimeout = 5 * time.Second
	cleanupInterval = time.Minute
)

// Config configures a Server.
type Config struct {
	Addr           string
	MaxUploadBytes int64
	CORSOrigins    []string
	Watch          bool
	Options        pipeline.Options
}

// Server is the viewer HTTP server.
type Server struct {
	cfg     Config
	runner  *pipeline.Runner
	store   *viewer.Store
	catalog *catalog.Catalog
	metrics *observability.Metrics
	logger  *log.Logger
	handler http.Handler
}

// New creates a server. metrics may be nil, in which case /metrics is not served.
func New(cfg Config, runner *pipeline.Runner, store *viewer.Store, cat *catalog.Catalog, metrics *observability.Metrics, logger *log.Logger) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		cfg:     cfg,
		runner:  runner,
		store:   store,
		catalog: cat,
		metrics: metrics,
		logger:  logger,
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Preload opens a session with the file at path already loaded, for
// "thoughtgraph serve run.json". A failed load still returns the session,
// with the error recorded on it.
func (s *Server) Preload(ctx context.Context, path string) (*viewer.Session, error) {
	sess := s.store.Create(ctx)
	res, err := s.runner.Execute(ctx, path, s.cfg.Options)
	if err != nil {
		sess.Fail(ctx, err)
		return sess, err
	}
	sess.Load(ctx, res)
	return sess, nil
}

// Run listens on the configured address and serves until ctx is done, then
// shuts down gracefully. ready, if non-nil, is called with the base URL once
// the listener is open.
func (s *Server) Run(ctx context.Context, ready func(url string)) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln, ready)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, ready func(url string)) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go s.store.Run(ctx, cleanupInterval, s.logger)
	if s.cfg.Watch && s.catalog != nil {
		go func() {
			if err := s.catalog.Watch(ctx); err != nil {
				s.logger.Warn("catalog watch disabled", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	url := "http://" + ln.Addr().String()
	s.logger.Info("serving viewer", "url", url)
	if ready != nil {
		ready(url)
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
