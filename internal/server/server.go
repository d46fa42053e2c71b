// Package server exposes an analysis over an HTTP JSON API.
//
// Every client gets a session (see pkg/session) identified by the
// X-Session-ID header or the hiergraph_session cookie; view level and
// expansion state live in the session, so clients never interfere.
//
// Routes:
//
//	GET  /api/health
//	GET  /api/graph?level=2&expand=id1,id2
//	GET  /api/graph.{format}        dot, svg, png, pdf
//	POST /api/view                  {"level": 2}
//	POST /api/nodes/{id}/toggle
//	POST /api/expand-all
//	POST /api/collapse-all
//	GET  /api/nodes/{id}
//	GET  /api/nodes/{id}/focus
//	GET  /api/search?q=Order*&kind=class&cycles=true&limit=20
//	GET  /metrics
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	hgerrors "github.com/pyview/hiergraph/pkg/errors"
	"github.com/pyview/hiergraph/pkg/observability"
	"github.com/pyview/hiergraph/pkg/pipeline"
	"github.com/pyview/hiergraph/pkg/session"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "hiergraph_session"

	shutdownTimeout = 5 * time.Second
	cleanupInterval = time.Minute
)

// Config holds the dependencies of a Server.
type Config struct {
	Addr   string
	Runner *pipeline.Runner

	// Options are applied to every transformation (project name, chunk
	// size). Options.Level is the level of new sessions.
	Options pipeline.Options

	// Sessions defaults to a store with session.DefaultTTL.
	Sessions *session.Store
	// States persists session view state when set.
	States *session.FileStore

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	Logger  *log.Logger
}

// Server serves one analysis at a time. Load replaces it.
type Server struct {
	cfg    Config
	logger *log.Logger
	router chi.Router

	mu      sync.RWMutex
	current *pipeline.Transformed
}

// New creates a server. No analysis is loaded yet; API calls fail with
// NOT_FOUND until Load succeeds.
func New(cfg Config) *Server {
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.Sessions == nil {
		cfg.Sessions = session.NewStore(session.DefaultTTL)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	s := &Server{cfg: cfg, logger: cfg.Logger}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler { return s.router }

// Load transforms data and installs the result. Existing sessions switch to
// the new analysis, keeping their view level.
func (s *Server) Load(ctx context.Context, data []byte) error {
	t, err := s.cfg.Runner.Transform(ctx, data, s.cfg.Options)
	if err != nil {
		return err
	}
	s.install(t)
	return nil
}

// LoadFile reads and loads an analysis file. It reports the reload to the
// server hooks, so it can be used directly as a watch callback.
func (s *Server) LoadFile(ctx context.Context, path string) error {
	t, err := s.cfg.Runner.TransformFile(ctx, path, s.cfg.Options)
	observability.Server().OnReload(ctx, path, err)
	if err != nil {
		return err
	}
	s.install(t)
	return nil
}

func (s *Server) install(t *pipeline.Transformed) {
	s.mu.Lock()
	s.current = t
	s.mu.Unlock()
	n := s.cfg.Sessions.ReplaceAll(t.Scope, t.Hash)
	s.logger.Info("analysis loaded", "project", t.ProjectName, "entities", t.Graph.EntityCount(), "hash", shortHash(t.Hash), "sessions", n)
}

func (s *Server) analysis() (*pipeline.Transformed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, hgerrors.New(hgerrors.ErrCodeNotFound, "no analysis loaded")
	}
	return s.current, nil
}

// Serve listens on cfg.Addr until ctx is cancelled, then shuts down
// gracefully. Expired sessions are swept in the background.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return egctx },
	}

	s.logger.Info("serving", "addr", "http://"+ln.Addr().String())

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-egctx.Done():
				return nil
			case <-ticker.C:
				if n := s.cfg.Sessions.Cleanup(); n > 0 {
					s.logger.Debug("expired sessions removed", "count", n)
				}
				if s.cfg.States != nil {
					if err := s.cfg.States.Cleanup(); err != nil {
						s.logger.Warn("session state cleanup failed", "err", err)
					}
				}
			}
		}
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		s.instrument,
	)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.withSession)

			r.Get("/graph", s.handleGraph)
			r.Get("/graph.{format}", s.handleGraphArtifact)
			r.Post("/view", s.handleSetView)
			r.Post("/expand-all", s.handleExpandAll)
			r.Post("/collapse-all", s.handleCollapseAll)
			r.Get("/search", s.handleSearch)

			r.Route("/nodes/{id}", func(r chi.Router) {
				r.Get("/", s.handleNodeInfo)
				r.Get("/focus", s.handleFocus)
				r.Post("/toggle", s.handleToggle)
			})
		})
	})

	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics)
	}
	return r
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
