// Package server serves the landing page, the live diagram and its
// routing API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/portalmap/pkg/cache"
	"github.com/matzehuels/portalmap/pkg/diagram"
	"github.com/matzehuels/portalmap/pkg/route"
	"github.com/matzehuels/portalmap/pkg/source"
	"github.com/matzehuels/portalmap/pkg/surface"
)

// Config holds the server dependencies.
type Config struct {
	Source source.Source
	Cache  cache.Cache // nil disables caching
	TTL    time.Duration
	Logger *log.Logger

	// Width is the first-paint viewport width when a request gives none.
	Width float64
	// SettleDelay and ResizeDebounce are handed to the page script. Zero
	// disables the settle pass and resize debouncing respectively.
	SettleDelay    time.Duration
	ResizeDebounce time.Duration
	RouteOptions   []route.Option

	// WatchPath enables hot reload of the descriptor at that path.
	WatchPath     string
	WatchDebounce time.Duration
}

// Server holds the live descriptor. Reloads swap it atomically; requests
// in flight keep the graph they started with.
type Server struct {
	cfg     Config
	logger  *log.Logger
	cache   cache.Cache
	keyer   cache.Keyer
	metrics surface.Metrics
	current atomic.Pointer[state]
}

// state is one loaded descriptor and everything derived from it.
type state struct {
	graph  *diagram.Graph
	router *route.Router
	hash   string
	loaded time.Time
}

// New loads the initial descriptor. A load failure is fatal here; later
// reload failures keep the previous descriptor.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if cfg.Source == nil {
		cfg.Source = source.Embedded{}
	}
	if cfg.Width <= 0 {
		cfg.Width = 1280
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	if cfg.ResizeDebounce < 0 {
		cfg.ResizeDebounce = 0
	}
	if cfg.WatchDebounce <= 0 {
		cfg.WatchDebounce = 100 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	c := cfg.Cache
	if c == nil {
		c = cache.NewNullCache()
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		cache:   c,
		keyer:   cache.NewDefaultKeyer(),
		metrics: surface.WebMetrics(),
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload reads the descriptor again and swaps it in on success.
func (s *Server) Reload(ctx context.Context) error {
	g, err := s.cfg.Source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load descriptor from %s: %w", s.cfg.Source, err)
	}
	doc, err := json.Marshal(g.Document())
	if err != nil {
		return fmt.Errorf("hash descriptor: %w", err)
	}
	for _, e := range g.DanglingEdges() {
		s.logger.Warn("edge references unknown node", "edge", e.Key())
	}
	s.current.Store(&state{
		graph:  g,
		router: route.New(g, s.cfg.RouteOptions...),
		hash:   cache.Hash(doc),
		loaded: time.Now(),
	})
	s.logger.Info("descriptor loaded", "source", s.cfg.Source.String(), "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return nil
}

// Graph returns the live descriptor.
func (s *Server) Graph() *diagram.Graph { return s.current.Load().graph }

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RealIP,
		middleware.RequestID,
		s.requestLogger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Get("/", s.handleIndex)
	r.Handle("/static/*", http.StripPrefix("/static/", staticHandler()))
	r.Get("/diagram.svg", s.handleSVG)
	r.Get("/diagram.dot", s.handleDOT)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/graph", s.handleGraph)
		r.Post("/route", s.handleRoute)
		r.Post("/overlay", s.handleOverlay)
	})
	return r
}

// Serve listens on addr until ctx is cancelled, then shuts down within
// five seconds. With WatchPath set, the descriptor file is watched too.
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

	if s.cfg.WatchPath != "" {
		eg.Go(func() error {
			return s.watch(egctx, s.cfg.WatchPath)
		})
	}

	eg.Go(func() error {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Debug("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
