package dev

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"

	"github.com/vango-dev/pageroutes/internal/config"
	"github.com/vango-dev/pageroutes/internal/errors"
	"github.com/vango-dev/pageroutes/pkg/deferred"
	"github.com/vango-dev/pageroutes/pkg/host"
	"github.com/vango-dev/pageroutes/pkg/manifest"
	"github.com/vango-dev/pageroutes/pkg/pageroute"
)

// ServerOptions configures a Server.
type ServerOptions struct {
	Config *config.Config

	// Resolver maps manifest refs to loaders.
	Resolver *manifest.Resolver

	// Source returns the manifest for each build.
	Source func() (*manifest.Manifest, error)

	// ElementOptions apply to every compiled element.
	ElementOptions []deferred.Option

	// HostOptions are passed to host.Mount.
	HostOptions []host.Option

	// Live, when set, is mounted at server.livePath and told to reload
	// after every rebuild.
	Live *host.LiveHub

	Logger *slog.Logger
}

// Server serves the current route tree and swaps in a new one on Build.
type Server struct {
	opts   ServerOptions
	logger *slog.Logger
	router atomic.Pointer[chi.Mux]

	mu    sync.Mutex
	host  *host.Host
	nodes []*pageroute.RouteNode
}

// NewServer creates a server. Call Build before serving.
func NewServer(opts ServerOptions) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{opts: opts, logger: logger}
}

// Build compiles the manifest from Source and atomically replaces the served
// router. On error the previous router keeps serving.
func (s *Server) Build() error {
	cfg := s.opts.Config

	m, err := s.opts.Source()
	if err != nil {
		return errors.Classify(err, "E130")
	}

	bindings, err := m.Bindings(s.opts.Resolver)
	if err != nil {
		return errors.Classify(err, "E130")
	}

	compileOpts := append(cfg.PageroutesOptions(), pageroute.WithElementOptions(s.opts.ElementOptions...))
	nodes, err := pageroute.CompileRoutes(bindings, compileOpts...)
	if err != nil {
		return errors.Classify(err, "")
	}

	hostOpts := append([]host.Option{host.WithLogger(s.logger)}, s.opts.HostOptions...)
	if s.opts.Live != nil && cfg.Server.LivePath != "" {
		hostOpts = append(hostOpts, host.WithLiveHub(cfg.Server.LivePath, s.opts.Live))
	}

	r := chi.NewRouter()
	r.Use(host.Canonical)
	h, err := host.Mount(r, nodes, hostOpts...)
	if err != nil {
		return errors.Classify(err, "E101")
	}

	s.mu.Lock()
	old := s.host
	s.host = h
	s.nodes = nodes
	s.router.Store(r)
	s.mu.Unlock()

	s.logger.Info("route tree built", "pages", len(h.Routes()), "bindings", len(bindings))

	if old != nil {
		old.Close()
		if s.opts.Live != nil {
			s.opts.Live.NotifyReload()
		}
	}
	return nil
}

// Nodes returns the current route tree.
func (s *Server) Nodes() []*pageroute.RouteNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodes
}

// ServeHTTP serves from the most recently built router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := s.router.Load()
	if mux == nil {
		http.Error(w, "route tree not built", http.StatusServiceUnavailable)
		return
	}
	mux.ServeHTTP(w, r)
}

// Watch rebuilds whenever files under the pages directory change, until ctx
// is done.
func (s *Server) Watch(ctx context.Context) error {
	cfg := s.opts.Config
	ignore := append([]string{filepath.Base(cfg.Manifest.Output)}, DefaultIgnore...)

	w, err := NewWatcher(WatcherConfig{
		Paths:  []string{cfg.PagesPath()},
		Ignore: ignore,
		Logger: s.logger,
	})
	if err != nil {
		return err
	}

	w.OnChange(func(changes []Change) {
		s.logger.Info("pages changed", "files", len(changes), "first", changes[0].Path)
		if err := s.Build(); err != nil {
			s.logger.Error("rebuild failed", "error", err)
		}
	})

	s.logger.Info("watching pages", "dir", cfg.PagesPath())
	return w.Run(ctx)
}

// Close stops the current host from publishing to the live hub.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.host != nil {
		s.host.Close()
	}
}
