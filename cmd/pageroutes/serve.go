package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/pageroutes/internal/dev"
	"github.com/vango-dev/pageroutes/pkg/deferred"
	"github.com/vango-dev/pageroutes/pkg/host"
	"github.com/vango-dev/pageroutes/pkg/manifest"
	"github.com/vango-dev/pageroutes/pkg/pageroute"
)

type serveOptions struct {
	host         string
	port         int
	watch        bool
	fetchTimeout time.Duration
}

func serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the route tree over HTTP",
		Long: `Compile the manifest and serve every page wrapped in its layouts.

Elements load on first request. A request waits up to server.loadTimeout
and then renders placeholders for elements still loading. An element that
fails renders an error fragment in its place while the rest of the page is
served.

With --watch the pages directory is rescanned, the manifest rewritten and
the tree rebuilt whenever a file changes. Clients connected to
server.livePath are told to reload.

Examples:
  pageroutes serve
  pageroutes serve --watch --port=8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.host, "host", "H", "", "Host to bind to (default from server.host)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Port to listen on (default from server.port)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Rebuild when pages change")
	cmd.Flags().DurationVar(&opts.fetchTimeout, "fetch-timeout", 0, "Abort element loads after this long (0 disables)")

	return cmd
}

func runServe(opts serveOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.host != "" {
		cfg.Server.Host = opts.host
	}
	if opts.port > 0 {
		cfg.Server.Port = opts.port
	}

	logger := newLogger()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	inst := deferred.NewInstrumentation(
		deferred.WithRegistry(reg),
		deferred.WithNamespace(cfg.Metrics.Namespace),
	)

	elementOpts := []deferred.Option{
		deferred.WithInstrumentation(inst),
		deferred.WithLogger(logger),
	}
	if opts.fetchTimeout > 0 {
		elementOpts = append(elementOpts, deferred.WithTimeout(opts.fetchTimeout))
	}

	hostOpts := []host.Option{
		host.WithLoadTimeout(cfg.LoadTimeout()),
		host.WithRequestMetrics(host.NewRequestMetrics(reg, cfg.Metrics.Namespace)),
	}
	if cfg.Server.MetricsPath != "" {
		hostOpts = append(hostOpts, host.WithMetrics(cfg.Server.MetricsPath, reg))
	}

	var live *host.LiveHub
	if cfg.Server.LivePath != "" {
		live = host.NewLiveHub(logger, nil)
		defer live.Close()
	}

	source := func() (*manifest.Manifest, error) { return dev.LoadManifest(cfg) }
	if opts.watch {
		source = func() (*manifest.Manifest, error) {
			m, changed, err := dev.Generate(cfg)
			if changed {
				info("Manifest updated (%d pages)", len(m.Entries))
			}
			return m, err
		}
	}

	srv := dev.NewServer(dev.ServerOptions{
		Config:         cfg,
		Resolver:       dev.NewResolver(cfg, nil, logger),
		Source:         source,
		ElementOptions: elementOpts,
		HostOptions:    hostOpts,
		Live:           live,
		Logger:         logger,
	})
	if err := srv.Build(); err != nil {
		return err
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.watch {
		go func() {
			if err := srv.Watch(ctx); err != nil {
				logger.Error("watcher stopped", "error", err)
			}
		}()
	}

	httpServer := &http.Server{
		Addr:              cfg.Address(),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	success("Serving %d elements on http://%s", len(pageroute.Flatten(srv.Nodes())), cfg.Address())
	if cfg.Server.MetricsPath != "" {
		info("Metrics at %s", cfg.Server.MetricsPath)
	}
	if opts.watch {
		info("Watching %s", cfg.PagesPath())
	}

	select {
	case err := <-errCh:
		if !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		warn("Shutdown: %v", err)
		return err
	}
	return nil
}
