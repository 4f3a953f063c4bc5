package host

import (
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/pageroutes/pkg/pageroute"
)

// DefaultLoadTimeout bounds how long a request waits for its elements.
const DefaultLoadTimeout = 2 * time.Second

// DegradedFunc renders a node whose element failed to load.
type DegradedFunc func(w io.Writer, node *pageroute.RouteNode, err error) error

// PendingFunc renders a node still loading at the deadline when its element
// has no placeholder.
type PendingFunc func(w io.Writer, node *pageroute.RouteNode) error

// Option configures Mount.
type Option func(*config)

type config struct {
	logger      *slog.Logger
	timeout     time.Duration
	degraded    DegradedFunc
	pending     PendingFunc
	contentType string
	metricsPath string
	gatherer    prometheus.Gatherer
	livePath    string
	live        *LiveHub
	requests    *RequestMetrics
}

func defaultConfig() config {
	return config{
		logger:      slog.Default(),
		timeout:     DefaultLoadTimeout,
		degraded:    DefaultDegraded,
		pending:     DefaultPending,
		contentType: "text/html; charset=utf-8",
	}
}

// WithLogger sets the logger for request and mount events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLoadTimeout sets how long a request waits for deferred loads before
// rendering placeholders.
func WithLoadTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithDegraded sets the renderer for failed elements.
func WithDegraded(fn DegradedFunc) Option {
	return func(c *config) {
		if fn != nil {
			c.degraded = fn
		}
	}
}

// WithPending sets the renderer for elements that miss the deadline.
func WithPending(fn PendingFunc) Option {
	return func(c *config) {
		if fn != nil {
			c.pending = fn
		}
	}
}

// WithContentType sets the response Content-Type.
func WithContentType(ct string) Option {
	return func(c *config) {
		c.contentType = ct
	}
}

// WithMetrics serves g in the Prometheus exposition format at path.
func WithMetrics(path string, g prometheus.Gatherer) Option {
	return func(c *config) {
		c.metricsPath = path
		c.gatherer = g
	}
}

// WithLiveHub serves hub at path and publishes every mounted element's
// settled state to it.
func WithLiveHub(path string, hub *LiveHub) Option {
	return func(c *config) {
		c.livePath = path
		c.live = hub
	}
}

// WithRequestMetrics records every page request in m.
func WithRequestMetrics(m *RequestMetrics) Option {
	return func(c *config) {
		c.requests = m
	}
}
