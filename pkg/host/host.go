package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/pageroutes/pkg/deferred"
	"github.com/vango-dev/pageroutes/pkg/pageroute"
)

// View is a component that renders itself around an optional child.
// outlet is nil for the innermost node.
type View interface {
	Render(w io.Writer, outlet func(io.Writer) error) error
}

// RequestView is a View that needs the request, e.g. for URL parameters.
type RequestView interface {
	RenderRequest(r *http.Request, w io.Writer, outlet func(io.Writer) error) error
}

// Route is one mounted page.
type Route struct {
	// Pattern is the chi pattern, e.g. "/user/{id}".
	Pattern string

	// Path is the compiled path, e.g. "/user/:id".
	Path string

	// Chain lists the element-bearing nodes from the root layout down to the
	// page itself.
	Chain []*pageroute.RouteNode
}

// Page returns the leaf node of the route.
func (r Route) Page() *pageroute.RouteNode {
	return r.Chain[len(r.Chain)-1]
}

// Host serves a compiled route tree.
type Host struct {
	cfg         config
	routes      []Route
	unsubscribe []func()
}

// Mount registers one GET handler on r per page in nodes.
//
// Each request activates the page's chain of elements, waits up to the load
// timeout, renders layouts around their children, and deactivates the chain
// when the response is written. An element that failed renders through the
// degraded renderer; one still loading renders its placeholder. Neither
// affects the other nodes of the chain.
func Mount(r chi.Router, nodes []*pageroute.RouteNode, opts ...Option) (*Host, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	h := &Host{cfg: cfg}
	seen := make(map[string]string)

	err := pageroute.Walk(nodes, func(n *pageroute.RouteNode, path string, ancestors []*pageroute.RouteNode) error {
		if n.IsLayout() || n.Element == nil {
			return nil
		}

		pattern := Pattern(path)
		key := shape(pattern)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("host: %s and %s both serve %s", prev, n.Source, pattern)
		}
		seen[key] = n.Source

		var chain []*pageroute.RouteNode
		for _, a := range ancestors {
			if a.Element != nil {
				chain = append(chain, a)
			}
		}
		chain = append(chain, n)

		h.routes = append(h.routes, Route{Pattern: pattern, Path: path, Chain: chain})
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, rt := range h.routes {
		r.Get(rt.Pattern, h.handler(rt))
	}

	if cfg.metricsPath != "" {
		g := cfg.gatherer
		if g == nil {
			g = prometheus.DefaultGatherer
		}
		r.Handle(cfg.metricsPath, promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	}

	if cfg.live != nil && cfg.livePath != "" {
		r.Get(cfg.livePath, cfg.live.ServeHTTP)
		for _, fr := range pageroute.Flatten(nodes) {
			h.unsubscribe = append(h.unsubscribe, cfg.live.Watch(fr.Element))
		}
	}

	cfg.logger.Info("mounted page routes", "routes", len(h.routes))
	return h, nil
}

// Routes returns the mounted routes in tree order.
func (h *Host) Routes() []Route {
	return h.routes
}

// Close stops publishing element states to the live hub.
func (h *Host) Close() {
	for _, fn := range h.unsubscribe {
		fn()
	}
	h.unsubscribe = nil
}

func (h *Host) handler(rt Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		acts := make([]*deferred.Activation, len(rt.Chain))
		for i, n := range rt.Chain {
			acts[i] = n.Element.Activate(r.Context())
		}
		defer func() {
			for _, a := range acts {
				a.Deactivate()
			}
		}()

		ctx, cancel := context.WithTimeout(r.Context(), h.cfg.timeout)
		defer cancel()
		for _, a := range acts {
			select {
			case <-a.Done():
			case <-ctx.Done():
			}
		}
		if r.Context().Err() != nil {
			h.cfg.requests.observe(rt.Pattern, OutcomeCanceled, time.Since(start))
			return
		}

		result := outcome(acts)
		var buf bytes.Buffer
		if err := h.render(&buf, r, rt, acts, 0); err != nil {
			h.cfg.logger.Error("render failed", "path", r.URL.Path, "pattern", rt.Pattern, "error", err)
			h.cfg.requests.observe(rt.Pattern, OutcomeError, time.Since(start))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		h.cfg.requests.observe(rt.Pattern, result, time.Since(start))

		if h.cfg.contentType != "" {
			w.Header().Set("Content-Type", h.cfg.contentType)
		}
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil {
			h.cfg.logger.Debug("write failed", "path", r.URL.Path, "error", err)
			return
		}

		h.cfg.logger.Debug("served page",
			"path", r.URL.Path,
			"pattern", rt.Pattern,
			"outcome", result,
			"duration", time.Since(start),
		)
	}
}

func (h *Host) render(w io.Writer, r *http.Request, rt Route, acts []*deferred.Activation, i int) error {
	node := rt.Chain[i]

	var outlet func(io.Writer) error
	if i+1 < len(rt.Chain) {
		outlet = func(w io.Writer) error {
			return h.render(w, r, rt, acts, i+1)
		}
	}

	comp, err := acts[i].Result()
	switch {
	case err == nil:
		return renderComponent(w, r, comp, outlet)

	case errors.Is(err, deferred.ErrNotSettled):
		if ph := node.Element.Placeholder(); ph != nil {
			return renderComponent(w, r, ph, outlet)
		}
		if err := h.cfg.pending(w, node); err != nil {
			return err
		}
		return runOutlet(w, outlet)

	default:
		h.cfg.logger.Warn("rendering degraded node",
			"element", node.Element.Name(),
			"path", r.URL.Path,
			"error", err,
		)
		if err := h.cfg.degraded(w, node, err); err != nil {
			return err
		}
		return runOutlet(w, outlet)
	}
}

func renderComponent(w io.Writer, r *http.Request, c deferred.Component, outlet func(io.Writer) error) error {
	switch v := c.(type) {
	case RequestView:
		return v.RenderRequest(r, w, outlet)
	case View:
		return v.Render(w, outlet)
	case nil:
		return runOutlet(w, outlet)
	case string:
		if _, err := io.WriteString(w, v); err != nil {
			return err
		}
	case []byte:
		if _, err := w.Write(v); err != nil {
			return err
		}
	default:
		if _, err := fmt.Fprint(w, v); err != nil {
			return err
		}
	}
	return runOutlet(w, outlet)
}

func runOutlet(w io.Writer, outlet func(io.Writer) error) error {
	if outlet == nil {
		return nil
	}
	return outlet(w)
}

// DefaultDegraded renders an inline alert naming the failed binding.
func DefaultDegraded(w io.Writer, node *pageroute.RouteNode, _ error) error {
	_, err := fmt.Fprintf(w, `<div data-pageroutes-error="%s" role="alert">Unavailable</div>`, html.EscapeString(node.Source))
	return err
}

// DefaultPending renders an empty busy marker.
func DefaultPending(w io.Writer, node *pageroute.RouteNode) error {
	_, err := fmt.Fprintf(w, `<div data-pageroutes-pending="%s" aria-busy="true"></div>`, html.EscapeString(node.Source))
	return err
}

// Pattern converts a compiled path to a chi pattern: ":id" becomes "{id}".
func Pattern(path string) string {
	if path == "" || path == "/" {
		return "/"
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if name, ok := strings.CutPrefix(p, pageroute.ParamSigil); ok {
			parts[i] = "{" + name + "}"
		}
	}
	return strings.Join(parts, "/")
}

// shape erases parameter names so "/user/{id}" and "/user/{name}" collide.
func shape(pattern string) string {
	parts := strings.Split(pattern, "/")
	for i, p := range parts {
		if strings.HasPrefix(p, "{") {
			parts[i] = "{}"
		}
	}
	return strings.Join(parts, "/")
}

// Params returns the URL parameters matched for r.
func Params(r *http.Request) map[string]string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return nil
	}
	out := make(map[string]string, len(rctx.URLParams.Keys))
	for i, k := range rctx.URLParams.Keys {
		if k == "*" || i >= len(rctx.URLParams.Values) {
			continue
		}
		out[k] = rctx.URLParams.Values[i]
	}
	return out
}
