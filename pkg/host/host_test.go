package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/pageroutes/pkg/bundle"
	"github.com/vango-dev/pageroutes/pkg/deferred"
	"github.com/vango-dev/pageroutes/pkg/pageroute"
)

func static(body string) deferred.Loader {
	return func(context.Context) (deferred.Component, error) {
		return &bundle.Bundle{Body: []byte(body)}, nil
	}
}

// userView renders the matched id.
type userView struct{}

func (userView) RenderRequest(r *http.Request, w io.Writer, _ func(io.Writer) error) error {
	_, err := fmt.Fprintf(w, "<p>user %s</p>", Params(r)["id"])
	return err
}

func siteBindings() []pageroute.Binding {
	return []pageroute.Binding{
		{Path: "/pages/$.html", Loader: static("<html><!--outlet--></html>")},
		{Path: "/pages/$index.html", Loader: static("<h1>home</h1>")},
		{Path: "/pages/user/$.html", Loader: static("<section><!--outlet--></section>")},
		{Path: "/pages/user/$[id].html", Loader: func(context.Context) (deferred.Component, error) {
			return userView{}, nil
		}},
		{Path: "/pages/about.html", Loader: static("<h1>about</h1>")},
	}
}

func mount(t *testing.T, bindings []pageroute.Binding, opts ...Option) (http.Handler, *Host) {
	t.Helper()
	nodes, err := pageroute.CompileRoutes(bindings)
	if err != nil {
		t.Fatalf("CompileRoutes() error = %v", err)
	}
	r := chi.NewRouter()
	h, err := Mount(r, nodes, opts...)
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	t.Cleanup(h.Close)
	return r, h
}

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code, rec.Body.String()
}

func TestMount_RendersLayoutChain(t *testing.T) {
	handler, h := mount(t, siteBindings())

	tests := []struct {
		path string
		want string
	}{
		{"/", "<html><h1>home</h1></html>"},
		{"/user/42", "<html><section><p>user 42</p></section></html>"},
		{"/about", "<html><h1>about</h1></html>"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			code, body := get(t, handler, tt.path)
			if code != http.StatusOK {
				t.Fatalf("status = %d, want 200", code)
			}
			if body != tt.want {
				t.Errorf("body = %q, want %q", body, tt.want)
			}
		})
	}

	var patterns []string
	for _, rt := range h.Routes() {
		patterns = append(patterns, rt.Pattern)
	}
	if got, want := strings.Join(patterns, " "), "/ /user/{id} /about"; got != want {
		t.Errorf("Routes() patterns = %q, want %q", got, want)
	}
}

func TestMount_NotFound(t *testing.T) {
	handler, _ := mount(t, siteBindings())
	if code, _ := get(t, handler, "/user"); code != http.StatusNotFound {
		t.Errorf("GET /user status = %d, want 404", code)
	}
}

func TestMount_ContentType(t *testing.T) {
	handler, _ := mount(t, siteBindings())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestMount_FailedElementIsDegradedLocally(t *testing.T) {
	bindings := append(siteBindings(), pageroute.Binding{
		Path: "/pages/broken.html",
		Loader: func(context.Context) (deferred.Component, error) {
			return nil, errors.New("bucket unavailable")
		},
	})
	handler, _ := mount(t, bindings)

	code, body := get(t, handler, "/broken")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	want := `<html><div data-pageroutes-error="/pages/broken.html" role="alert">Unavailable</div></html>`
	if body != want {
		t.Errorf("body = %q, want %q", body, want)
	}

	// Siblings are unaffected.
	if _, body := get(t, handler, "/about"); body != "<html><h1>about</h1></html>" {
		t.Errorf("sibling body = %q", body)
	}
}

func TestMount_FailedLayoutStillRendersChild(t *testing.T) {
	bindings := []pageroute.Binding{
		{Path: "/pages/$.html", Loader: func(context.Context) (deferred.Component, error) {
			return nil, errors.New("no layout")
		}},
		{Path: "/pages/about.html", Loader: static("<h1>about</h1>")},
	}
	var gotErr error
	handler, _ := mount(t, bindings, WithDegraded(func(w io.Writer, n *pageroute.RouteNode, err error) error {
		gotErr = err
		_, werr := io.WriteString(w, "[degraded]")
		return werr
	}))

	if _, body := get(t, handler, "/about"); body != "[degraded]<h1>about</h1>" {
		t.Errorf("body = %q", body)
	}
	var le *deferred.LoadError
	if !errors.As(gotErr, &le) || le.Name != "/pages/$.html" {
		t.Errorf("degraded error = %v, want LoadError for the root layout", gotErr)
	}
}

func TestMount_PlaceholderPastTimeout(t *testing.T) {
	gate := make(chan struct{})
	var calls atomic.Int32
	bindings := []pageroute.Binding{
		{Path: "/pages/$.html", Loader: static("<html><!--outlet--></html>")},
		{Path: "/pages/slow.html", Loader: func(ctx context.Context) (deferred.Component, error) {
			calls.Add(1)
			<-gate
			return "<h1>slow</h1>", nil
		}},
	}
	nodes, err := pageroute.CompileRoutes(bindings,
		pageroute.WithElementOptions(deferred.WithPlaceholder("<p>loading</p>")))
	if err != nil {
		t.Fatal(err)
	}
	r := chi.NewRouter()
	if _, err := Mount(r, nodes, WithLoadTimeout(20*time.Millisecond)); err != nil {
		t.Fatal(err)
	}

	if _, body := get(t, r, "/slow"); body != "<html><p>loading</p></html>" {
		t.Errorf("body = %q, want placeholder", body)
	}

	slow := nodes[0].Children[0].Element
	if got := slow.State(); got != deferred.Pending {
		t.Errorf("state after request = %v, want Pending (orphaned)", got)
	}

	close(gate)

	// A later request loads again and renders the page.
	deadline := time.Now().Add(2 * time.Second)
	for {
		_, body := get(t, r, "/slow")
		if body == "<html><h1>slow</h1></html>" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("page never rendered, last body %q", body)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if calls.Load() < 1 {
		t.Error("loader never called")
	}
}

func TestMount_DefaultPending(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	bindings := []pageroute.Binding{
		{Path: "/pages/slow.html", Loader: func(ctx context.Context) (deferred.Component, error) {
			<-gate
			return "done", nil
		}},
	}
	handler, _ := mount(t, bindings, WithLoadTimeout(10*time.Millisecond))

	want := `<div data-pageroutes-pending="/pages/slow.html" aria-busy="true"></div>`
	if _, body := get(t, handler, "/slow"); body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}

func TestMount_DeactivatesAfterRequest(t *testing.T) {
	nodes, err := pageroute.CompileRoutes(siteBindings())
	if err != nil {
		t.Fatal(err)
	}
	r := chi.NewRouter()
	if _, err := Mount(r, nodes); err != nil {
		t.Fatal(err)
	}

	get(t, r, "/about")

	// A fresh activation of a settled element completes immediately; a
	// leaked one would keep the element's active set non-empty, which we
	// observe through Preload returning without error and no goroutines
	// left waiting.
	about := nodes[0].Children[2].Element
	if about.State() != deferred.Ready {
		t.Fatalf("state = %v, want Ready", about.State())
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := deferred.Preload(ctx, about); err != nil {
		t.Errorf("Preload() error = %v", err)
	}
}

func TestMount_ConflictingPatterns(t *testing.T) {
	nodes, err := pageroute.CompileRoutes([]pageroute.Binding{
		{Path: "/pages/user/$[id].html", Loader: static("a")},
		{Path: "/pages/user/$[name].html", Loader: static("b")},
	})
	if err != nil {
		t.Fatalf("CompileRoutes() error = %v", err)
	}
	if _, err := Mount(chi.NewRouter(), nodes); err == nil {
		t.Error("Mount() expected error for /user/{id} vs /user/{name}")
	}
}

func TestMount_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	instr := deferred.NewInstrumentation(deferred.WithRegistry(reg))

	nodes, err := pageroute.CompileRoutes(siteBindings(),
		pageroute.WithElementOptions(deferred.WithInstrumentation(instr)))
	if err != nil {
		t.Fatal(err)
	}
	r := chi.NewRouter()
	if _, err := Mount(r, nodes, WithMetrics("/metrics", reg)); err != nil {
		t.Fatal(err)
	}

	get(t, r, "/about")

	want := `pageroutes_loads_total{result="ready"} 2`
	deadline := time.Now().Add(2 * time.Second)
	for {
		code, body := get(t, r, "/metrics")
		if code == http.StatusOK && strings.Contains(body, want) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("metrics never contained %q:\n%s", want, body)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMount_RequestMetrics(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	bindings := append(siteBindings(),
		pageroute.Binding{Path: "/pages/broken.html", Loader: func(context.Context) (deferred.Component, error) {
			return nil, errors.New("boom")
		}},
		pageroute.Binding{Path: "/pages/slow.html", Loader: func(context.Context) (deferred.Component, error) {
			<-gate
			return "slow", nil
		}},
	)

	m := NewRequestMetrics(prometheus.NewRegistry(), "site")
	handler, _ := mount(t, bindings, WithRequestMetrics(m), WithLoadTimeout(20*time.Millisecond))

	get(t, handler, "/about")
	get(t, handler, "/about")
	get(t, handler, "/broken")
	get(t, handler, "/slow")

	tests := []struct {
		pattern, outcome string
		want             float64
	}{
		{"/about", OutcomeOK, 2},
		{"/broken", OutcomeDegraded, 1},
		{"/slow", OutcomePending, 1},
		{"/about", OutcomeDegraded, 0},
	}
	for _, tt := range tests {
		var metric dto.Metric
		if err := m.requests.WithLabelValues(tt.pattern, tt.outcome).Write(&metric); err != nil {
			t.Fatal(err)
		}
		if got := metric.GetCounter().GetValue(); got != tt.want {
			t.Errorf("requests{%s,%s} = %v, want %v", tt.pattern, tt.outcome, got, tt.want)
		}
	}
}

func TestPattern(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"", "/"},
		{"/about", "/about"},
		{"/user/:id", "/user/{id}"},
		{"/post/:slug/comments/:page-no", "/post/{slug}/comments/{page-no}"},
	}
	for _, tt := range tests {
		if got := Pattern(tt.path); got != tt.want {
			t.Errorf("Pattern(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
