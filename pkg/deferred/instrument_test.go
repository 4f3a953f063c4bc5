package deferred

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func newTestInstrumentation(t *testing.T) (*Instrumentation, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	in := NewInstrumentation(
		WithRegistry(prometheus.NewRegistry()),
		WithTracerProvider(tp),
	)
	return in, recorder
}

func TestInstrumentation_RecordsReadyAndFailed(t *testing.T) {
	in, recorder := newTestInstrumentation(t)

	ok := Wrap(func(ctx context.Context) (Component, error) {
		return "page", nil
	}, WithName("/pages/$index.tsx"), WithInstrumentation(in))
	bad := Wrap(func(ctx context.Context) (Component, error) {
		return nil, errors.New("boom")
	}, WithName("/pages/broken.tsx"), WithInstrumentation(in))

	if _, err := ok.Activate(context.Background()).Wait(waitCtx(t)); err != nil {
		t.Fatalf("ok Wait() error = %v", err)
	}
	if _, err := bad.Activate(context.Background()).Wait(waitCtx(t)); err == nil {
		t.Fatal("bad Wait() error = nil")
	}
	waitLoad(t, ok)
	waitLoad(t, bad)

	if got := metricCounterValue(t, in.loadsTotal.WithLabelValues("ready")); got != 1 {
		t.Errorf("loads_total{ready} = %v, want 1", got)
	}
	if got := metricCounterValue(t, in.loadsTotal.WithLabelValues("failed")); got != 1 {
		t.Errorf("loads_total{failed} = %v, want 1", got)
	}
	if got := metricHistogramCount(t, in.loadDuration); got != 2 {
		t.Errorf("load_duration_seconds count = %d, want 2", got)
	}
	if got := metricGaugeValue(t, in.inflight); got != 0 {
		t.Errorf("inflight_loads = %v, want 0", got)
	}

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("ended spans = %d, want 2", len(spans))
	}
	var sawError bool
	for _, s := range spans {
		if s.Name() != "pageroutes.load" {
			t.Errorf("span name = %q", s.Name())
		}
		if s.Status().Code == codes.Error {
			sawError = true
		}
	}
	if !sawError {
		t.Error("expected one span with error status")
	}
}

func TestInstrumentation_RecordsDiscarded(t *testing.T) {
	in, _ := newTestInstrumentation(t)

	g := newGate()
	el := Wrap(g.loader("page", nil), WithInstrumentation(in))

	el.Activate(context.Background()).Deactivate()
	g.open()
	waitLoad(t, el)

	if got := metricCounterValue(t, in.loadsDiscarded); got != 1 {
		t.Errorf("loads_discarded_total = %v, want 1", got)
	}
	if got := metricCounterValue(t, in.loadsTotal.WithLabelValues("ready")); got != 0 {
		t.Errorf("loads_total{ready} = %v, want 0", got)
	}
}

func TestInstrumentation_NilIsNoop(t *testing.T) {
	var in *Instrumentation
	ctx, finish := in.begin(context.Background(), "x")
	if ctx == nil {
		t.Fatal("begin() returned nil context")
	}
	finish(nil, false, 0)
}
