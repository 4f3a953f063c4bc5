package deferred

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "pageroutes"

// InstrumentationConfig configures load metrics and tracing.
type InstrumentationConfig struct {
	// Namespace is the metrics namespace (default: "pageroutes").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for load duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer

	// TracerProvider supplies the tracer.
	// Default: the global OpenTelemetry provider.
	TracerProvider trace.TracerProvider

	// TracerName is the name of the tracer (default: "pageroutes").
	TracerName string
}

// InstrumentationOption configures an Instrumentation.
type InstrumentationOption func(*InstrumentationConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) InstrumentationOption {
	return func(c *InstrumentationConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) InstrumentationOption {
	return func(c *InstrumentationConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) InstrumentationOption {
	return func(c *InstrumentationConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) InstrumentationOption {
	return func(c *InstrumentationConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) InstrumentationOption {
	return func(c *InstrumentationConfig) {
		c.Registry = registry
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) InstrumentationOption {
	return func(c *InstrumentationConfig) {
		c.TracerProvider = tp
	}
}

func defaultInstrumentationConfig() InstrumentationConfig {
	return InstrumentationConfig{
		Namespace:  "pageroutes",
		Buckets:    prometheus.DefBuckets,
		Registry:   prometheus.DefaultRegisterer,
		TracerName: defaultTracerName,
	}
}

// Instrumentation records metrics and spans for element loads.
// A nil *Instrumentation records nothing.
type Instrumentation struct {
	loadsTotal     *prometheus.CounterVec
	loadDuration   prometheus.Histogram
	loadsDiscarded prometheus.Counter
	inflight       prometheus.Gauge
	tracer         trace.Tracer
}

// NewInstrumentation registers the load collectors with the configured
// registry. Registering twice against the same registry panics, so build
// one Instrumentation per registry and share it between elements.
//
// Metrics collected:
//   - pageroutes_loads_total: loads by result (ready, failed)
//   - pageroutes_load_duration_seconds: loader call duration
//   - pageroutes_loads_discarded_total: orphaned loads whose result was dropped
//   - pageroutes_inflight_loads: loader calls currently running
func NewInstrumentation(opts ...InstrumentationOption) *Instrumentation {
	config := defaultInstrumentationConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &Instrumentation{
		loadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "loads_total",
			Help:        "Total number of completed element loads",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		loadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "load_duration_seconds",
			Help:        "Element loader duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		loadsDiscarded: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "loads_discarded_total",
			Help:        "Total number of loads discarded after every activation left",
			ConstLabels: config.ConstLabels,
		}),

		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "inflight_loads",
			Help:        "Number of element loads currently running",
			ConstLabels: config.ConstLabels,
		}),

		tracer: tp.Tracer(config.TracerName),
	}
}

// begin starts a span and returns the function that records the outcome.
func (in *Instrumentation) begin(ctx context.Context, name string) (context.Context, func(err error, discarded bool, elapsed time.Duration)) {
	if in == nil {
		return ctx, func(error, bool, time.Duration) {}
	}

	in.inflight.Inc()
	ctx, span := in.tracer.Start(ctx, "pageroutes.load",
		trace.WithAttributes(attribute.String("pageroutes.element", name)),
	)

	return ctx, func(err error, discarded bool, elapsed time.Duration) {
		in.inflight.Dec()
		in.loadDuration.Observe(elapsed.Seconds())

		switch {
		case discarded:
			in.loadsDiscarded.Inc()
			span.SetAttributes(attribute.Bool("pageroutes.discarded", true))
		case err != nil:
			in.loadsTotal.WithLabelValues("failed").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		default:
			in.loadsTotal.WithLabelValues("ready").Inc()
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}
