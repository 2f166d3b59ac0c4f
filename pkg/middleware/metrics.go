package middleware

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lumen-dev/lumen/pkg/store"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "lumen").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for middleware run duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace:   "lumen",
		Subsystem:   "",
		ConstLabels: nil,
		Buckets:     prometheus.DefBuckets,
		Registry:    prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors for store observation.
// Create one Metrics per registry; registering the same collectors twice
// panics, so reuse the instance across middlewares.
type Metrics struct {
	updatesTotal prometheus.Counter
	stateKeys    prometheus.Gauge
	runDuration  *prometheus.HistogramVec
	runErrors    *prometheus.CounterVec
}

// NewMetrics registers the store collectors and returns them.
//
// Metrics registered:
//   - lumen_updates_total: Counter of effective state updates
//   - lumen_state_keys: Gauge of keys in the current state
//   - lumen_middleware_run_duration_seconds: Histogram of wrapped
//     middleware run duration, by middleware name
//   - lumen_middleware_run_errors_total: Counter of wrapped middleware
//     failures, by middleware name
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		updatesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "updates_total",
			Help:        "Total number of effective state updates",
			ConstLabels: config.ConstLabels,
		}),

		stateKeys: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "state_keys",
			Help:        "Number of top-level keys in the current state",
			ConstLabels: config.ConstLabels,
		}),

		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "middleware_run_duration_seconds",
			Help:        "Middleware run duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"middleware"}),

		runErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "middleware_run_errors_total",
			Help:        "Total number of middleware run failures",
			ConstLabels: config.ConstLabels,
		}, []string{"middleware"}),
	}
}

// Middleware returns middleware that records every update.
func (m *Metrics) Middleware() Middleware {
	return func(_ context.Context, state store.State) error {
		m.updatesTotal.Inc()
		m.stateKeys.Set(float64(len(state)))
		return nil
	}
}

// Observe wraps next with duration and error collection under the given
// middleware name.
func (m *Metrics) Observe(name string, next Middleware) Middleware {
	return func(ctx context.Context, state store.State) error {
		start := time.Now()
		err := next(ctx, state)
		m.runDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		if err != nil {
			m.runErrors.WithLabelValues(name).Inc()
		}
		return err
	}
}

// Prometheus returns update-recording middleware on a fresh Metrics
// instance. Call it at most once per registry; use NewMetrics directly
// when the collectors must be shared with Observe.
//
// Example:
//
//	middleware.Apply(s,
//	    middleware.Prometheus(middleware.WithNamespace("myapp")),
//	)
//
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) Middleware {
	return NewMetrics(opts...).Middleware()
}
