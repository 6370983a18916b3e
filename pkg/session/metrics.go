package session

import (
	"time"

	"github.com/humus-dev/humus/pkg/vdom"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Render outcomes, used as the "result" label of renders_total.
const (
	resultOK         = "ok"
	resultHostError  = "host_error"
	resultStructural = "structural"
	resultInvalid    = "invalid"
)

// MetricsConfig configures session metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "humus").
	Namespace string

	// Subsystem is the metrics subsystem (default: "session").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Metrics holds the Prometheus collectors shared by sessions.
// One Metrics value may be passed to any number of sessions.
type Metrics struct {
	renders          *prometheus.CounterVec
	patchOps         *prometheus.CounterVec
	hostErrors       prometheus.Counter
	structuralErrors prometheus.Counter
	renderDuration   prometheus.Histogram
}

// NewMetrics registers the session collectors:
//
//   - humus_session_renders_total: renders by result
//   - humus_session_patch_ops_total: applied patches by op
//   - humus_session_host_errors_total: host operations that failed
//   - humus_session_structural_errors_total: renders aborted by a structural mismatch
//   - humus_session_render_duration_seconds: render latency
func NewMetrics(config MetricsConfig) *Metrics {
	if config.Namespace == "" {
		config.Namespace = "humus"
	}
	if config.Subsystem == "" {
		config.Subsystem = "session"
	}
	if config.Buckets == nil {
		config.Buckets = prometheus.DefBuckets
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		renders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_total",
			Help:        "Total number of renders by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		patchOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patch_ops_total",
			Help:        "Total number of patches applied by operation",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		hostErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "host_errors_total",
			Help:        "Total number of failed host operations",
			ConstLabels: config.ConstLabels,
		}),

		structuralErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "structural_errors_total",
			Help:        "Total number of renders aborted because the host tree diverged",
			ConstLabels: config.ConstLabels,
		}),

		renderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Render duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
	}
}

// observe records one render. Nil-safe.
func (m *Metrics) observe(result string, script vdom.EditScript, applied, hostErrors int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(result).Inc()
	m.renderDuration.Observe(elapsed.Seconds())
	for _, p := range script[:applied] {
		m.patchOps.WithLabelValues(p.Op.String()).Inc()
	}
	if hostErrors > 0 {
		m.hostErrors.Add(float64(hostErrors))
	}
	if result == resultStructural {
		m.structuralErrors.Inc()
	}
}
