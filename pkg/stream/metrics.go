package stream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of a Hub.
type Metrics struct {
	clients    prometheus.Gauge
	framesSent prometheus.Counter
	bytesSent  prometheus.Counter
	resyncs    prometheus.Counter
}

// NewMetrics registers the hub collectors with reg under namespace:
//
//   - <namespace>_stream_clients: connected clients
//   - <namespace>_stream_frames_sent_total: frames written to clients
//   - <namespace>_stream_bytes_sent_total: bytes written to clients
//   - <namespace>_stream_resyncs_total: full-tree frames sent to lagging or new clients
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		clients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "clients",
			Help:      "Number of connected stream clients",
		}),
		framesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "frames_sent_total",
			Help:      "Total number of frames written to clients",
		}),
		bytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "bytes_sent_total",
			Help:      "Total number of bytes written to clients",
		}),
		resyncs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "resyncs_total",
			Help:      "Total number of full-tree frames sent",
		}),
	}
}

func (m *Metrics) clientAdded() {
	if m != nil {
		m.clients.Inc()
	}
}

func (m *Metrics) clientRemoved() {
	if m != nil {
		m.clients.Dec()
	}
}

func (m *Metrics) sent(n int) {
	if m != nil {
		m.framesSent.Inc()
		m.bytesSent.Add(float64(n))
	}
}

func (m *Metrics) resync() {
	if m != nil {
		m.resyncs.Inc()
	}
}
