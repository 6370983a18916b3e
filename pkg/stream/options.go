package stream

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/humus-dev/humus/pkg/snapshot"
)

// Defaults for Hub options.
const (
	DefaultWriteTimeout = 10 * time.Second
	DefaultSendQueue    = 16
	DefaultPingInterval = 30 * time.Second
	DefaultSnapshotKey  = "latest"
)

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

// WithWriteTimeout bounds each WebSocket write.
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) {
		h.writeTimeout = d
	}
}

// WithSendQueue sets how many frames are buffered per client.
func WithSendQueue(n int) Option {
	return func(h *Hub) {
		h.sendQueue = n
	}
}

// WithPingInterval sets how often idle clients are pinged. Zero disables pings.
func WithPingInterval(d time.Duration) Option {
	return func(h *Hub) {
		h.pingInterval = d
	}
}

// WithStore persists the latest tree to store under key after every render.
func WithStore(store snapshot.Store, key string) Option {
	return func(h *Hub) {
		h.store = store
		h.snapshotKey = key
	}
}

// WithCheckOrigin sets the WebSocket origin check.
// Default: same-origin only, as in gorilla/websocket.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = fn
	}
}

// WithMetrics records hub metrics.
func WithMetrics(m *Metrics) Option {
	return func(h *Hub) {
		h.metrics = m
	}
}
