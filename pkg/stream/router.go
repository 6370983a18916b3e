package stream

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer

	// HTML serves the server-side tree at /html when set.
	HTML func() string
}

// NewRouter mounts the hub and its companion endpoints:
//
//	GET /ws       WebSocket stream
//	GET /healthz  liveness probe
//	GET /metrics  Prometheus metrics (with Gatherer)
//	GET /html     current server HTML (with HTML)
func NewRouter(hub *Hub, opts RouterOptions) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ws", hub.ServeHTTP)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "ok")
	})

	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	if opts.HTML != nil {
		r.Get("/html", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			io.WriteString(w, opts.HTML())
		})
	}

	return r
}
