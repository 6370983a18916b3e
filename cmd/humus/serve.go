package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/humus-dev/humus/internal/config"
	"github.com/humus-dev/humus/pkg/host"
	"github.com/humus-dev/humus/pkg/session"
	"github.com/humus-dev/humus/pkg/snapshot"
	"github.com/humus-dev/humus/pkg/stream"
	"github.com/humus-dev/humus/pkg/vdom"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		port       int
		host       string
		interval   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Stream a demo session over WebSocket",
		Long: `Run a demo session that re-renders a keyed task board on a timer
and streams every edit script to connected mirrors.

Endpoints:
  /ws       binary frame stream
  /html     server-side HTML of the live tree
  /healthz  liveness probe
  /metrics  Prometheus metrics (when metrics.enabled)

Examples:
  humus serve
  humus serve --config humus.json
  humus serve --port=8080 --interval=250ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, interval)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.ConfigFileName, "Path to config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().DurationVarP(&interval, "interval", "i", time.Second, "Demo render interval")

	return cmd
}

// loadConfig reads path. A missing default config file yields defaults; a
// missing file named explicitly is an error.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.LoadFile(path)
	if err == nil {
		return cfg, nil
	}
	if !explicit && errors.Is(err, os.ErrNotExist) {
		return config.New(), nil
	}
	return nil, err
}

// openStore builds the snapshot store selected by cfg, or nil.
func openStore(ctx context.Context, cfg *config.Config) (snapshot.Store, error) {
	switch cfg.Snapshot.Backend {
	case config.BackendNone:
		return nil, nil
	case config.BackendMemory:
		return snapshot.NewMemoryStore(), nil
	case config.BackendS3:
		client, err := snapshot.NewS3Client(ctx, snapshot.S3Options{
			Region:    cfg.Snapshot.Region,
			Endpoint:  cfg.Snapshot.Endpoint,
			PathStyle: cfg.Snapshot.PathStyle,
			Profile:   cfg.Snapshot.Profile,
		})
		if err != nil {
			return nil, err
		}
		return snapshot.NewS3Store(client, cfg.Snapshot.Bucket, cfg.Snapshot.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Snapshot.Backend)
	}
}

// demo owns the live host tree. mu serializes renders with HTML reads.
type demo struct {
	mu   sync.Mutex
	root *host.Node
	sess *session.Session
}

func (d *demo) render(ctx context.Context, tree *vdom.VNode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.sess.Render(ctx, d.root, tree)
	return err
}

func (d *demo) html() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.root.InnerHTML()
}

func runServe(ctx context.Context, cfg *config.Config, interval time.Duration) error {
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	writeTimeout, err := cfg.WriteTimeout()
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	hubOpts := []stream.Option{
		stream.WithLogger(logger.With("component", "stream")),
		stream.WithWriteTimeout(writeTimeout),
		stream.WithSendQueue(cfg.Server.SendQueue),
	}
	if store != nil {
		hubOpts = append(hubOpts, stream.WithStore(store, cfg.Snapshot.Key))
		defer store.Close()
	}

	sessOpts := []session.Option{
		session.WithLogger(logger.With("component", "session")),
		session.WithValidation(cfg.Session.Validate),
	}
	if cfg.Session.ID != "" {
		sessOpts = append(sessOpts, session.WithID(cfg.Session.ID))
	}

	var gatherer prometheus.Gatherer
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		sessOpts = append(sessOpts, session.WithMetrics(session.NewMetrics(session.MetricsConfig{
			Namespace: cfg.Metrics.Namespace,
			Registry:  reg,
		})))
		hubOpts = append(hubOpts, stream.WithMetrics(stream.NewMetrics(reg, cfg.Metrics.Namespace)))
		gatherer = reg
	}

	hub := stream.NewHub(hubOpts...)
	sessOpts = append(sessOpts, session.WithObserver(hub))

	doc := host.NewDocument()
	d := &demo{
		root: doc.CreateRoot("body"),
		sess: session.New(doc, sessOpts...),
	}

	tick := 0
	if store != nil {
		tf, err := snapshot.LoadTree(ctx, store, cfg.Snapshot.Key)
		if err != nil {
			logger.Warn("snapshot restore failed", "error", err)
		} else if tf != nil {
			if err := d.render(ctx, tf.Tree); err != nil {
				logger.Warn("snapshot render failed", "error", err)
			} else {
				logger.Info("snapshot restored", "seq", tf.Seq, "key", cfg.Snapshot.Key)
				tick = int(tf.Seq)
			}
		}
	}
	if d.sess.Current() == nil {
		if err := d.render(ctx, board(tick)); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr: cfg.Address(),
		Handler: stream.NewRouter(hub, stream.RouterOptions{
			Gatherer: gatherer,
			HTML:     d.html,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	success("Streaming session %s", d.sess.ID())
	info("http://%s/html", cfg.Address())
	info("ws://%s/ws", cfg.Address())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ticker.C:
			tick++
			if err := d.render(ctx, board(tick)); err != nil {
				logger.Error("render failed", "tick", tick, "error", err)
			}
		case err, ok := <-errCh:
			if ok {
				hub.Close()
				return err
			}
			break loop
		case <-ctx.Done():
			break loop
		}
	}

	fmt.Println("\n  Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Close the hub first so hijacked WebSocket connections are released.
	hub.Close()
	return srv.Shutdown(shutdownCtx)
}
