package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"

	"github.com/humus-dev/humus/pkg/host"
	"github.com/humus-dev/humus/pkg/session"
	"github.com/humus-dev/humus/pkg/stream"
	"github.com/humus-dev/humus/pkg/vdom"
)

type profile struct {
	Name     string
	Clients  int
	Duration time.Duration
	Rate     float64
	ListSize int
}

var profiles = map[string]profile{
	"fast": {
		Name:     "fast",
		Clients:  10,
		Duration: 5 * time.Second,
		Rate:     20,
		ListSize: 20,
	},
	"standard": {
		Name:     "standard",
		Clients:  100,
		Duration: 30 * time.Second,
		Rate:     20,
		ListSize: 100,
	},
	"stress": {
		Name:     "stress",
		Clients:  500,
		Duration: 60 * time.Second,
		Rate:     50,
		ListSize: 500,
	},
}

type benchConfig struct {
	profile
	JSONOutput string
	Timeout    time.Duration
}

func benchCmd() *cobra.Command {
	var (
		profileName string
		override    profile
		jsonOut     string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure end-to-end render and streaming cost",
		Long: `Run an in-process hub on a loopback port, connect mirror clients, and
render a keyed list at a fixed rate. Each render is timed until every
mirror has applied it; at the end every mirror is compared to the
server tree.

Examples:
  humus bench --profile fast
  humus bench --clients 200 --list 1000 --json report.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := profiles[profileName]
			if !ok {
				return fmt.Errorf("unknown profile %q (fast, standard, stress)", profileName)
			}
			if override.Clients > 0 {
				p.Clients = override.Clients
			}
			if override.Duration > 0 {
				p.Duration = override.Duration
			}
			if override.Rate > 0 {
				p.Rate = override.Rate
			}
			if override.ListSize > 0 {
				p.ListSize = override.ListSize
			}

			cfg := benchConfig{profile: p, JSONOutput: jsonOut, Timeout: 5 * time.Second}
			report, err := runBench(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			writeSummary(cmd.ErrOrStderr(), report)
			return writeJSON(cmd.OutOrStdout(), cfg.JSONOutput, report)
		},
	}

	cmd.Flags().StringVar(&profileName, "profile", "fast", "profile: fast|standard|stress")
	cmd.Flags().IntVar(&override.Clients, "clients", 0, "number of mirror clients")
	cmd.Flags().DurationVar(&override.Duration, "duration", 0, "benchmark duration, e.g. 30s")
	cmd.Flags().Float64Var(&override.Rate, "rate", 0, "renders per second")
	cmd.Flags().IntVar(&override.ListSize, "list", 0, "keyed list size")
	cmd.Flags().StringVar(&jsonOut, "json", "", "JSON report path ('-' for stdout)")

	return cmd
}

type benchReport struct {
	Version    string         `json:"version"`
	Run        runInfo        `json:"run"`
	Workload   workloadInfo   `json:"workload"`
	LatencyMS  latencyInfo    `json:"latency_ms"`
	Throughput throughputInfo `json:"throughput"`
	Protocol   protocolInfo   `json:"protocol"`
	Errors     errorInfo      `json:"errors"`
}

type runInfo struct {
	Timestamp string `json:"timestamp"`
	Go        string `json:"go"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPUs      int    `json:"cpus"`
}

type workloadInfo struct {
	Profile    string  `json:"profile"`
	Clients    int     `json:"clients"`
	DurationMS int64   `json:"duration_ms"`
	Rate       float64 `json:"rate"`
	ListSize   int     `json:"list_size"`
}

type latencyInfo struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

type throughputInfo struct {
	Renders       int     `json:"renders"`
	RendersPerSec float64 `json:"renders_per_sec"`
	FramesSent    uint64  `json:"frames_sent"`
	BytesSent     uint64  `json:"bytes_sent"`
}

type protocolInfo struct {
	PatchesPerRender float64 `json:"patches_per_render"`
	BytesPerFrame    float64 `json:"bytes_per_frame"`
	Resyncs          uint64  `json:"resyncs"`
}

type errorInfo struct {
	RenderErrors     int `json:"render_errors"`
	ConvergeTimeouts int `json:"converge_timeouts"`
	Diverged         int `json:"diverged"`
}

func runBench(ctx context.Context, cfg benchConfig) (benchReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()

	hub := stream.NewHub(
		stream.WithLogger(logger),
		stream.WithSendQueue(64),
		stream.WithMetrics(stream.NewMetrics(reg, "bench")),
		stream.WithCheckOrigin(func(r *http.Request) bool { return true }),
	)
	defer hub.Close()

	doc := host.NewDocument()
	root := doc.CreateRoot("body")
	sess := session.New(doc,
		session.WithLogger(logger),
		session.WithObserver(hub),
		session.WithMetrics(session.NewMetrics(session.MetricsConfig{Namespace: "bench", Registry: reg})),
	)

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		return benchReport{}, fmt.Errorf("listen: %w", err)
	}
	srv := &http.Server{Handler: stream.NewRouter(hub, stream.RouterOptions{})}
	go srv.Serve(ln)
	defer srv.Shutdown(context.Background())

	wsURL := "ws://" + ln.Addr().String() + "/ws"
	mirrors := make([]*stream.Mirror, 0, cfg.Clients)
	for i := 0; i < cfg.Clients; i++ {
		m, err := stream.Dial(ctx, wsURL, logger)
		if err != nil {
			return benchReport{}, err
		}
		defer m.Close()
		go m.Run(ctx)
		mirrors = append(mirrors, m)
	}

	var (
		latencies []time.Duration
		errs      errorInfo
		tick      int
	)
	interval := time.Duration(float64(time.Second) / cfg.Rate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	deadline := time.After(cfg.Duration)
	start := time.Now()

loop:
	for {
		select {
		case <-ticker.C:
			tick++
			began := time.Now()
			if _, err := sess.Render(ctx, root, loadTree(tick, cfg.ListSize)); err != nil {
				errs.RenderErrors++
				continue
			}
			if !converge(ctx, mirrors, sess.Seq(), cfg.Timeout) {
				errs.ConvergeTimeouts++
				continue
			}
			latencies = append(latencies, time.Since(began))
		case <-deadline:
			break loop
		case <-ctx.Done():
			break loop
		}
	}
	elapsed := time.Since(start)

	want := root.InnerHTML()
	for _, m := range mirrors {
		if m.HTML() != want {
			errs.Diverged++
		}
	}

	families, err := reg.Gather()
	if err != nil {
		return benchReport{}, err
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	return buildReport(cfg, elapsed, tick, latencies, families, errs), nil
}

// converge waits until every mirror has applied seq.
func converge(ctx context.Context, mirrors []*stream.Mirror, seq uint64, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	for _, m := range mirrors {
		if err := m.WaitSeq(ctx, seq); err != nil {
			return false
		}
	}
	return true
}

// loadTree renders a keyed list of n items. Every tick rewrites one item and
// every tenth tick rotates the list by one.
func loadTree(tick, n int) *vdom.VNode {
	shift := tick / 10
	changed := int(fnv1a32(fmt.Sprint(tick)) % uint32(max(n, 1)))
	return vdom.Div(
		vdom.Div(vdom.ID("tick"), vdom.Textf("%d", tick)),
		vdom.Ul(vdom.Range(make([]struct{}, n), func(i int, _ struct{}) *vdom.VNode {
			idx := (i + shift) % n
			text := fmt.Sprintf("Item %d", idx)
			if idx == changed {
				text = fmt.Sprintf("Item %d @%d", idx, tick)
			}
			return vdom.Li(vdom.Key(fmt.Sprint(idx)), text)
		})),
	)
}

func fnv1a32(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	var h uint32 = offset32
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}

// metricSum adds up every sample of the named counter or gauge.
func metricSum(families []*dto.MetricFamily, name string) float64 {
	var sum float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			sum += m.GetCounter().GetValue() + m.GetGauge().GetValue()
		}
	}
	return sum
}

func buildReport(cfg benchConfig, elapsed time.Duration, renders int, latencies []time.Duration, families []*dto.MetricFamily, errs errorInfo) benchReport {
	frames := uint64(metricSum(families, "bench_stream_frames_sent_total"))
	bytes := uint64(metricSum(families, "bench_stream_bytes_sent_total"))
	patches := metricSum(families, "bench_session_patch_ops_total")

	report := benchReport{
		Version: version,
		Run: runInfo{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Go:        runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			CPUs:      runtime.NumCPU(),
		},
		Workload: workloadInfo{
			Profile:    cfg.Name,
			Clients:    cfg.Clients,
			DurationMS: cfg.Duration.Milliseconds(),
			Rate:       cfg.Rate,
			ListSize:   cfg.ListSize,
		},
		LatencyMS: latencyInfo{
			Min: ms(percentile(latencies, 0)),
			P50: ms(percentile(latencies, 0.50)),
			P95: ms(percentile(latencies, 0.95)),
			P99: ms(percentile(latencies, 0.99)),
			Max: ms(percentile(latencies, 1)),
		},
		Throughput: throughputInfo{
			Renders:    renders,
			FramesSent: frames,
			BytesSent:  bytes,
		},
		Protocol: protocolInfo{
			Resyncs: uint64(metricSum(families, "bench_stream_resyncs_total")),
		},
		Errors: errs,
	}
	if elapsed > 0 {
		report.Throughput.RendersPerSec = float64(renders) / elapsed.Seconds()
	}
	if renders > 0 {
		report.Protocol.PatchesPerRender = patches / float64(renders)
	}
	if frames > 0 {
		report.Protocol.BytesPerFrame = float64(bytes) / float64(frames)
	}
	return report
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func writeSummary(w io.Writer, report benchReport) {
	fmt.Fprintln(w, "=== humus bench ===")
	fmt.Fprintf(w, "Profile: %s\n", report.Workload.Profile)
	fmt.Fprintf(w, "Clients: %d\n", report.Workload.Clients)
	fmt.Fprintf(w, "Duration: %s\n", time.Duration(report.Workload.DurationMS)*time.Millisecond)
	fmt.Fprintf(w, "Target rate: %.1f renders/s\n", report.Workload.Rate)
	fmt.Fprintf(w, "List size: %d\n", report.Workload.ListSize)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Renders: %d (%.1f/s)\n", report.Throughput.Renders, report.Throughput.RendersPerSec)
	fmt.Fprintf(w, "Frames sent: %d (%d bytes)\n", report.Throughput.FramesSent, report.Throughput.BytesSent)
	fmt.Fprintf(w, "Errors: render=%d timeout=%d diverged=%d\n",
		report.Errors.RenderErrors, report.Errors.ConvergeTimeouts, report.Errors.Diverged)
	fmt.Fprintln(w)

	if report.LatencyMS.Max == 0 {
		fmt.Fprintln(w, "No latency samples recorded.")
	} else {
		fmt.Fprintln(w, "Render to all mirrors applied:")
		fmt.Fprintf(w, "  min: %.2f ms\n", report.LatencyMS.Min)
		fmt.Fprintf(w, "  p50: %.2f ms\n", report.LatencyMS.P50)
		fmt.Fprintf(w, "  p95: %.2f ms\n", report.LatencyMS.P95)
		fmt.Fprintf(w, "  p99: %.2f ms\n", report.LatencyMS.P99)
		fmt.Fprintf(w, "  max: %.2f ms\n", report.LatencyMS.Max)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Protocol:")
	fmt.Fprintf(w, "  patches/render: %.2f\n", report.Protocol.PatchesPerRender)
	fmt.Fprintf(w, "  bytes/frame:    %.1f\n", report.Protocol.BytesPerFrame)
	fmt.Fprintf(w, "  resyncs:        %d\n", report.Protocol.Resyncs)
}

// writeJSON writes report to path, or to stdout for "-". An empty path
// writes nothing.
func writeJSON(stdout io.Writer, path string, report benchReport) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	out := stdout
	if path != "-" {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
