package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/humus-dev/humus/pkg/host"
	"github.com/humus-dev/humus/pkg/patch"
	"github.com/humus-dev/humus/pkg/vdom"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "humus"

// Session renders successive trees into a host root.
type Session struct {
	id        string
	adapter   host.Adapter
	logger    *slog.Logger
	validate  bool
	hook      host.Hook
	observers []Observer
	metrics   *Metrics
	tracer    trace.Tracer

	// renderMu serializes Render.
	renderMu sync.Mutex

	// mu guards the fields below for readers outside Render.
	mu      sync.RWMutex
	root    host.Handle
	current *vdom.VNode
	seq     uint64
	stale   bool
}

// New creates a session that renders through a.
// The baseline starts out Empty and no root is mounted.
func New(a host.Adapter, opts ...Option) *Session {
	s := &Session{adapter: a}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.logger == nil {
		s.logger = slog.Default().With("component", "session")
	}
	s.logger = s.logger.With("session_id", s.id)
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// Current returns the baseline tree. Nil means Empty.
func (s *Session) Current() *vdom.VNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Root returns the root of the last render, or nil.
func (s *Session) Root() host.Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

// Seq returns the number of renders that produced a new baseline.
func (s *Session) Seq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

// Render brings the host tree under root in line with next.
//
// With validation enabled an invalid tree is rejected before anything is
// touched. Host failures do not fail the render: next becomes the baseline
// and the failures are reported in the returned Report. A structural failure
// is returned as an error; the session then drops its baseline and the next
// Render remounts from scratch.
func (s *Session) Render(ctx context.Context, root host.Handle, next *vdom.VNode) (*patch.Report, error) {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "session.Render",
		trace.WithAttributes(attribute.String("humus.session.id", s.id)))
	defer span.End()

	if s.validate {
		if err := vdom.Validate(next); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid tree")
			s.metrics.observe(resultInvalid, nil, 0, 0, time.Since(start))
			s.logger.Warn("render rejected", "error", err)
			return nil, err
		}
	}

	s.mu.RLock()
	prev, prevRoot, stale := s.current, s.root, s.stale
	s.mu.RUnlock()

	mount := true
	switch {
	case prevRoot == nil:
	case prevRoot != root:
		s.logger.Debug("root changed, remounting")
	case stale:
		s.logger.Debug("clearing root after structural failure")
		s.clear(root)
	default:
		mount = false
	}
	if mount {
		prev = nil
	}

	script := vdom.Diff(prev, next)
	if mount && len(script) == 0 {
		// An Empty mount still occupies slot 0, as it would anywhere else.
		script = vdom.EditScript{{Op: vdom.PatchReplace, Path: vdom.Path{}, Node: vdom.Empty()}}
	}
	span.SetAttributes(attribute.Int("humus.patch.count", len(script)))

	report, err := patch.Apply(s.adapter, root, script,
		patch.WithMaterializeHook(s.hook),
		patch.WithLogger(s.logger))
	elapsed := time.Since(start)

	if err != nil {
		s.mu.Lock()
		s.root = root
		s.current = nil
		s.stale = true
		s.mu.Unlock()

		span.RecordError(err)
		span.SetStatus(codes.Error, "structural failure")
		s.metrics.observe(resultStructural, script, report.Applied, len(report.Failures), elapsed)
		s.logger.Error("render aborted", "error", err, "applied", report.Applied)
		return report, err
	}

	s.mu.Lock()
	s.root = root
	s.current = next
	s.stale = false
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	result := resultOK
	if !report.OK() {
		result = resultHostError
		span.SetAttributes(attribute.Int("humus.host_errors", len(report.Failures)))
	}
	s.metrics.observe(result, script, report.Applied, len(report.Failures), elapsed)

	s.logger.Debug("rendered",
		"seq", seq,
		"patches", len(script),
		"host_errors", len(report.Failures),
		"duration", elapsed)

	u := Update{SessionID: s.id, Seq: seq, Tree: next, Script: script}
	for _, o := range s.observers {
		o.Rendered(ctx, u)
	}
	return report, nil
}

// clear removes every child of root. Failures are logged; the remount that
// follows replaces slot 0 regardless.
func (s *Session) clear(root host.Handle) {
	children, err := s.adapter.ChildNodes(root)
	if err != nil {
		s.logger.Warn("cannot list root children", "error", err)
		return
	}
	for _, c := range children {
		if err := s.adapter.RemoveChild(root, c); err != nil {
			s.logger.Warn("cannot remove root child", "error", err)
		}
	}
}
