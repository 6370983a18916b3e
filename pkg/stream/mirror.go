package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/humus-dev/humus/pkg/host"
	"github.com/humus-dev/humus/pkg/patch"
	"github.com/humus-dev/humus/pkg/protocol"
)

// Mirror replays a hub's frames into an in-memory host tree.
type Mirror struct {
	doc    *host.Document
	root   *host.Node
	logger *slog.Logger
	conn   *websocket.Conn

	mu      sync.Mutex
	seq     uint64
	synced  bool
	changed chan struct{}
}

// NewMirror creates a mirror with an empty tree, in sync with a session
// that has not rendered yet. Feed it frames with Apply, or use Dial to
// connect it to a hub.
func NewMirror(logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default().With("component", "mirror")
	}
	doc := host.NewDocument()
	return &Mirror{
		doc:     doc,
		root:    doc.CreateRoot("body"),
		logger:  logger,
		synced:  true,
		changed: make(chan struct{}),
	}
}

// Dial connects a new mirror to the hub at url (ws:// or wss://).
// Call Run to start receiving.
func Dial(ctx context.Context, url string, logger *slog.Logger) (*Mirror, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("stream: dial %s: %w", url, err)
	}
	m := NewMirror(logger)
	m.conn = conn
	return m, nil
}

// Run applies incoming frames until the connection closes or ctx is done.
// A normal close by the hub returns nil.
func (m *Mirror) Run(ctx context.Context) error {
	if m.conn == nil {
		return errors.New("stream: mirror is not connected")
	}

	stop := context.AfterFunc(ctx, func() {
		m.conn.Close()
	})
	defer stop()

	for {
		_, msg, err := m.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
				errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := m.Apply(msg); err != nil {
			m.logger.Warn("frame rejected", "error", err)
		}
	}
}

// Apply decodes one frame and applies its patches.
//
// Script frames older than the current state are ignored. A structural
// failure leaves the mirror out of sync until the next resync frame.
func (m *Mirror) Apply(data []byte) error {
	frame, err := protocol.DecodeFrame(data)
	if err != nil {
		return err
	}
	if frame.Type != protocol.FrameScript {
		return fmt.Errorf("%w: %s", protocol.ErrInvalidFrameType, frame.Type)
	}
	sf, err := protocol.DecodeScript(frame.Payload)
	if err != nil {
		return err
	}
	resync := frame.Flags.Has(protocol.FlagResync)

	m.mu.Lock()
	defer m.mu.Unlock()

	if !resync {
		if !m.synced {
			return fmt.Errorf("stream: script %d while out of sync", sf.Seq)
		}
		if sf.Seq <= m.seq {
			return nil
		}
	}

	report, err := patch.Apply(m.doc, m.root, sf.Patches, patch.WithLogger(m.logger))
	if err != nil {
		m.synced = false
		return err
	}
	if !report.OK() {
		m.logger.Warn("host failures while mirroring", "seq", sf.Seq, "error", report.Err())
	}

	m.seq = sf.Seq
	m.synced = true
	close(m.changed)
	m.changed = make(chan struct{})
	return nil
}

// Seq returns the sequence number of the last applied frame.
func (m *Mirror) Seq() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq
}

// HTML returns the mirrored tree serialized as HTML.
func (m *Mirror) HTML() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.root.InnerHTML()
}

// WaitSeq blocks until a frame with sequence number seq or later has been
// applied.
func (m *Mirror) WaitSeq(ctx context.Context, seq uint64) error {
	for {
		m.mu.Lock()
		if m.synced && m.seq >= seq {
			m.mu.Unlock()
			return nil
		}
		changed := m.changed
		m.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close closes the connection, if any.
func (m *Mirror) Close() error {
	if m.conn == nil {
		return nil
	}
	return m.conn.Close()
}
