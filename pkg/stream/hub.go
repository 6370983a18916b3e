package stream

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/humus-dev/humus/pkg/protocol"
	"github.com/humus-dev/humus/pkg/session"
	"github.com/humus-dev/humus/pkg/snapshot"
	"github.com/humus-dev/humus/pkg/vdom"
)

// ErrHubClosed is returned by ServeHTTP after Close.
var ErrHubClosed = errors.New("stream: hub is closed")

// maxMessageSize bounds inbound messages. Clients only send control frames
// and close messages, so anything larger is dropped with the connection.
const maxMessageSize = 512

// Hub fans session updates out to WebSocket clients.
// It implements session.Observer.
type Hub struct {
	logger       *slog.Logger
	writeTimeout time.Duration
	sendQueue    int
	pingInterval time.Duration
	store        snapshot.Store
	snapshotKey  string
	metrics      *Metrics
	upgrader     websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client
	tree    *vdom.VNode
	seq     uint64
	mounted bool
	closed  bool

	// unsynced is set when an update could not be encoded, so clients are
	// behind h.tree until the next resync.
	unsynced bool

	persist chan protocol.TreeFrame
	done    chan struct{}
	wg      sync.WaitGroup
}

var _ session.Observer = (*Hub)(nil)

// NewHub creates a hub with no clients.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		writeTimeout: DefaultWriteTimeout,
		sendQueue:    DefaultSendQueue,
		pingInterval: DefaultPingInterval,
		snapshotKey:  DefaultSnapshotKey,
		clients:      make(map[string]*client),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default().With("component", "stream")
	}
	if h.sendQueue < 1 {
		h.sendQueue = 1
	}
	if h.store != nil {
		h.persist = make(chan protocol.TreeFrame, 1)
		h.wg.Add(1)
		go h.persistLoop()
	}
	return h
}

// Rendered implements session.Observer. It queues the update's script for
// every client and schedules a snapshot.
func (h *Hub) Rendered(ctx context.Context, u session.Update) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.tree = u.Tree
	h.seq = u.Seq
	h.mounted = true

	if len(h.clients) == 0 {
		h.unsynced = false
	} else {
		payload, err := protocol.EncodeScript(&protocol.ScriptFrame{Seq: u.Seq, Patches: u.Script})
		switch {
		case err != nil:
			// Clients keep their last tree; the next encodable render resyncs them.
			h.logger.Error("cannot encode update", "seq", u.Seq, "error", err)
			h.unsynced = true
		case h.unsynced:
			h.unsynced = false
			h.resyncAll()
		default:
			frame := protocol.NewFrame(protocol.FrameScript, payload).Encode()
			for _, c := range h.clients {
				if !c.enqueue(frame) {
					h.logger.Debug("client lagging, resyncing", "client_id", c.id)
					h.resync(c)
				}
			}
		}
	}

	if h.persist != nil {
		tf := protocol.TreeFrame{Seq: u.Seq, Tree: u.Tree}
		select {
		case h.persist <- tf:
		default:
			// Replace the pending snapshot; only the latest matters.
			select {
			case <-h.persist:
			default:
			}
			h.persist <- tf
		}
	}
}

// resyncFrame builds a frame that remounts the current tree.
// Caller must hold h.mu.
func (h *Hub) resyncFrame() ([]byte, error) {
	script := vdom.EditScript{{Op: vdom.PatchReplace, Path: vdom.Path{}, Node: h.tree}}
	payload, err := protocol.EncodeScript(&protocol.ScriptFrame{Seq: h.seq, Patches: script})
	if err != nil {
		return nil, err
	}
	f := protocol.NewFrame(protocol.FrameScript, payload)
	f.Flags = protocol.FlagResync
	return f.Encode(), nil
}

// resync replaces c's queue with a remount of the current tree.
// Caller must hold h.mu.
func (h *Hub) resync(c *client) {
	frame, err := h.resyncFrame()
	if err != nil {
		h.logger.Error("cannot encode resync", "client_id", c.id, "error", err)
		return
	}
	c.reset(frame)
	h.metrics.resync()
}

// resyncAll remounts the current tree on every client.
// Caller must hold h.mu.
func (h *Hub) resyncAll() {
	for _, c := range h.clients {
		h.resync(c)
	}
}

// ServeHTTP upgrades the request to a WebSocket and streams frames to it
// until either side closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		http.Error(w, ErrHubClosed.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "error", err)
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if h.pingInterval > 0 {
		// A live peer answers every ping, so each pong pushes the deadline out.
		wait := h.pingInterval + h.writeTimeout
		conn.SetReadDeadline(time.Now().Add(wait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wait))
		})
	}

	c := newClient(uuid.NewString(), conn, h.sendQueue)
	if !h.register(c) {
		conn.Close()
		return
	}
	h.logger.Info("client connected", "client_id", c.id, "remote", r.RemoteAddr)

	go func() {
		defer h.wg.Done()
		h.writeLoop(c)
	}()
	h.readLoop(c)
}

// register adds c and queues the current tree for it. On success the
// client's write loop is counted in h.wg, so Close waits for it.
func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.wg.Add(1)
	h.clients[c.id] = c
	h.metrics.clientAdded()
	if h.mounted {
		h.resync(c)
	}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		h.metrics.clientRemoved()
	}
	h.mu.Unlock()
	c.close()
}

// readLoop discards client messages and returns when the connection ends.
func (h *Hub) readLoop(c *client) {
	defer h.unregister(c)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if errors.Is(err, websocket.ErrReadLimit) {
				h.logger.Warn("client message too large", "client_id", c.id, "limit", maxMessageSize)
			} else if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				h.logger.Warn("read error", "client_id", c.id, "error", err)
			}
			h.logger.Info("client disconnected", "client_id", c.id)
			return
		}
	}
}

// writeLoop drains the client's queue to the connection.
func (h *Hub) writeLoop(c *client) {
	var ping <-chan time.Time
	if h.pingInterval > 0 {
		ticker := time.NewTicker(h.pingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				h.logger.Warn("write error", "client_id", c.id, "error", err)
				c.conn.Close()
				return
			}
			h.metrics.sent(len(frame))

		case <-ping:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.writeTimeout)); err != nil {
				c.conn.Close()
				return
			}

		case <-c.done:
			c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
			c.conn.Close()
			return
		}
	}
}

// persistLoop saves queued snapshots until the hub closes.
func (h *Hub) persistLoop() {
	defer h.wg.Done()
	for {
		select {
		case tf := <-h.persist:
			h.save(tf)
		case <-h.done:
			// Flush a pending snapshot so a clean shutdown keeps the latest tree.
			select {
			case tf := <-h.persist:
				h.save(tf)
			default:
			}
			return
		}
	}
}

func (h *Hub) save(tf protocol.TreeFrame) {
	ctx, cancel := context.WithTimeout(context.Background(), h.writeTimeout)
	defer cancel()
	if err := snapshot.SaveTree(ctx, h.store, h.snapshotKey, tf.Seq, tf.Tree); err != nil {
		h.logger.Error("snapshot failed", "seq", tf.Seq, "error", err)
		return
	}
	h.logger.Debug("snapshot saved", "seq", tf.Seq, "key", h.snapshotKey)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Seq returns the sequence number of the last update.
func (h *Hub) Seq() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq
}

// Close disconnects every client, flushes the pending snapshot and waits for
// background goroutines to finish.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	close(h.done)
	h.wg.Wait()
	return nil
}
