package stream

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/humus-dev/humus/pkg/host"
	"github.com/humus-dev/humus/pkg/protocol"
	"github.com/humus-dev/humus/pkg/session"
	"github.com/humus-dev/humus/pkg/snapshot"
	"github.com/humus-dev/humus/pkg/vdom"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	hub  *Hub
	srv  *httptest.Server
	doc  *host.Document
	root *host.Node
	sess *session.Session
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	hub := NewHub(append([]Option{WithLogger(quiet)}, opts...)...)
	doc := host.NewDocument()
	root := doc.CreateRoot("body")
	f := &fixture{
		hub:  hub,
		doc:  doc,
		root: root,
		sess: session.New(doc, session.WithObserver(hub), session.WithLogger(quiet)),
	}
	f.srv = httptest.NewServer(NewRouter(hub, RouterOptions{HTML: root.InnerHTML}))
	t.Cleanup(func() {
		hub.Close()
		f.srv.Close()
	})
	return f
}

func (f *fixture) render(t *testing.T, tree *vdom.VNode) {
	t.Helper()
	_, err := f.sess.Render(context.Background(), f.root, tree)
	require.NoError(t, err)
}

func (f *fixture) dial(t *testing.T) (*Mirror, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws"
	m, err := Dial(ctx, url, quiet)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	return m, done
}

func waitSeq(t *testing.T, m *Mirror, seq uint64) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.WaitSeq(ctx, seq))
}

func todo(items ...string) *vdom.VNode {
	return vdom.Div(vdom.ID("todo"),
		vdom.H1("Todo"),
		vdom.Ul(vdom.Range(items, func(_ int, item string) *vdom.VNode {
			return vdom.Li(vdom.Key(item), item)
		})),
	)
}

func TestMirrorConvergesToServer(t *testing.T) {
	f := newFixture(t)
	f.render(t, todo("a", "b"))

	m, _ := f.dial(t)
	waitSeq(t, m, 1)
	assert.Equal(t, f.root.InnerHTML(), m.HTML())

	steps := [][]string{
		{"a", "b", "c"},
		{"c", "a"},
		{"d", "c", "a", "b"},
		{},
		{"b"},
	}
	for _, items := range steps {
		f.render(t, todo(items...))
	}
	waitSeq(t, m, f.sess.Seq())
	assert.Equal(t, f.root.InnerHTML(), m.HTML())
	assert.Equal(t, f.sess.Seq(), f.hub.Seq())
}

func TestMirrorConnectedBeforeFirstRender(t *testing.T) {
	f := newFixture(t)
	m, _ := f.dial(t)
	require.Eventually(t, func() bool { return f.hub.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)

	f.render(t, vdom.P("first"))
	waitSeq(t, m, 1)
	assert.Equal(t, "<p>first</p>", m.HTML())
}

func TestMirrorRunEndsOnHubClose(t *testing.T) {
	f := newFixture(t)
	f.render(t, vdom.P("x"))
	m, done := f.dial(t)
	waitSeq(t, m, 1)

	require.NoError(t, f.hub.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after hub close")
	}
	assert.Eventually(t, func() bool { return f.hub.Clients() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestHubClosedRejectsClients(t *testing.T) {
	hub := NewHub(WithLogger(quiet))
	require.NoError(t, hub.Close())
	require.NoError(t, hub.Close())

	rec := httptest.NewRecorder()
	hub.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func decode(t *testing.T, data []byte) (*protocol.Frame, *protocol.ScriptFrame) {
	t.Helper()
	frame, err := protocol.DecodeFrame(data)
	require.NoError(t, err)
	sf, err := protocol.DecodeScript(frame.Payload)
	require.NoError(t, err)
	return frame, sf
}

func TestHubLaggingClientGetsResync(t *testing.T) {
	hub := NewHub(WithLogger(quiet), WithSendQueue(1))
	defer hub.Close()
	c := newClient("slow", nil, 1)
	hub.clients[c.id] = c

	ctx := context.Background()
	first := vdom.P("one")
	second := vdom.P("two")
	hub.Rendered(ctx, session.Update{Seq: 1, Tree: first, Script: vdom.Diff(nil, first)})
	hub.Rendered(ctx, session.Update{Seq: 2, Tree: second, Script: vdom.Diff(first, second)})

	require.Len(t, c.send, 1)
	frame, sf := decode(t, <-c.send)
	assert.True(t, frame.Flags.Has(protocol.FlagResync))
	assert.Equal(t, uint64(2), sf.Seq)
	require.Len(t, sf.Patches, 1)
	assert.Equal(t, vdom.PatchReplace, sf.Patches[0].Op)
	assert.True(t, vdom.Equal(second, sf.Patches[0].Node))

	// A mirror can start from the resync alone.
	m := NewMirror(quiet)
	require.NoError(t, m.Apply(frame.Encode()))
	assert.Equal(t, "<p>two</p>", m.HTML())
}

func TestHubResyncsAfterUnencodableUpdate(t *testing.T) {
	hub := NewHub(WithLogger(quiet))
	defer hub.Close()
	c := newClient("c", nil, 4)
	hub.clients[c.id] = c

	deep := vdom.T("leaf")
	for i := 0; i <= protocol.MaxTreeDepth; i++ {
		deep = vdom.Div(deep)
	}

	ctx := context.Background()
	first := vdom.P("one")
	hub.Rendered(ctx, session.Update{Seq: 1, Tree: first, Script: vdom.Diff(nil, first)})
	hub.Rendered(ctx, session.Update{Seq: 2, Tree: deep, Script: vdom.Diff(first, deep)})
	require.Len(t, c.send, 1, "the unencodable update must not be queued")
	<-c.send

	last := vdom.P("three")
	hub.Rendered(ctx, session.Update{Seq: 3, Tree: last, Script: vdom.Diff(deep, last)})
	require.Len(t, c.send, 1)
	frame, sf := decode(t, <-c.send)
	assert.True(t, frame.Flags.Has(protocol.FlagResync))
	assert.Equal(t, uint64(3), sf.Seq)
	require.Len(t, sf.Patches, 1)
	assert.True(t, vdom.Equal(last, sf.Patches[0].Node))
}

func TestHubPersistsLatestTree(t *testing.T) {
	store := snapshot.NewMemoryStore()
	hub := NewHub(WithLogger(quiet), WithStore(store, "demo"))

	ctx := context.Background()
	for i := uint64(1); i <= 5; i++ {
		tree := vdom.P(vdom.Textf("render %d", i))
		hub.Rendered(ctx, session.Update{Seq: i, Tree: tree})
	}
	require.NoError(t, hub.Close())

	tf, err := snapshot.LoadTree(ctx, store, "demo")
	require.NoError(t, err)
	require.NotNil(t, tf)
	assert.Equal(t, uint64(5), tf.Seq)
	assert.True(t, vdom.Equal(vdom.P("render 5"), tf.Tree))
}

func TestHubMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newFixture(t, WithMetrics(NewMetrics(reg, "humus")))
	f.render(t, vdom.P("x"))

	m, _ := f.dial(t)
	waitSeq(t, m, 1)

	rec := httptest.NewRecorder()
	NewRouter(f.hub, RouterOptions{Gatherer: reg}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "humus_stream_clients 1")
	assert.Contains(t, body, "humus_stream_resyncs_total 1")
	assert.Contains(t, body, "humus_stream_frames_sent_total")
}

// dialRaw connects a bare WebSocket and waits until the hub counts want clients.
func (f *fixture) dialRaw(t *testing.T, want int) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return f.hub.Clients() == want }, 5*time.Second, 10*time.Millisecond)
	return conn
}

func TestHubDropsOversizedMessage(t *testing.T) {
	f := newFixture(t)
	conn := f.dialRaw(t, 1)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, make([]byte, 64<<10)))
	assert.Eventually(t, func() bool { return f.hub.Clients() == 0 }, 5*time.Second, 10*time.Millisecond)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func TestHubDropsUnresponsiveClient(t *testing.T) {
	f := newFixture(t, WithPingInterval(50*time.Millisecond), WithWriteTimeout(100*time.Millisecond))

	// A mirror reads continuously and so answers every ping.
	m, _ := f.dial(t)
	f.render(t, vdom.P("x"))
	waitSeq(t, m, 1)

	// A raw connection that never reads never sends a pong.
	f.dialRaw(t, 2)

	assert.Eventually(t, func() bool { return f.hub.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, 1, f.hub.Clients())
}

func TestHubCloseWaitsForRegisteredClients(t *testing.T) {
	hub := NewHub(WithLogger(quiet))
	c := newClient("late", nil, 1)
	require.True(t, hub.register(c))

	closed := make(chan struct{})
	go func() {
		hub.Close()
		close(closed)
	}()

	// Close cannot return while the client's write loop is still accounted for.
	select {
	case <-closed:
		t.Fatal("Close returned before the client finished")
	case <-c.done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not signal the client")
	}
	select {
	case <-closed:
		t.Fatal("Close returned before the client finished")
	case <-time.After(50 * time.Millisecond):
	}

	hub.wg.Done()
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
	assert.False(t, hub.register(newClient("after", nil, 1)))
}
