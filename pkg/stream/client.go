package stream

import (
	"sync"

	"github.com/gorilla/websocket"
)

// client is one connected WebSocket with its outbound queue.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClient(id string, conn *websocket.Conn, queue int) *client {
	return &client{
		id:   id,
		conn: conn,
		send: make(chan []byte, queue),
		done: make(chan struct{}),
	}
}

// enqueue queues frame without blocking. It reports false when the queue is
// full.
func (c *client) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// reset drops every queued frame and queues frame in their place.
// Callers serialize enqueue and reset, so the queue has room afterwards.
func (c *client) reset(frame []byte) {
	for {
		select {
		case <-c.send:
			continue
		default:
		}
		break
	}
	c.enqueue(frame)
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
	})
}
