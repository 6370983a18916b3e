package session

import (
	"context"

	"github.com/humus-dev/humus/pkg/vdom"
)

// Update describes one completed render.
type Update struct {
	SessionID string
	Seq       uint64
	Tree      *vdom.VNode     // New baseline
	Script    vdom.EditScript // Patches applied to reach Tree
}

// Observer is notified after every render that produced a new baseline.
//
// Rendered is called synchronously while the render lock is held, so it must
// not call Render on the same session and should not block.
type Observer interface {
	Rendered(ctx context.Context, u Update)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, u Update)

// Rendered calls f(ctx, u).
func (f ObserverFunc) Rendered(ctx context.Context, u Update) {
	f(ctx, u)
}
