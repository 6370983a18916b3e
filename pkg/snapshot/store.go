package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/humus-dev/humus/pkg/protocol"
	"github.com/humus-dev/humus/pkg/vdom"
)

// Store persists opaque snapshot blobs by key.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores data under key, replacing any previous value.
	Save(ctx context.Context, key string, data []byte) error

	// Load returns the data stored under key.
	// Returns (nil, nil) if the key doesn't exist.
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// ErrStoreClosed is returned when operations are attempted on a closed store.
var ErrStoreClosed = errors.New("snapshot: store is closed")

// SaveTree encodes tree as a tree frame and stores it under key.
func SaveTree(ctx context.Context, s Store, key string, seq uint64, tree *vdom.VNode) error {
	payload, err := protocol.EncodeTreeFrame(&protocol.TreeFrame{Seq: seq, Tree: tree})
	if err != nil {
		return fmt.Errorf("snapshot: save %q: %w", key, err)
	}
	frame := protocol.NewFrame(protocol.FrameTree, payload)
	if err := s.Save(ctx, key, frame.Encode()); err != nil {
		return fmt.Errorf("snapshot: save %q: %w", key, err)
	}
	return nil
}

// LoadTree loads the tree stored under key.
// Returns (nil, nil) if there is no snapshot.
func LoadTree(ctx context.Context, s Store, key string) (*protocol.TreeFrame, error) {
	data, err := s.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("snapshot: load %q: %w", key, err)
	}
	if data == nil {
		return nil, nil
	}

	frame, err := protocol.DecodeFrame(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot: load %q: %w", key, err)
	}
	if frame.Type != protocol.FrameTree {
		return nil, fmt.Errorf("snapshot: load %q: %w: %s", key, protocol.ErrInvalidFrameType, frame.Type)
	}
	tf, err := protocol.DecodeTreeFrame(frame.Payload)
	if err != nil {
		return nil, fmt.Errorf("snapshot: load %q: %w", key, err)
	}
	return tf, nil
}
