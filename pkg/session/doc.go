// Package session owns a mounted virtual tree.
//
// A Session keeps the tree that was last rendered into a host root (the
// baseline) and turns each new tree into the smallest edit script that brings
// the host up to date:
//
//	s := session.New(doc, session.WithValidation(true))
//	report, err := s.Render(ctx, root, view(state))
//
// Render calls are serialized. The first render, and any render into a
// different root, mounts from scratch. When the host tree stops matching the
// baseline (a structural patch failure) the session discards its baseline and
// the next render clears the root and remounts.
//
// Observers receive every successful render along with the script that
// produced it; pkg/stream uses this to mirror a session to remote clients.
package session
