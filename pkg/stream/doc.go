// Package stream mirrors a render session to remote processes over
// WebSocket.
//
// A Hub observes a session and fans its edit scripts out to every connected
// client as protocol frames. A client that connects late, or falls too far
// behind to be caught up incrementally, receives a resync frame: a single
// Replace of the whole tree. A Mirror is the receiving side: it applies the
// frames to its own host tree, so its HTML converges to the server's.
//
//	hub := stream.NewHub(stream.WithLogger(logger))
//	sess := session.New(doc, session.WithObserver(hub))
//	http.ListenAndServe(addr, stream.NewRouter(hub, stream.RouterOptions{}))
//
// Frames only flow from server to client; anything a client sends is
// discarded.
package stream
