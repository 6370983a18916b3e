// Package host defines the capability set the reconciler needs from a host
// DOM, and provides an in-memory implementation.
//
// The reconciler never talks to a concrete rendering surface. It drives an
// Adapter: create elements and text nodes, set and remove attributes, set
// text content, and mutate child lists. Document implements Adapter over an
// in-memory node tree that can be serialized to HTML, which makes it the
// reference host for tests and for remote mirrors.
//
// Materialize turns a VNode subtree into host nodes with no prior host state.
package host
