// Package vdom provides the virtual DOM model and reconciliation diff for humus.
//
// A VNode is an in-memory description of a host node: an element with a tag,
// ordered attributes and children, a text node, or an empty placeholder.
// Trees are built with H, T and A (or the variadic El helpers) and are
// treated as immutable once built.
//
// # Building trees
//
//	tree := H("div", []*VNode{
//	    H("h1", []*VNode{T("Hello")}, A("style", "color:red")),
//	}, A("name", "main"))
//
// or, with the variadic helpers:
//
//	tree := Div(Name("main"),
//	    H1(StyleAttr("color:red"), "Hello"),
//	)
//
// # Diffing
//
// Diff compares two trees and returns an EditScript: an ordered list of
// Patch operations addressed by Path. Applying the patches in order against a
// host tree that matches prev transforms it into one matching next. Children
// are reconciled by key when any sibling carries one, and positionally
// otherwise.
//
// # Validation
//
// Diff does not validate its input. Validate reports contract violations
// (mixed keying, duplicate keys or attributes, bad tags) for callers that want
// to fail loudly before reconciling.
package vdom
