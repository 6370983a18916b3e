package vdom

import (
	"fmt"
	"strings"
)

// keyAttr is the attribute name builders interpret as the node key.
const keyAttr = "key"

// H creates an element node with the given tag, children and attributes.
// The tag is lowercased. An attribute named "key" sets the node key instead of
// an attribute. When a name repeats, the last value wins and the first
// position is kept.
func H(tag string, children []*VNode, attrs ...Attr) *VNode {
	node := &VNode{
		Kind: KindElement,
		Tag:  strings.ToLower(tag),
	}
	for _, a := range attrs {
		node.setAttr(a)
	}
	if len(children) > 0 {
		node.Children = make([]*VNode, len(children))
		copy(node.Children, children)
	}
	return node
}

// T creates a text node.
func T(text string) *VNode {
	return &VNode{
		Kind: KindText,
		Text: text,
	}
}

// Text is an alias for T.
func Text(text string) *VNode { return T(text) }

// Textf creates a formatted text node.
func Textf(format string, args ...any) *VNode {
	return T(fmt.Sprintf(format, args...))
}

// Empty creates a placeholder node with no visible content.
func Empty() *VNode {
	return &VNode{Kind: KindEmpty}
}

// A creates an attribute.
func A(name, value string) Attr {
	return Attr{Name: name, Value: value}
}

// Key creates the pseudo-attribute that sets a node's reconciliation key.
func Key(key string) Attr {
	return Attr{Name: keyAttr, Value: key}
}

// setAttr adds or overwrites an attribute, routing "key" to the Key field.
func (v *VNode) setAttr(a Attr) {
	if a.IsEmpty() {
		return
	}
	if a.Name == keyAttr {
		v.Key = a.Value
		return
	}
	for i := range v.Attrs {
		if v.Attrs[i].Name == a.Name {
			v.Attrs[i].Value = a.Value
			return
		}
	}
	v.Attrs = append(v.Attrs, a)
}

// El creates a new element with the given tag and arguments.
// Arguments can be: nil, Attr, []Attr, *VNode, []*VNode, string.
// Strings become text children; nil values are skipped so that conditional
// children and attributes can be passed inline.
func El(tag string, args ...any) *VNode {
	node := &VNode{
		Kind: KindElement,
		Tag:  strings.ToLower(tag),
	}

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			continue
		case Attr:
			node.setAttr(v)
		case []Attr:
			for _, a := range v {
				node.setAttr(a)
			}
		case *VNode:
			if v != nil {
				node.Children = append(node.Children, v)
			}
		case []*VNode:
			for _, c := range v {
				if c != nil {
					node.Children = append(node.Children, c)
				}
			}
		case string:
			node.Children = append(node.Children, T(v))
		case fmt.Stringer:
			node.Children = append(node.Children, T(v.String()))
		}
	}

	return node
}

// Keyed returns a shallow copy of n carrying key. Non-element nodes are
// returned unchanged.
func Keyed(key string, n *VNode) *VNode {
	if n == nil || n.Kind != KindElement {
		return n
	}
	c := *n
	c.Key = key
	return &c
}

// If returns the node if condition is true, nil otherwise.
func If(condition bool, node *VNode) *VNode {
	if condition {
		return node
	}
	return nil
}

// Range maps items to nodes, dropping nil results.
func Range[E any](items []E, fn func(int, E) *VNode) []*VNode {
	out := make([]*VNode, 0, len(items))
	for i, item := range items {
		if n := fn(i, item); n != nil {
			out = append(out, n)
		}
	}
	return out
}

// Document structure

func Div(args ...any) *VNode     { return El("div", args...) }
func Span(args ...any) *VNode    { return El("span", args...) }
func P(args ...any) *VNode       { return El("p", args...) }
func H1(args ...any) *VNode      { return El("h1", args...) }
func H2(args ...any) *VNode      { return El("h2", args...) }
func H3(args ...any) *VNode      { return El("h3", args...) }
func Section(args ...any) *VNode { return El("section", args...) }
func Main(args ...any) *VNode    { return El("main", args...) }

// Lists

func Ul(args ...any) *VNode { return El("ul", args...) }
func Ol(args ...any) *VNode { return El("ol", args...) }
func Li(args ...any) *VNode { return El("li", args...) }

// Forms

func Form(args ...any) *VNode     { return El("form", args...) }
func Input(args ...any) *VNode    { return El("input", args...) }
func Textarea(args ...any) *VNode { return El("textarea", args...) }
func Select(args ...any) *VNode   { return El("select", args...) }
func Option(args ...any) *VNode   { return El("option", args...) }
func Button(args ...any) *VNode   { return El("button", args...) }
func Label(args ...any) *VNode    { return El("label", args...) }
