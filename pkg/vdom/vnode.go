package vdom

// VKind is the node type discriminator.
type VKind uint8

const (
	KindEmpty   VKind = iota // Placeholder with no visible content
	KindElement              // <div>, <button>, etc.
	KindText                 // Plain text node
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	default:
		return "Unknown"
	}
}

// VNode is the virtual DOM node. A nil *VNode is equivalent to an Empty node.
type VNode struct {
	Kind     VKind    // Node type
	Tag      string   // Element tag name (e.g., "div"), lowercase
	Attrs    []Attr   // Ordered attributes, unique names
	Children []*VNode // Child nodes
	Key      string   // Reconciliation key, elements only
	Text     string   // For KindText
}

// Attr represents a single attribute.
type Attr struct {
	Name  string
	Value string
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Name == ""
}

// KindOf returns the kind of n, treating nil as KindEmpty.
func KindOf(n *VNode) VKind {
	if n == nil {
		return KindEmpty
	}
	return n.Kind
}

// Attr returns the value of the named attribute and whether it is present.
func (v *VNode) Attr(name string) (string, bool) {
	if v == nil {
		return "", false
	}
	for _, a := range v.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Equal reports whether a and b describe the same tree. Attribute order is
// ignored; child order is significant.
func Equal(a, b *VNode) bool {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		return false
	}
	switch ka {
	case KindEmpty:
		return true
	case KindText:
		return a.Text == b.Text
	case KindElement:
		if a.Tag != b.Tag || a.Key != b.Key || len(a.Attrs) != len(b.Attrs) || len(a.Children) != len(b.Children) {
			return false
		}
		for _, attr := range a.Attrs {
			if v, ok := b.Attr(attr.Name); !ok || v != attr.Value {
				return false
			}
		}
		for i := range a.Children {
			if !Equal(a.Children[i], b.Children[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Count returns the number of nodes in the tree rooted at n.
func Count(n *VNode) int {
	if n == nil {
		return 1
	}
	count := 1
	for _, child := range n.Children {
		count += Count(child)
	}
	return count
}
