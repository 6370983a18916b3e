package vdom

import (
	"fmt"
	"strconv"
	"strings"
)

// PatchOp is the type of patch operation.
type PatchOp uint8

const (
	PatchReplace     PatchOp = 0x01 // Replace node and its subtree
	PatchSetAttr     PatchOp = 0x02 // Set/update attribute
	PatchRemoveAttr  PatchOp = 0x03 // Remove attribute
	PatchSetText     PatchOp = 0x04 // Update text content
	PatchInsertChild PatchOp = 0x05 // Insert new child at Index
	PatchRemoveChild PatchOp = 0x06 // Remove child at Index
	PatchMoveChild   PatchOp = 0x07 // Move child From -> To
)

// String returns the string representation of the PatchOp.
func (op PatchOp) String() string {
	switch op {
	case PatchReplace:
		return "Replace"
	case PatchSetAttr:
		return "SetAttribute"
	case PatchRemoveAttr:
		return "RemoveAttribute"
	case PatchSetText:
		return "SetText"
	case PatchInsertChild:
		return "InsertChild"
	case PatchRemoveChild:
		return "RemoveChild"
	case PatchMoveChild:
		return "MoveChild"
	default:
		return "Unknown"
	}
}

// IsChildOp reports whether the op mutates the child list of the node at Path.
func (op PatchOp) IsChildOp() bool {
	return op == PatchInsertChild || op == PatchRemoveChild || op == PatchMoveChild
}

// Path addresses a node by child indices starting at the mount slot.
// The empty path is the tree root.
type Path []int

// Child returns a new path extending p with index i.
func (p Path) Child(i int) Path {
	c := make(Path, len(p)+1)
	copy(c, p)
	c[len(p)] = i
	return c
}

// Equal reports whether p and q address the same node.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether q is p or an ancestor of p.
func (p Path) HasPrefix(q Path) bool {
	return len(p) >= len(q) && p[:len(q)].Equal(q)
}

// String returns the path as "/0/2/1", or "/" for the root.
func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, i := range p {
		b.WriteByte('/')
		b.WriteString(strconv.Itoa(i))
	}
	return b.String()
}

// Patch represents a single host mutation.
//
// For child operations Path names the parent; for all others it names the
// node itself.
type Patch struct {
	Op    PatchOp // Operation type
	Path  Path    // Target node, or parent for child ops
	Name  string  // Attribute name (SetAttr/RemoveAttr)
	Value string  // Attribute value or text
	Index int     // Child index (InsertChild/RemoveChild)
	From  int     // Source index (MoveChild)
	To    int     // Destination index (MoveChild)
	Node  *VNode  // New subtree (Replace/InsertChild)
}

// String returns a one-line description of the patch.
func (p Patch) String() string {
	switch p.Op {
	case PatchReplace:
		return fmt.Sprintf("Replace %s %s", p.Path, describe(p.Node))
	case PatchSetAttr:
		return fmt.Sprintf("SetAttribute %s %s=%q", p.Path, p.Name, p.Value)
	case PatchRemoveAttr:
		return fmt.Sprintf("RemoveAttribute %s %s", p.Path, p.Name)
	case PatchSetText:
		return fmt.Sprintf("SetText %s %q", p.Path, p.Value)
	case PatchInsertChild:
		return fmt.Sprintf("InsertChild %s [%d] %s", p.Path, p.Index, describe(p.Node))
	case PatchRemoveChild:
		return fmt.Sprintf("RemoveChild %s [%d]", p.Path, p.Index)
	case PatchMoveChild:
		return fmt.Sprintf("MoveChild %s [%d -> %d]", p.Path, p.From, p.To)
	default:
		return fmt.Sprintf("Unknown(%d) %s", p.Op, p.Path)
	}
}

// describe returns a short summary of a node for patch listings.
func describe(n *VNode) string {
	switch KindOf(n) {
	case KindElement:
		if n.Key != "" {
			return fmt.Sprintf("<%s key=%q>", n.Tag, n.Key)
		}
		return "<" + n.Tag + ">"
	case KindText:
		return strconv.Quote(n.Text)
	default:
		return "(empty)"
	}
}

// EditScript is an ordered list of patches, safe to apply sequentially.
type EditScript []Patch

// String returns the script with one patch per line.
func (s EditScript) String() string {
	var b strings.Builder
	for i, p := range s {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(p.String())
	}
	return b.String()
}

// Count returns the number of patches per operation.
func (s EditScript) Count() map[PatchOp]int {
	counts := make(map[PatchOp]int)
	for _, p := range s {
		counts[p.Op]++
	}
	return counts
}
