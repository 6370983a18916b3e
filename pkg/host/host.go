package host

import "errors"

// Handle identifies a live host node. Implementations must use comparable
// values (typically pointers).
type Handle any

// Adapter is the set of host DOM operations the reconciler depends on.
//
// InsertBefore with a nil ref appends. ChildNodes returns the current child
// list of a node in order; callers must not mutate the returned slice.
type Adapter interface {
	CreateElement(tag string) (Handle, error)
	CreateTextNode(text string) (Handle, error)
	SetAttribute(h Handle, name, value string) error
	RemoveAttribute(h Handle, name string) error
	SetTextContent(h Handle, text string) error
	AppendChild(parent, child Handle) error
	RemoveChild(parent, child Handle) error
	InsertBefore(parent, child, ref Handle) error
	ChildNodes(h Handle) ([]Handle, error)
}

// Host operation errors.
var (
	ErrInvalidCharacter = errors.New("host: invalid character in name")
	ErrNotFound         = errors.New("host: node is not a child of parent")
	ErrHierarchy        = errors.New("host: node cannot be inserted here")
	ErrWrongNodeType    = errors.New("host: operation not supported by node type")
	ErrForeignHandle    = errors.New("host: handle does not belong to this host")
)
