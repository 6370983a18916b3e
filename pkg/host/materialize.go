package host

import (
	"errors"

	herrors "github.com/humus-dev/humus/internal/errors"
	"github.com/humus-dev/humus/pkg/vdom"
)

// Hook is called for every host node created from a VNode, after the node
// and its subtree are built.
type Hook func(h Handle, n *vdom.VNode)

// Materialize creates a host subtree for n.
//
// Empty nodes become empty text nodes so that every VNode occupies exactly
// one host slot. Host failures are collected rather than fatal: a rejected
// attribute is skipped, and a node the host refuses to create is replaced by
// an empty text placeholder. The returned error joins every failure; the
// handle is nil only when not even a placeholder could be created.
func Materialize(a Adapter, n *vdom.VNode, hook Hook) (Handle, error) {
	var errs []error
	h := materialize(a, n, vdom.Path{}, hook, &errs)
	return h, errors.Join(errs...)
}

func materialize(a Adapter, n *vdom.VNode, path vdom.Path, hook Hook, errs *[]error) Handle {
	switch vdom.KindOf(n) {
	case vdom.KindElement:
		h, err := a.CreateElement(n.Tag)
		if err != nil {
			*errs = append(*errs, hostError(path, err, "createElement %q", n.Tag))
			return placeholder(a, path, errs)
		}
		for _, attr := range n.Attrs {
			if err := a.SetAttribute(h, attr.Name, attr.Value); err != nil {
				*errs = append(*errs, hostError(path, err, "setAttribute %q", attr.Name))
			}
		}
		for i, child := range n.Children {
			ch := materialize(a, child, path.Child(i), hook, errs)
			if ch == nil {
				continue
			}
			if err := a.AppendChild(h, ch); err != nil {
				*errs = append(*errs, hostError(path.Child(i), err, "appendChild"))
			}
		}
		if hook != nil {
			hook(h, n)
		}
		return h

	case vdom.KindText:
		h, err := a.CreateTextNode(n.Text)
		if err != nil {
			*errs = append(*errs, hostError(path, err, "createTextNode"))
			return placeholder(a, path, errs)
		}
		if hook != nil {
			hook(h, n)
		}
		return h

	default:
		h, err := a.CreateTextNode("")
		if err != nil {
			*errs = append(*errs, hostError(path, err, "createTextNode (empty)"))
			return nil
		}
		if hook != nil {
			hook(h, n)
		}
		return h
	}
}

func placeholder(a Adapter, path vdom.Path, errs *[]error) Handle {
	h, err := a.CreateTextNode("")
	if err != nil {
		*errs = append(*errs, hostError(path, err, "createTextNode (placeholder)"))
		return nil
	}
	return h
}

func hostError(path vdom.Path, err error, format string, args ...any) error {
	return herrors.New("H001").WithPath(path).WithDetailf(format, args...).Wrap(err)
}
