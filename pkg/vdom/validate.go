package vdom

import (
	"errors"
	"strings"

	herrors "github.com/humus-dev/humus/internal/errors"
)

// MaxDepth is the deepest a node may sit below the root, which is at depth 0.
// The wire protocol uses the same limit.
const MaxDepth = 256

// Validate checks a tree against the model's contract and returns every
// violation found, joined. It returns nil for a valid tree.
//
// Checked: element tags are non-empty, lowercase and free of whitespace;
// attribute names are unique per element; keys appear only on elements;
// siblings are either all keyed or all unkeyed; sibling keys are unique;
// no node is nested deeper than MaxDepth.
func Validate(n *VNode) error {
	var errs []error
	validate(n, Path{}, &errs)
	return errors.Join(errs...)
}

func validate(n *VNode, path Path, errs *[]error) {
	if len(path) > MaxDepth {
		*errs = append(*errs, herrors.New("V006").WithPath(path).
			WithDetailf("deeper than %d levels", MaxDepth))
		return
	}

	switch KindOf(n) {
	case KindEmpty, KindText:
		if n != nil && n.Key != "" {
			*errs = append(*errs, herrors.New("V005").WithPath(path).
				WithDetailf("%s node has key %q", n.Kind, n.Key))
		}
		return
	case KindElement:
	default:
		return
	}

	if n.Tag == "" || n.Tag != strings.ToLower(n.Tag) || strings.ContainsAny(n.Tag, " \t\n\r\f/<>") {
		*errs = append(*errs, herrors.New("V004").WithPath(path).WithDetailf("tag %q", n.Tag))
	}

	seen := make(map[string]struct{}, len(n.Attrs))
	for _, a := range n.Attrs {
		if _, dup := seen[a.Name]; dup {
			*errs = append(*errs, herrors.New("V003").WithPath(path).WithDetailf("attribute %q", a.Name))
			continue
		}
		seen[a.Name] = struct{}{}
	}

	validateKeys(n.Children, path, errs)

	for i, child := range n.Children {
		validate(child, path.Child(i), errs)
	}
}

// validateKeys checks the keying rules for one sibling list.
func validateKeys(children []*VNode, path Path, errs *[]error) {
	keyed, unkeyed := 0, 0
	keys := make(map[string]struct{})
	for _, child := range children {
		key := getKey(child)
		if key == "" {
			unkeyed++
			continue
		}
		keyed++
		if _, dup := keys[key]; dup {
			*errs = append(*errs, herrors.New("V002").WithPath(path).WithDetailf("key %q", key))
		}
		keys[key] = struct{}{}
	}
	if keyed > 0 && unkeyed > 0 {
		*errs = append(*errs, herrors.New("V001").WithPath(path).
			WithDetailf("%d keyed and %d unkeyed children", keyed, unkeyed))
	}
}
