package patch

import (
	"errors"
	"fmt"
	"log/slog"

	herrors "github.com/humus-dev/humus/internal/errors"
	"github.com/humus-dev/humus/pkg/host"
	"github.com/humus-dev/humus/pkg/vdom"
)

// Option configures Apply.
type Option func(*options)

type options struct {
	hook   host.Hook
	logger *slog.Logger
}

// WithMaterializeHook sets a hook called for every host node created by
// Replace and InsertChild patches.
func WithMaterializeHook(hook host.Hook) Option {
	return func(o *options) {
		o.hook = hook
	}
}

// WithLogger sets the logger used to report host failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Apply executes script against the tree mounted under root.
//
// The returned Report is never nil. A non-nil error is always a
// *StructuralError; host failures are only reported through the Report.
func Apply(a host.Adapter, root host.Handle, script vdom.EditScript, opts ...Option) (*Report, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	ap := &applier{
		adapter: a,
		root:    root,
		opts:    o,
		cache:   make(map[string]cached),
	}
	report := &Report{}

	for i, p := range script {
		hostErr, structErr := ap.apply(p)
		if structErr != nil {
			o.logger.Error("patch aborted",
				"index", i,
				"op", p.Op.String(),
				"path", p.Path.String(),
				"error", structErr)
			return report, &StructuralError{Index: i, Patch: p, Err: structErr}
		}
		report.Applied++
		if hostErr != nil {
			o.logger.Warn("host operation failed",
				"index", i,
				"op", p.Op.String(),
				"path", p.Path.String(),
				"error", hostErr)
			report.Failures = append(report.Failures, &OpError{Index: i, Patch: p, Err: hostErr})
		}
	}

	return report, nil
}

type cached struct {
	path   vdom.Path
	handle host.Handle
}

// applier holds the path-to-handle cache for one script application.
type applier struct {
	adapter host.Adapter
	root    host.Handle
	opts    options
	cache   map[string]cached
}

// apply runs one patch. It returns a host error (recoverable) or a
// structural error (fatal), never both.
func (ap *applier) apply(p vdom.Patch) (hostErr, structErr error) {
	switch p.Op {
	case vdom.PatchReplace:
		return ap.replace(p)

	case vdom.PatchSetAttr:
		h, err := ap.resolve(p.Path)
		if err != nil {
			return nil, err
		}
		return wrapHost(ap.adapter.SetAttribute(h, p.Name, p.Value)), nil

	case vdom.PatchRemoveAttr:
		h, err := ap.resolve(p.Path)
		if err != nil {
			return nil, err
		}
		return wrapHost(ap.adapter.RemoveAttribute(h, p.Name)), nil

	case vdom.PatchSetText:
		h, err := ap.resolve(p.Path)
		if err != nil {
			return nil, err
		}
		return wrapHost(ap.adapter.SetTextContent(h, p.Value)), nil

	case vdom.PatchInsertChild:
		return ap.insertChild(p)

	case vdom.PatchRemoveChild:
		return ap.removeChild(p)

	case vdom.PatchMoveChild:
		return ap.moveChild(p)

	default:
		return hostFailure(fmt.Errorf("unknown patch op %d", p.Op)), nil
	}
}

// replace swaps the node at p.Path for a freshly materialized subtree.
// At the root path an empty container is mounted into instead.
func (ap *applier) replace(p vdom.Patch) (error, error) {
	var parent, old host.Handle
	if len(p.Path) == 0 {
		parent = ap.root
		children, err := ap.children(parent, p.Path)
		if err != nil {
			return nil, err
		}
		if len(children) > 0 {
			old = children[0]
		}
	} else {
		var err error
		if parent, err = ap.resolve(p.Path[:len(p.Path)-1]); err != nil {
			return nil, err
		}
		if old, err = ap.resolve(p.Path); err != nil {
			return nil, err
		}
	}

	fresh, matErr := host.Materialize(ap.adapter, p.Node, ap.opts.hook)
	if fresh == nil {
		return wrapHost(matErr), nil
	}
	ap.forget(p.Path, true)

	if old == nil {
		if err := ap.adapter.AppendChild(parent, fresh); err != nil {
			return joinHost(matErr, err), nil
		}
		return wrapHost(matErr), nil
	}
	if err := ap.adapter.InsertBefore(parent, fresh, old); err != nil {
		return joinHost(matErr, err), nil
	}
	if err := ap.adapter.RemoveChild(parent, old); err != nil {
		return joinHost(matErr, err), nil
	}
	return wrapHost(matErr), nil
}

func (ap *applier) insertChild(p vdom.Patch) (error, error) {
	parent, err := ap.resolve(p.Path)
	if err != nil {
		return nil, err
	}
	children, err := ap.children(parent, p.Path)
	if err != nil {
		return nil, err
	}
	if p.Index < 0 || p.Index > len(children) {
		return nil, outOfRange(p.Path, p.Index, len(children))
	}

	fresh, matErr := host.Materialize(ap.adapter, p.Node, ap.opts.hook)
	if fresh == nil {
		return wrapHost(matErr), nil
	}
	ap.forget(p.Path, false)

	if err := ap.insertAt(parent, fresh, children, p.Index); err != nil {
		return joinHost(matErr, err), nil
	}
	return wrapHost(matErr), nil
}

func (ap *applier) removeChild(p vdom.Patch) (error, error) {
	parent, err := ap.resolve(p.Path)
	if err != nil {
		return nil, err
	}
	children, err := ap.children(parent, p.Path)
	if err != nil {
		return nil, err
	}
	if p.Index < 0 || p.Index >= len(children) {
		return nil, outOfRange(p.Path, p.Index, len(children))
	}

	ap.forget(p.Path, false)
	return wrapHost(ap.adapter.RemoveChild(parent, children[p.Index])), nil
}

// moveChild detaches the child at From and reinserts it so that it ends up
// at index To.
func (ap *applier) moveChild(p vdom.Patch) (error, error) {
	parent, err := ap.resolve(p.Path)
	if err != nil {
		return nil, err
	}
	children, err := ap.children(parent, p.Path)
	if err != nil {
		return nil, err
	}
	if p.From < 0 || p.From >= len(children) {
		return nil, outOfRange(p.Path, p.From, len(children))
	}
	if p.To < 0 || p.To >= len(children) {
		return nil, outOfRange(p.Path, p.To, len(children))
	}

	ap.forget(p.Path, false)
	child := children[p.From]
	if err := ap.adapter.RemoveChild(parent, child); err != nil {
		return wrapHost(err), nil
	}

	rest := make([]host.Handle, 0, len(children)-1)
	rest = append(rest, children[:p.From]...)
	rest = append(rest, children[p.From+1:]...)
	return wrapHost(ap.insertAt(parent, child, rest, p.To)), nil
}

// insertAt inserts child so that it lands at index in the given child list.
func (ap *applier) insertAt(parent, child host.Handle, children []host.Handle, index int) error {
	if index >= len(children) {
		return ap.adapter.AppendChild(parent, child)
	}
	return ap.adapter.InsertBefore(parent, child, children[index])
}

// resolve returns the host node at path, walking down from the nearest
// cached ancestor.
func (ap *applier) resolve(path vdom.Path) (host.Handle, error) {
	key := path.String()
	if c, ok := ap.cache[key]; ok {
		return c.handle, nil
	}

	var parent host.Handle
	var index int
	if len(path) == 0 {
		parent, index = ap.root, 0
	} else {
		var err error
		if parent, err = ap.resolve(path[:len(path)-1]); err != nil {
			return nil, err
		}
		index = path[len(path)-1]
	}

	children, err := ap.children(parent, path)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(children) {
		if len(path) == 0 {
			return nil, notFound(path, "nothing is mounted under the root")
		}
		return nil, notFound(path, fmt.Sprintf("index %d, %d children", index, len(children)))
	}

	h := children[index]
	ap.cache[key] = cached{path: append(vdom.Path(nil), path...), handle: h}
	return h, nil
}

func (ap *applier) children(h host.Handle, path vdom.Path) ([]host.Handle, error) {
	children, err := ap.adapter.ChildNodes(h)
	if err != nil {
		return nil, notFound(path, "cannot list children: "+err.Error())
	}
	return children, nil
}

// forget drops cached handles below path. When self is true the entry for
// path itself is dropped too (its node is being replaced); otherwise only
// the entries for its children and their descendants are (its child list is
// changing).
func (ap *applier) forget(path vdom.Path, self bool) {
	for key, c := range ap.cache {
		if !c.path.HasPrefix(path) {
			continue
		}
		if self || len(c.path) > len(path) {
			delete(ap.cache, key)
		}
	}
}

func wrapHost(err error) error {
	if err == nil {
		return nil
	}
	if herrors.HasCode(err, "H001") {
		return err
	}
	return hostFailure(err)
}

func joinHost(matErr, err error) error {
	return errors.Join(matErr, wrapHost(err))
}
