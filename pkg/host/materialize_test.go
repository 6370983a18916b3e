package host

import (
	"errors"
	"testing"

	herrors "github.com/humus-dev/humus/internal/errors"
	"github.com/humus-dev/humus/pkg/vdom"
)

func TestMaterialize(t *testing.T) {
	d := NewDocument()
	tree := vdom.Div(vdom.Name("main"),
		vdom.H1(vdom.StyleAttr("color:red"), "Humus Virtual Dom"),
		vdom.Empty(),
		vdom.Ul(vdom.Li(vdom.Key("a"), "one")),
	)

	h, err := Materialize(d, tree, nil)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}

	want := `<div name="main"><h1 style="color:red">Humus Virtual Dom</h1><ul><li>one</li></ul></div>`
	if got := h.(*Node).OuterHTML(); got != want {
		t.Errorf("OuterHTML() = %s\nwant %s", got, want)
	}
	if n := len(h.(*Node).Children()); n != 3 {
		t.Errorf("children = %d, want 3 (empty keeps its slot)", n)
	}
}

func TestMaterializeHookCalledForEveryNode(t *testing.T) {
	d := NewDocument()
	tree := vdom.Div(vdom.P("a"), vdom.P("b"))

	var seen []*vdom.VNode
	_, err := Materialize(d, tree, func(h Handle, n *vdom.VNode) {
		seen = append(seen, n)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != vdom.Count(tree) {
		t.Errorf("hook calls = %d, want %d", len(seen), vdom.Count(tree))
	}
	if seen[len(seen)-1] != tree {
		t.Error("root should be reported last, after its subtree")
	}
}

func TestMaterializeFailSoft(t *testing.T) {
	d := NewDocument()
	tree := vdom.Div(
		vdom.A("bad name", "x"),
		vdom.A("id", "ok"),
		vdom.P("kept"),
		&vdom.VNode{Kind: vdom.KindElement, Tag: "Bad Tag"},
	)

	h, err := Materialize(d, tree, nil)
	if h == nil {
		t.Fatal("Materialize() returned nil handle")
	}
	if !herrors.HasCode(err, "H001") || !errors.Is(err, ErrInvalidCharacter) {
		t.Errorf("error = %v, want H001 wrapping ErrInvalidCharacter", err)
	}

	want := `<div id="ok"><p>kept</p></div>`
	if got := h.(*Node).OuterHTML(); got != want {
		t.Errorf("OuterHTML() = %s, want %s", got, want)
	}
	if n := len(h.(*Node).Children()); n != 2 {
		t.Errorf("children = %d, want 2 (failed element keeps a placeholder)", n)
	}
}
