package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	herrors "github.com/humus-dev/humus/internal/errors"
	"github.com/humus-dev/humus/pkg/host"
	"github.com/humus-dev/humus/pkg/patch"
	"github.com/humus-dev/humus/pkg/vdom"
)

func newTestSession(doc *host.Document, opts ...Option) *Session {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(doc, opts...)
}

func render(t *testing.T, s *Session, root host.Handle, tree *vdom.VNode) *patch.Report {
	t.Helper()
	report, err := s.Render(context.Background(), root, tree)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return report
}

func TestNewDefaults(t *testing.T) {
	s := New(host.NewDocument())
	if s.ID() == "" {
		t.Error("ID() is empty, want a generated ID")
	}
	if s.Current() != nil || s.Root() != nil || s.Seq() != 0 {
		t.Errorf("new session state = (%v, %v, %d), want empty", s.Current(), s.Root(), s.Seq())
	}

	s = New(host.NewDocument(), WithID("fixed"))
	if s.ID() != "fixed" {
		t.Errorf("ID() = %q, want fixed", s.ID())
	}
}

func TestRenderMountsThenPatches(t *testing.T) {
	doc := host.NewDocument()
	root := doc.CreateRoot("body")
	s := newTestSession(doc)

	first := vdom.Div(vdom.Name("main"), vdom.H1("Hello"))
	render(t, s, root, first)
	if got, want := root.InnerHTML(), `<div name="main"><h1>Hello</h1></div>`; got != want {
		t.Fatalf("after mount InnerHTML() = %s, want %s", got, want)
	}
	div := root.Children()[0]
	doc.ResetStats()

	second := vdom.Div(vdom.Name("glavni-div"), vdom.H1("Hello"), vdom.H2("From"))
	report := render(t, s, root, second)
	if report.Applied != 2 {
		t.Errorf("Applied = %d, want 2", report.Applied)
	}
	if got, want := root.InnerHTML(), `<div name="glavni-div"><h1>Hello</h1><h2>From</h2></div>`; got != want {
		t.Errorf("InnerHTML() = %s, want %s", got, want)
	}
	if root.Children()[0] != div {
		t.Error("root element was recreated")
	}
	if s.Current() != second {
		t.Error("Current() is not the last rendered tree")
	}
	if s.Seq() != 2 {
		t.Errorf("Seq() = %d, want 2", s.Seq())
	}
	if s.Root() != host.Handle(root) {
		t.Error("Root() is not the rendered root")
	}
}

func TestRenderSameTreeIsNoop(t *testing.T) {
	doc := host.NewDocument()
	root := doc.CreateRoot("body")
	s := newTestSession(doc)

	tree := vdom.Ul(vdom.Li(vdom.Key("a"), "a"), vdom.Li(vdom.Key("b"), "b"))
	render(t, s, root, tree)
	doc.ResetStats()

	report := render(t, s, root, tree)
	if report.Applied != 0 {
		t.Errorf("Applied = %d, want 0", report.Applied)
	}
	if stats := doc.Stats(); len(stats) != 0 {
		t.Errorf("host calls = %v, want none", stats)
	}
}

func TestRenderValidationRejects(t *testing.T) {
	doc := host.NewDocument()
	root := doc.CreateRoot("body")
	s := newTestSession(doc, WithValidation(true))

	bad := vdom.Ul(vdom.Li(vdom.Key("a")), vdom.Li("unkeyed"))
	report, err := s.Render(context.Background(), root, bad)
	if err == nil {
		t.Fatal("Render() error = nil, want validation error")
	}
	if !herrors.HasCode(err, "V001") {
		t.Errorf("error = %v, want code V001", err)
	}
	if report != nil {
		t.Errorf("report = %v, want nil", report)
	}
	if len(root.Children()) != 0 {
		t.Error("host was modified by a rejected render")
	}
	if s.Current() != nil || s.Seq() != 0 {
		t.Error("baseline was modified by a rejected render")
	}
}

func TestRenderWithoutValidationAcceptsAnything(t *testing.T) {
	doc := host.NewDocument()
	root := doc.CreateRoot("body")
	s := newTestSession(doc)

	tree := vdom.Ul(vdom.Li(vdom.Key("a"), "x"), vdom.Li("y"))
	render(t, s, root, tree)
	if got, want := root.InnerHTML(), "<ul><li>x</li><li>y</li></ul>"; got != want {
		t.Errorf("InnerHTML() = %s, want %s", got, want)
	}
}

func TestRenderHostFailureKeepsNewBaseline(t *testing.T) {
	doc := host.NewDocument()
	root := doc.CreateRoot("body")
	var updates []Update
	s := newTestSession(doc, WithObserver(ObserverFunc(func(_ context.Context, u Update) {
		updates = append(updates, u)
	})))

	errBoom := errors.New("boom")
	doc.FailOn(host.OpSetAttribute, errBoom)

	tree := vdom.Div(vdom.ID("x"), vdom.P("a"))
	report, err := s.Render(context.Background(), root, tree)
	if err != nil {
		t.Fatalf("Render() error = %v, want nil", err)
	}
	if report.OK() {
		t.Fatal("report.OK() = true, want host failure")
	}
	if !errors.Is(report.Err(), errBoom) {
		t.Errorf("report.Err() = %v, want boom", report.Err())
	}
	if s.Current() != tree {
		t.Error("baseline not updated after host failure")
	}
	if len(updates) != 1 {
		t.Errorf("observer calls = %d, want 1", len(updates))
	}
	if got, want := root.InnerHTML(), "<div><p>a</p></div>"; got != want {
		t.Errorf("InnerHTML() = %s, want %s", got, want)
	}
}

func TestRenderStructuralFailureRemounts(t *testing.T) {
	doc := host.NewDocument()
	root := doc.CreateRoot("body")
	s := newTestSession(doc)

	render(t, s, root, vdom.Div(vdom.P("a")))

	// Something outside the session removes the paragraph.
	div := root.Children()[0]
	if err := doc.RemoveChild(div, div.Children()[0]); err != nil {
		t.Fatal(err)
	}

	_, err := s.Render(context.Background(), root, vdom.Div(vdom.P("b")))
	var se *patch.StructuralError
	if !errors.As(err, &se) {
		t.Fatalf("Render() error = %v, want *patch.StructuralError", err)
	}
	if !errors.Is(err, patch.ErrPathNotFound) {
		t.Errorf("error = %v, want ErrPathNotFound", err)
	}
	if s.Current() != nil {
		t.Error("baseline kept after structural failure")
	}
	if s.Seq() != 1 {
		t.Errorf("Seq() = %d, want 1", s.Seq())
	}

	render(t, s, root, vdom.Div(vdom.P("c")))
	if got, want := root.InnerHTML(), "<div><p>c</p></div>"; got != want {
		t.Errorf("after remount InnerHTML() = %s, want %s", got, want)
	}
}

func TestRenderRootChangeRemounts(t *testing.T) {
	doc := host.NewDocument()
	a := doc.CreateRoot("body")
	b := doc.CreateRoot("body")
	s := newTestSession(doc)

	render(t, s, a, vdom.Div(vdom.P("one")))
	render(t, s, b, vdom.Div(vdom.P("two")))

	if got, want := a.InnerHTML(), "<div><p>one</p></div>"; got != want {
		t.Errorf("old root InnerHTML() = %s, want %s", got, want)
	}
	if got, want := b.InnerHTML(), "<div><p>two</p></div>"; got != want {
		t.Errorf("new root InnerHTML() = %s, want %s", got, want)
	}
	if s.Root() != host.Handle(b) {
		t.Error("Root() not updated")
	}
}

func TestRenderEmptyMountOccupiesSlot(t *testing.T) {
	for _, first := range []*vdom.VNode{nil, vdom.Empty()} {
		doc := host.NewDocument()
		root := doc.CreateRoot("body")
		s := newTestSession(doc)

		report := render(t, s, root, first)
		if report.Applied != 1 || len(root.Children()) != 1 {
			t.Fatalf("Empty mount applied %d patches, root has %d children; want 1 and 1",
				report.Applied, len(root.Children()))
		}
		if got := root.InnerHTML(); got != "" {
			t.Errorf("Empty mount InnerHTML() = %q, want empty", got)
		}

		report = render(t, s, root, vdom.Empty())
		if report.Applied != 0 || len(root.Children()) != 1 {
			t.Errorf("Empty to Empty applied %d patches, root has %d children; want 0 and 1",
				report.Applied, len(root.Children()))
		}

		render(t, s, root, vdom.P("x"))

		fresh := doc.CreateRoot("body")
		render(t, newTestSession(doc), fresh, vdom.P("x"))
		if got, want := root.OuterHTML(), fresh.OuterHTML(); got != want {
			t.Errorf("after Empty mount OuterHTML() = %s, want %s", got, want)
		}
		if len(root.Children()) != 1 {
			t.Errorf("root has %d children, want 1", len(root.Children()))
		}

		render(t, s, root, vdom.Empty())
		if len(root.Children()) != 1 || root.InnerHTML() != "" {
			t.Errorf("back to Empty: %d children, InnerHTML() = %q; want 1 and empty",
				len(root.Children()), root.InnerHTML())
		}
	}
}

func TestRenderObserver(t *testing.T) {
	doc := host.NewDocument()
	root := doc.CreateRoot("body")
	var updates []Update
	s := newTestSession(doc, WithID("obs"), WithObserver(ObserverFunc(func(_ context.Context, u Update) {
		updates = append(updates, u)
	})))

	first := vdom.P("a")
	second := vdom.P("b")
	render(t, s, root, first)
	render(t, s, root, second)

	want := []Update{
		{SessionID: "obs", Seq: 1, Tree: first, Script: vdom.Diff(nil, first)},
		{SessionID: "obs", Seq: 2, Tree: second, Script: vdom.Diff(first, second)},
	}
	if diff := cmp.Diff(want, updates); diff != "" {
		t.Errorf("updates mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderMaterializeHook(t *testing.T) {
	doc := host.NewDocument()
	root := doc.CreateRoot("body")
	var tags []string
	s := newTestSession(doc, WithMaterializeHook(func(_ host.Handle, n *vdom.VNode) {
		if n.Kind == vdom.KindElement {
			tags = append(tags, n.Tag)
		}
	}))

	render(t, s, root, vdom.Div(vdom.Span("x")))
	render(t, s, root, vdom.Div(vdom.Span("x"), vdom.Button("go")))

	if diff := cmp.Diff([]string{"span", "div", "button"}, tags); diff != "" {
		t.Errorf("hook tags mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderConcurrent(t *testing.T) {
	doc := host.NewDocument()
	root := doc.CreateRoot("body")
	s := newTestSession(doc)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			items := make([]*vdom.VNode, i%5+1)
			for j := range items {
				items[j] = vdom.Li(vdom.Key(fmt.Sprint((i+j)%7)), fmt.Sprint(i, j))
			}
			if _, err := s.Render(context.Background(), root, vdom.Ul(items)); err != nil {
				t.Errorf("Render() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	fresh := host.NewDocument()
	want := fresh.CreateRoot("body")
	if _, err := patch.Apply(fresh, want, vdom.Diff(nil, s.Current())); err != nil {
		t.Fatal(err)
	}
	if got := root.InnerHTML(); got != want.InnerHTML() {
		t.Errorf("InnerHTML() = %s, want %s", got, want.InnerHTML())
	}
	if s.Seq() != 20 {
		t.Errorf("Seq() = %d, want 20", s.Seq())
	}
}
