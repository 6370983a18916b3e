package vdom

import (
	"encoding/json"
	"testing"
)

func TestParseJSON(t *testing.T) {
	data := []byte(`{
		"tag": "DIV",
		"attrs": {"name": "main", "class": "x"},
		"children": [
			{"tag": "h1", "children": ["Hello"]},
			{"text": ""},
			null,
			{}
		]
	}`)

	got, err := ParseJSON(data)
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}

	want := Div(Class("x"), Name("main"),
		H1("Hello"),
		T(""),
	)
	want.Children = append(want.Children, nil, Empty())

	if !Equal(got, want) {
		t.Errorf("ParseJSON() = %+v", got)
	}
	if got.Attrs[0].Name != "class" {
		t.Errorf("attributes should be sorted, got %v", got.Attrs)
	}
}

func TestJSONRoundTripPreservesTree(t *testing.T) {
	tree := Ul(Class("list"),
		Li(Key("a"), "one"),
		Li(Key("b"), Span(ID("s")), "two"),
	)

	data, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	back, err := ParseJSON(data)
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	if !Equal(tree, back) {
		t.Errorf("round trip changed tree: %s", data)
	}
}

func TestParseJSONNull(t *testing.T) {
	n, err := ParseJSON([]byte("null"))
	if err != nil || n != nil {
		t.Errorf("ParseJSON(null) = %v, %v", n, err)
	}
	if _, err := ParseJSON([]byte("{")); err == nil {
		t.Error("ParseJSON should reject malformed input")
	}
}
