package vdom

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// jsonNode is the JSON shape of a VNode:
//
//	{"tag": "div", "key": "k", "attrs": {"id": "x"}, "children": [...]}
//	{"text": "Hello"}
//	{}                       (empty)
//
// A bare JSON string is accepted anywhere a node is and decodes to a text
// node. Attribute order is not preserved through JSON; decoded attributes are
// sorted by name.
type jsonNode struct {
	Tag      string            `json:"tag,omitempty"`
	Key      string            `json:"key,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []json.RawMessage `json:"children,omitempty"`
	Text     *string           `json:"text,omitempty"`
}

type jsonOut struct {
	Tag      string            `json:"tag,omitempty"`
	Key      string            `json:"key,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []*VNode          `json:"children,omitempty"`
	Text     *string           `json:"text,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (v VNode) MarshalJSON() ([]byte, error) {
	var out jsonOut
	switch v.Kind {
	case KindElement:
		out.Tag = v.Tag
		out.Key = v.Key
		if len(v.Attrs) > 0 {
			out.Attrs = make(map[string]string, len(v.Attrs))
			for _, a := range v.Attrs {
				out.Attrs[a.Name] = a.Value
			}
		}
		out.Children = v.Children
	case KindText:
		text := v.Text
		out.Text = &text
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *VNode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = VNode{Kind: KindText, Text: s}
		return nil
	}

	var in jsonNode
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	switch {
	case in.Tag != "":
		*v = VNode{Kind: KindElement, Tag: strings.ToLower(in.Tag), Key: in.Key}
		names := make([]string, 0, len(in.Attrs))
		for name := range in.Attrs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			v.Attrs = append(v.Attrs, Attr{Name: name, Value: in.Attrs[name]})
		}
		for _, raw := range in.Children {
			var child *VNode
			if err := json.Unmarshal(raw, &child); err != nil {
				return err
			}
			v.Children = append(v.Children, child)
		}
	case in.Text != nil:
		*v = VNode{Kind: KindText, Text: *in.Text, Key: in.Key}
	default:
		*v = VNode{Kind: KindEmpty, Key: in.Key}
	}
	return nil
}

// ParseJSON decodes a tree from its JSON form. A JSON null decodes to nil.
func ParseJSON(data []byte) (*VNode, error) {
	var n *VNode
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return n, nil
}
