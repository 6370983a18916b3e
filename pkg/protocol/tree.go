package protocol

import (
	"github.com/humus-dev/humus/pkg/vdom"
)

// MaxTreeDepth limits the nesting depth of trees on the wire so that a
// hostile payload cannot overflow the stack. The root is at depth 0. It is
// the same limit vdom.Validate enforces, so a valid tree always encodes.
const MaxTreeDepth = vdom.MaxDepth

// Wire kind bytes. These are fixed independently of vdom.VKind.
const (
	wireEmpty   byte = 0x00
	wireElement byte = 0x01
	wireText    byte = 0x02
)

// EncodeTree appends n to e. Nil encodes as Empty. A tree nested deeper than
// MaxTreeDepth is rejected with ErrMaxDepthExceeded; e may then hold a
// partial encoding.
func EncodeTree(e *Encoder, n *vdom.VNode) error {
	return encodeTree(e, n, 0)
}

func encodeTree(e *Encoder, n *vdom.VNode, depth int) error {
	if depth > MaxTreeDepth {
		return ErrMaxDepthExceeded
	}

	switch vdom.KindOf(n) {
	case vdom.KindElement:
		e.PutByte(wireElement)
		e.PutString(n.Tag)
		e.PutString(n.Key)
		e.PutCount(len(n.Attrs))
		for _, a := range n.Attrs {
			e.PutString(a.Name)
			e.PutString(a.Value)
		}
		e.PutCount(len(n.Children))
		for _, c := range n.Children {
			if err := encodeTree(e, c, depth+1); err != nil {
				return err
			}
		}

	case vdom.KindText:
		e.PutByte(wireText)
		e.PutString(n.Text)

	default:
		e.PutByte(wireEmpty)
	}
	return nil
}

// DecodeTree reads one node and its subtree from d.
// It enforces MaxTreeDepth and the decoder's collection limits.
func DecodeTree(d *Decoder) (*vdom.VNode, error) {
	return decodeTree(d, 0)
}

func decodeTree(d *Decoder, depth int) (*vdom.VNode, error) {
	if depth > MaxTreeDepth {
		return nil, ErrMaxDepthExceeded
	}

	kind, err := d.ReadByte()
	if err != nil {
		return nil, err
	}

	switch kind {
	case wireEmpty:
		return vdom.Empty(), nil

	case wireText:
		text, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		return vdom.T(text), nil

	case wireElement:
		n := &vdom.VNode{Kind: vdom.KindElement}
		if n.Tag, err = d.ReadString(); err != nil {
			return nil, err
		}
		if n.Key, err = d.ReadString(); err != nil {
			return nil, err
		}

		attrCount, err := d.ReadCount()
		if err != nil {
			return nil, err
		}
		if attrCount > 0 {
			n.Attrs = make([]vdom.Attr, attrCount)
			for i := range n.Attrs {
				if n.Attrs[i].Name, err = d.ReadString(); err != nil {
					return nil, err
				}
				if n.Attrs[i].Value, err = d.ReadString(); err != nil {
					return nil, err
				}
			}
		}

		childCount, err := d.ReadCount()
		if err != nil {
			return nil, err
		}
		if childCount > 0 {
			n.Children = make([]*vdom.VNode, childCount)
			for i := range n.Children {
				if n.Children[i], err = decodeTree(d, depth+1); err != nil {
					return nil, err
				}
			}
		}
		return n, nil

	default:
		return nil, ErrUnknownKind
	}
}
