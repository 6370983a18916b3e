package protocol

import (
	"fmt"

	herrors "github.com/humus-dev/humus/internal/errors"
	"github.com/humus-dev/humus/pkg/vdom"
)

// ScriptFrame is the payload of a FrameScript frame.
type ScriptFrame struct {
	Seq     uint64
	Patches vdom.EditScript
}

// TreeFrame is the payload of a FrameTree frame.
type TreeFrame struct {
	Seq  uint64
	Tree *vdom.VNode
}

// EncodeScript encodes the payload of a script frame. It fails only when a
// patch exceeds MaxTreeDepth.
func EncodeScript(sf *ScriptFrame) ([]byte, error) {
	e := NewEncoder(256)
	e.PutUvarint(sf.Seq)
	e.PutCount(len(sf.Patches))
	for i, p := range sf.Patches {
		if err := EncodePatch(e, p); err != nil {
			return nil, encodeError(fmt.Sprintf("patch %d", i), err)
		}
	}
	return e.Bytes(), nil
}

// DecodeScript decodes the payload of a script frame.
func DecodeScript(payload []byte) (*ScriptFrame, error) {
	d := NewDecoder(payload)
	sf := &ScriptFrame{}

	var err error
	if sf.Seq, err = d.ReadUvarint(); err != nil {
		return nil, decodeError(d, "script sequence", err)
	}
	count, err := d.ReadCount()
	if err != nil {
		return nil, decodeError(d, "patch count", err)
	}
	if count > 0 {
		sf.Patches = make(vdom.EditScript, count)
		for i := range sf.Patches {
			if sf.Patches[i], err = DecodePatch(d); err != nil {
				return nil, decodeError(d, fmt.Sprintf("patch %d", i), err)
			}
		}
	}
	if err := d.Finish(); err != nil {
		return nil, decodeError(d, "script", err)
	}
	return sf, nil
}

// EncodeTreeFrame encodes the payload of a tree frame. It fails only when
// the tree exceeds MaxTreeDepth.
func EncodeTreeFrame(tf *TreeFrame) ([]byte, error) {
	e := NewEncoder(256)
	e.PutUvarint(tf.Seq)
	if err := EncodeTree(e, tf.Tree); err != nil {
		return nil, encodeError("tree", err)
	}
	return e.Bytes(), nil
}

// DecodeTreeFrame decodes the payload of a tree frame.
func DecodeTreeFrame(payload []byte) (*TreeFrame, error) {
	d := NewDecoder(payload)
	tf := &TreeFrame{}

	var err error
	if tf.Seq, err = d.ReadUvarint(); err != nil {
		return nil, decodeError(d, "tree sequence", err)
	}
	if tf.Tree, err = DecodeTree(d); err != nil {
		return nil, decodeError(d, "tree", err)
	}
	if err := d.Finish(); err != nil {
		return nil, decodeError(d, "tree", err)
	}
	return tf, nil
}

// EncodePatch appends one patch to e.
func EncodePatch(e *Encoder, p vdom.Patch) error {
	if len(p.Path) > MaxTreeDepth {
		return ErrMaxDepthExceeded
	}
	e.PutByte(byte(p.Op))
	e.PutCount(len(p.Path))
	for _, i := range p.Path {
		e.PutCount(i)
	}

	switch p.Op {
	case vdom.PatchReplace:
		return EncodeTree(e, p.Node)
	case vdom.PatchSetAttr:
		e.PutString(p.Name)
		e.PutString(p.Value)
	case vdom.PatchRemoveAttr:
		e.PutString(p.Name)
	case vdom.PatchSetText:
		e.PutString(p.Value)
	case vdom.PatchInsertChild:
		e.PutCount(p.Index)
		return EncodeTree(e, p.Node)
	case vdom.PatchRemoveChild:
		e.PutCount(p.Index)
	case vdom.PatchMoveChild:
		e.PutCount(p.From)
		e.PutCount(p.To)
	}
	return nil
}

// DecodePatch reads one patch from d.
func DecodePatch(d *Decoder) (vdom.Patch, error) {
	var p vdom.Patch

	op, err := d.ReadByte()
	if err != nil {
		return p, err
	}
	p.Op = vdom.PatchOp(op)

	depth, err := d.ReadCount()
	if err != nil {
		return p, err
	}
	if depth > MaxTreeDepth {
		return p, ErrMaxDepthExceeded
	}
	p.Path = make(vdom.Path, depth)
	for i := range p.Path {
		if p.Path[i], err = d.ReadIndex(); err != nil {
			return p, err
		}
	}

	switch p.Op {
	case vdom.PatchReplace:
		p.Node, err = DecodeTree(d)
	case vdom.PatchSetAttr:
		if p.Name, err = d.ReadString(); err == nil {
			p.Value, err = d.ReadString()
		}
	case vdom.PatchRemoveAttr:
		p.Name, err = d.ReadString()
	case vdom.PatchSetText:
		p.Value, err = d.ReadString()
	case vdom.PatchInsertChild:
		if p.Index, err = d.ReadIndex(); err == nil {
			p.Node, err = DecodeTree(d)
		}
	case vdom.PatchRemoveChild:
		p.Index, err = d.ReadIndex()
	case vdom.PatchMoveChild:
		if p.From, err = d.ReadIndex(); err == nil {
			p.To, err = d.ReadIndex()
		}
	default:
		err = ErrUnknownOp
	}
	return p, err
}

func decodeError(d *Decoder, what string, err error) error {
	return herrors.New("W001").WithDetailf("%s at byte %d", what, d.Offset()).Wrap(err)
}

func encodeError(what string, err error) error {
	return herrors.New("W002").WithDetail(what).Wrap(err)
}
