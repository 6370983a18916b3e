package protocol

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/humus-dev/humus/pkg/vdom"
)

func TestTreeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		node *vdom.VNode
	}{
		{"text", vdom.T("Hello, World!")},
		{"empty", vdom.Empty()},
		{"element", vdom.Div(vdom.Class("container"))},
		{"attribute order", vdom.Div(vdom.A("z", "1"), vdom.A("a", "2"), vdom.A("m", ""))},
		{"keyed", vdom.Ul(vdom.Li(vdom.Key("a"), "A"), vdom.Li(vdom.Key("b"), "B"))},
		{"nested", vdom.Div(vdom.ID("root"),
			vdom.H1("Title"),
			vdom.P("Content ", vdom.Span("with ünïcödé")),
			vdom.Empty(),
		)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEncoder(0)
			if err := EncodeTree(e, tt.node); err != nil {
				t.Fatalf("EncodeTree() error = %v", err)
			}

			d := NewDecoder(e.Bytes())
			got, err := DecodeTree(d)
			if err != nil {
				t.Fatalf("DecodeTree() error = %v", err)
			}
			if err := d.Finish(); err != nil {
				t.Errorf("%d bytes left over", d.Remaining())
			}
			if diff := cmp.Diff(tt.node, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTreeNilEncodesAsEmpty(t *testing.T) {
	var e Encoder
	if err := EncodeTree(&e, nil); err != nil {
		t.Fatal(err)
	}
	got, err := DecodeTree(NewDecoder(e.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if vdom.KindOf(got) != vdom.KindEmpty {
		t.Errorf("kind = %v, want Empty", vdom.KindOf(got))
	}
}

func TestScriptRoundTrip(t *testing.T) {
	script := vdom.EditScript{
		{Op: vdom.PatchReplace, Path: vdom.Path{}, Node: vdom.Div(vdom.P("x"))},
		{Op: vdom.PatchSetAttr, Path: vdom.Path{0}, Name: "class", Value: "a b"},
		{Op: vdom.PatchRemoveAttr, Path: vdom.Path{0, 1}, Name: "id"},
		{Op: vdom.PatchSetText, Path: vdom.Path{2, 0}, Value: "text"},
		{Op: vdom.PatchInsertChild, Path: vdom.Path{1}, Index: 3, Node: vdom.T("new")},
		{Op: vdom.PatchRemoveChild, Path: vdom.Path{}, Index: 200},
		{Op: vdom.PatchMoveChild, Path: vdom.Path{4, 5}, From: 7, To: 0},
	}
	sf := &ScriptFrame{Seq: 1 << 40, Patches: script}

	got, err := DecodeScript(mustEncodeScript(t, sf))
	if err != nil {
		t.Fatalf("DecodeScript() error = %v", err)
	}
	if diff := cmp.Diff(sf, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestScriptRoundTripEmpty(t *testing.T) {
	got, err := DecodeScript(mustEncodeScript(t, &ScriptFrame{Seq: 9}))
	if err != nil {
		t.Fatal(err)
	}
	if got.Seq != 9 || len(got.Patches) != 0 {
		t.Errorf("got %+v, want seq 9 with no patches", got)
	}
}

func randomTree(r *rand.Rand, depth int) *vdom.VNode {
	if depth == 0 || r.Intn(3) == 0 {
		return vdom.T("t" + strconv.Itoa(r.Intn(5)))
	}
	n := vdom.H([]string{"div", "p", "li"}[r.Intn(3)], nil)
	for i := 0; i < r.Intn(3); i++ {
		n.Attrs = append(n.Attrs, vdom.A("data-"+strconv.Itoa(i), strconv.Itoa(r.Intn(3))))
	}
	for i := 0; i < r.Intn(4); i++ {
		n.Children = append(n.Children, randomTree(r, depth-1))
	}
	return n
}

func TestDiffScriptsSurviveWire(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		script := vdom.Diff(randomTree(r, 4), randomTree(r, 4))
		got, err := DecodeScript(mustEncodeScript(t, &ScriptFrame{Seq: uint64(i), Patches: script}))
		if err != nil {
			t.Fatalf("case %d: DecodeScript() error = %v", i, err)
		}
		if diff := cmp.Diff(script, got.Patches, cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("case %d: mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestTreeFrameRoundTrip(t *testing.T) {
	tf := &TreeFrame{Seq: 42, Tree: vdom.Main(vdom.H2("snap"))}
	got, err := DecodeTreeFrame(mustEncodeTreeFrame(t, tf))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(tf, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFrameEncodeDecode(t *testing.T) {
	tests := []struct {
		name  string
		frame *Frame
	}{
		{"script", &Frame{Type: FrameScript, Payload: []byte{1, 2, 3}}},
		{"tree with flag", &Frame{Type: FrameTree, Flags: FlagResync, Payload: []byte("payload")}},
		{"empty payload", &Frame{Type: FrameScript, Payload: []byte{}}},
		{"large payload", &Frame{Type: FrameTree, Payload: bytes.Repeat([]byte{7}, 70000)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.frame.Encode()
			if len(data) != FrameHeaderSize+len(tt.frame.Payload) {
				t.Errorf("encoded length = %d, want %d", len(data), FrameHeaderSize+len(tt.frame.Payload))
			}

			got, err := DecodeFrame(data)
			if err != nil {
				t.Fatalf("DecodeFrame() error = %v", err)
			}
			if diff := cmp.Diff(tt.frame, got); diff != "" {
				t.Errorf("DecodeFrame() mismatch (-want +got):\n%s", diff)
			}

			var buf bytes.Buffer
			if err := WriteFrame(&buf, tt.frame); err != nil {
				t.Fatalf("WriteFrame() error = %v", err)
			}
			read, err := ReadFrame(&buf)
			if err != nil {
				t.Fatalf("ReadFrame() error = %v", err)
			}
			if diff := cmp.Diff(tt.frame, read); diff != "" {
				t.Errorf("ReadFrame() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFrameHeader(t *testing.T) {
	data := NewFrame(FrameScript, make([]byte, 300)).Encode()
	ft, flags, length, err := DecodeFrameHeader(data)
	if err != nil {
		t.Fatal(err)
	}
	if ft != FrameScript || flags != 0 || length != 300 {
		t.Errorf("header = (%v, %v, %d), want (Script, 0, 300)", ft, flags, length)
	}
	if !FlagResync.Has(FlagResync) || FrameFlags(0).Has(FlagResync) {
		t.Error("FrameFlags.Has is wrong")
	}
	if FrameTree.String() != "Tree" || FrameType(9).String() != "Unknown" {
		t.Error("FrameType.String is wrong")
	}
}

func TestEncoderReset(t *testing.T) {
	e := NewEncoder(8)
	e.PutString("abc")
	e.Reset()
	if e.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", e.Len())
	}
	e.PutUvarint(300)
	e.PutCount(-1)
	e.PutUint32(0x01020304)
	if diff := cmp.Diff([]byte{0xAC, 0x02, 0x00, 0x01, 0x02, 0x03, 0x04}, e.Bytes()); diff != "" {
		t.Errorf("encoded bytes mismatch (-want +got):\n%s", diff)
	}
}

func TestDecoderReadsEncoderOutput(t *testing.T) {
	var e Encoder
	e.PutByte(7)
	e.PutUvarint(1 << 40)
	e.PutCount(3)
	e.PutString("héllo")

	d := NewDecoder(e.Bytes())
	if b, err := d.ReadByte(); err != nil || b != 7 {
		t.Errorf("ReadByte() = %d, %v; want 7", b, err)
	}
	if v, err := d.ReadUvarint(); err != nil || v != 1<<40 {
		t.Errorf("ReadUvarint() = %d, %v; want %d", v, err, uint64(1<<40))
	}
	if n, err := d.ReadIndex(); err != nil || n != 3 {
		t.Errorf("ReadIndex() = %d, %v; want 3", n, err)
	}
	if s, err := d.ReadString(); err != nil || s != "héllo" {
		t.Errorf("ReadString() = %q, %v; want héllo", s, err)
	}
	if d.Offset() != e.Len() {
		t.Errorf("Offset() = %d, want %d", d.Offset(), e.Len())
	}
	if err := d.Finish(); err != nil {
		t.Errorf("Finish() = %v, want nil", err)
	}
	if _, err := d.ReadByte(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadByte() past end = %v, want io.ErrUnexpectedEOF", err)
	}
}

func mustEncodeScript(t *testing.T, sf *ScriptFrame) []byte {
	t.Helper()
	payload, err := EncodeScript(sf)
	if err != nil {
		t.Fatalf("EncodeScript() error = %v", err)
	}
	return payload
}

func mustEncodeTreeFrame(t *testing.T, tf *TreeFrame) []byte {
	t.Helper()
	payload, err := EncodeTreeFrame(tf)
	if err != nil {
		t.Fatalf("EncodeTreeFrame() error = %v", err)
	}
	return payload
}
