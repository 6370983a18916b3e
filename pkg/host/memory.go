package host

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// NodeType distinguishes in-memory node variants.
type NodeType uint8

const (
	ElementNode NodeType = iota + 1
	TextNode
)

// Operation names accepted by Document.FailOn and reported by Stats.
const (
	OpCreateElement   = "createElement"
	OpCreateTextNode  = "createTextNode"
	OpSetAttribute    = "setAttribute"
	OpRemoveAttribute = "removeAttribute"
	OpSetTextContent  = "setTextContent"
	OpAppendChild     = "appendChild"
	OpRemoveChild     = "removeChild"
	OpInsertBefore    = "insertBefore"
)

// voidElements are serialized without a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// Node is a node in a Document.
type Node struct {
	Type     NodeType
	Tag      string
	Data     string
	attrs    []attr
	parent   *Node
	children []*Node
	doc      *Document
}

type attr struct {
	name  string
	value string
}

// Document is an in-memory Adapter. It validates names the way a browser
// does, so it can reject operations, and it can be told to fail specific
// operations for testing fail-soft behavior.
//
// All methods are safe for concurrent use.
type Document struct {
	mu    sync.Mutex
	fail  map[string]error
	stats map[string]int
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{
		fail:  make(map[string]error),
		stats: make(map[string]int),
	}
}

// CreateRoot creates a detached container element to mount trees into.
// It is not counted in Stats.
func (d *Document) CreateRoot(tag string) *Node {
	return &Node{Type: ElementNode, Tag: tag, doc: d}
}

// FailOn makes every subsequent call of op return err. A nil err clears it.
func (d *Document) FailOn(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.fail, op)
		return
	}
	d.fail[op] = err
}

// Stats returns how many times each operation was called successfully.
func (d *Document) Stats() map[string]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]int, len(d.stats))
	for k, v := range d.stats {
		out[k] = v
	}
	return out
}

// ResetStats clears the operation counters.
func (d *Document) ResetStats() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats = make(map[string]int)
}

// begin locks the document and checks for an injected failure.
// On success the caller must call d.mu.Unlock.
func (d *Document) begin(op string) error {
	d.mu.Lock()
	if err := d.fail[op]; err != nil {
		d.mu.Unlock()
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (d *Document) done(op string) {
	d.stats[op]++
	d.mu.Unlock()
}

// CreateElement implements Adapter.
func (d *Document) CreateElement(tag string) (Handle, error) {
	if err := d.begin(OpCreateElement); err != nil {
		return nil, err
	}
	if !validTag(tag) {
		d.mu.Unlock()
		return nil, fmt.Errorf("%w: tag %q", ErrInvalidCharacter, tag)
	}
	n := &Node{Type: ElementNode, Tag: tag, doc: d}
	d.done(OpCreateElement)
	return n, nil
}

// CreateTextNode implements Adapter.
func (d *Document) CreateTextNode(text string) (Handle, error) {
	if err := d.begin(OpCreateTextNode); err != nil {
		return nil, err
	}
	n := &Node{Type: TextNode, Data: text, doc: d}
	d.done(OpCreateTextNode)
	return n, nil
}

// SetAttribute implements Adapter.
func (d *Document) SetAttribute(h Handle, name, value string) error {
	if err := d.begin(OpSetAttribute); err != nil {
		return err
	}
	n, err := d.element(h)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	if !validAttrName(name) {
		d.mu.Unlock()
		return fmt.Errorf("%w: attribute %q", ErrInvalidCharacter, name)
	}
	n.setAttr(name, value)
	d.done(OpSetAttribute)
	return nil
}

// RemoveAttribute implements Adapter.
func (d *Document) RemoveAttribute(h Handle, name string) error {
	if err := d.begin(OpRemoveAttribute); err != nil {
		return err
	}
	n, err := d.element(h)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	for i, a := range n.attrs {
		if a.name == name {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			break
		}
	}
	d.done(OpRemoveAttribute)
	return nil
}

// SetTextContent implements Adapter. On elements it replaces all children
// with a single text node, like the DOM property.
func (d *Document) SetTextContent(h Handle, text string) error {
	if err := d.begin(OpSetTextContent); err != nil {
		return err
	}
	n, err := d.node(h)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	if n.Type == TextNode {
		n.Data = text
	} else {
		for _, c := range n.children {
			c.parent = nil
		}
		n.children = []*Node{{Type: TextNode, Data: text, parent: n, doc: d}}
	}
	d.done(OpSetTextContent)
	return nil
}

// AppendChild implements Adapter.
func (d *Document) AppendChild(parent, child Handle) error {
	return d.InsertBefore(parent, child, nil)
}

// InsertBefore implements Adapter.
func (d *Document) InsertBefore(parent, child, ref Handle) error {
	op := OpInsertBefore
	if ref == nil {
		op = OpAppendChild
	}
	if err := d.begin(op); err != nil {
		return err
	}
	p, err := d.element(parent)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	c, err := d.node(child)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	for a := p; a != nil; a = a.parent {
		if a == c {
			d.mu.Unlock()
			return fmt.Errorf("%w: node is an ancestor of parent", ErrHierarchy)
		}
	}

	var r *Node
	if ref != nil {
		if r, err = d.node(ref); err != nil {
			d.mu.Unlock()
			return err
		}
		if r.parent != p {
			d.mu.Unlock()
			return fmt.Errorf("%w: reference node", ErrNotFound)
		}
		if r == c {
			d.done(op)
			return nil
		}
	}

	if c.parent != nil {
		c.parent.detach(c)
	}
	idx := len(p.children)
	if r != nil {
		idx = p.indexOf(r)
	}
	p.children = append(p.children, nil)
	copy(p.children[idx+1:], p.children[idx:])
	p.children[idx] = c
	c.parent = p

	d.done(op)
	return nil
}

// RemoveChild implements Adapter.
func (d *Document) RemoveChild(parent, child Handle) error {
	if err := d.begin(OpRemoveChild); err != nil {
		return err
	}
	p, err := d.node(parent)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	c, err := d.node(child)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	if c.parent != p {
		d.mu.Unlock()
		return ErrNotFound
	}
	p.detach(c)
	d.done(OpRemoveChild)
	return nil
}

// ChildNodes implements Adapter.
func (d *Document) ChildNodes(h Handle) ([]Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.node(h)
	if err != nil {
		return nil, err
	}
	out := make([]Handle, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out, nil
}

func (d *Document) node(h Handle) (*Node, error) {
	n, ok := h.(*Node)
	if !ok || n == nil || n.doc != d {
		return nil, ErrForeignHandle
	}
	return n, nil
}

func (d *Document) element(h Handle) (*Node, error) {
	n, err := d.node(h)
	if err != nil {
		return nil, err
	}
	if n.Type != ElementNode {
		return nil, ErrWrongNodeType
	}
	return n, nil
}

func (n *Node) setAttr(name, value string) {
	for i := range n.attrs {
		if n.attrs[i].name == name {
			n.attrs[i].value = value
			return
		}
	}
	n.attrs = append(n.attrs, attr{name: name, value: value})
}

func (n *Node) indexOf(c *Node) int {
	for i, x := range n.children {
		if x == c {
			return i
		}
	}
	return -1
}

func (n *Node) detach(c *Node) {
	if i := n.indexOf(c); i >= 0 {
		n.children = append(n.children[:i], n.children[i+1:]...)
	}
	c.parent = nil
}

// Children returns a snapshot of the node's children.
func (n *Node) Children() []*Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Attribute returns the named attribute value and whether it is set.
func (n *Node) Attribute(name string) (string, bool) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	for _, a := range n.attrs {
		if a.name == name {
			return a.value, true
		}
	}
	return "", false
}

// OuterHTML serializes the node and its subtree. Attributes are written in
// name order so that serializations compare equal regardless of the order
// in which attributes were set.
func (n *Node) OuterHTML() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	var b strings.Builder
	n.writeHTML(&b)
	return b.String()
}

// InnerHTML serializes the node's children.
func (n *Node) InnerHTML() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	var b strings.Builder
	for _, c := range n.children {
		c.writeHTML(&b)
	}
	return b.String()
}

func (n *Node) writeHTML(b *strings.Builder) {
	if n.Type == TextNode {
		textEscaper.WriteString(b, n.Data)
		return
	}

	attrs := make([]attr, len(n.attrs))
	copy(attrs, n.attrs)
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].name < attrs[j].name })

	b.WriteByte('<')
	b.WriteString(n.Tag)
	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(a.name)
		if a.value != "" {
			b.WriteString(`="`)
			attrEscaper.WriteString(b, a.value)
			b.WriteByte('"')
		}
	}
	b.WriteByte('>')

	if voidElements[n.Tag] && len(n.children) == 0 {
		return
	}
	for _, c := range n.children {
		c.writeHTML(b)
	}
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteByte('>')
}

// validTag accepts lowercase ASCII names: a letter followed by letters,
// digits or hyphens.
func validTag(tag string) bool {
	if tag == "" || tag[0] < 'a' || tag[0] > 'z' {
		return false
	}
	for i := 1; i < len(tag); i++ {
		c := tag[i]
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-') {
			return false
		}
	}
	return true
}

// validAttrName rejects names the HTML serializer could not round-trip.
func validAttrName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r <= ' ' || r == 0x7f || strings.ContainsRune(`"'>/=`, r) {
			return false
		}
	}
	return true
}
