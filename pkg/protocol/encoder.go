package protocol

import "encoding/binary"

// Encoder builds a payload by appending to a byte slice. Integers are
// unsigned varints, strings are length-prefixed and the frame length is a
// big-endian uint32. The zero value is an empty encoder.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an encoder with room for size bytes.
func NewEncoder(size int) *Encoder {
	return &Encoder{buf: make([]byte, 0, size)}
}

// Bytes returns the payload. It aliases the encoder's buffer until the next
// Put or Reset.
func (e *Encoder) Bytes() []byte { return e.buf }

// Len returns the payload size.
func (e *Encoder) Len() int { return len(e.buf) }

// Reset empties the encoder and keeps its buffer.
func (e *Encoder) Reset() { e.buf = e.buf[:0] }

func (e *Encoder) PutByte(b byte) {
	e.buf = append(e.buf, b)
}

func (e *Encoder) PutRaw(b []byte) {
	e.buf = append(e.buf, b...)
}

func (e *Encoder) PutUvarint(v uint64) {
	e.buf = binary.AppendUvarint(e.buf, v)
}

// PutCount writes a length or index. Counts are never negative; a negative
// value is written as zero.
func (e *Encoder) PutCount(n int) {
	e.PutUvarint(uint64(max(n, 0)))
}

func (e *Encoder) PutString(s string) {
	e.PutUvarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *Encoder) PutUint32(v uint32) {
	e.buf = binary.BigEndian.AppendUint32(e.buf, v)
}
