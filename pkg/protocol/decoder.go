package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

// Decoding limits. Every length read from the wire is checked against them
// before anything is allocated.
const (
	// DefaultMaxAllocation caps a single string (4MB).
	DefaultMaxAllocation = 4 << 20

	// HardMaxAllocation caps a frame payload (16MB).
	HardMaxAllocation = 16 << 20

	// MaxCollectionCount caps attributes, children, patches and path
	// indices per collection.
	MaxCollectionCount = 100_000
)

var (
	ErrVarintOverflow     = errors.New("protocol: varint overflow")
	ErrAllocationTooLarge = errors.New("protocol: allocation size exceeds limit")
	ErrCollectionTooLarge = errors.New("protocol: collection count exceeds limit")
	ErrMaxDepthExceeded   = errors.New("protocol: maximum nesting depth exceeded")
	ErrUnknownKind        = errors.New("protocol: unknown node kind")
	ErrUnknownOp          = errors.New("protocol: unknown patch op")
	ErrTrailingData       = errors.New("protocol: trailing data after payload")
)

// Decoder reads values written by Encoder from a payload.
type Decoder struct {
	buf []byte
	off int
}

func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Offset returns how many bytes have been consumed.
func (d *Decoder) Offset() int { return d.off }

// Remaining returns how many bytes are left.
func (d *Decoder) Remaining() int { return len(d.buf) - d.off }

// Finish reports ErrTrailingData unless the payload was consumed exactly.
func (d *Decoder) Finish() error {
	if d.Remaining() != 0 {
		return ErrTrailingData
	}
	return nil
}

// take consumes the next n bytes.
func (d *Decoder) take(n int) ([]byte, error) {
	if n > d.Remaining() {
		return nil, io.ErrUnexpectedEOF
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *Decoder) ReadByte() (byte, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) ReadUvarint() (uint64, error) {
	v, n := binary.Uvarint(d.buf[d.off:])
	switch {
	case n == 0:
		return 0, io.ErrUnexpectedEOF
	case n < 0:
		return 0, ErrVarintOverflow
	}
	d.off += n
	return v, nil
}

// ReadIndex reads a child index or path step, bounded by MaxCollectionCount.
func (d *Decoder) ReadIndex() (int, error) {
	v, err := d.ReadUvarint()
	if err != nil {
		return 0, err
	}
	if v > MaxCollectionCount {
		return 0, ErrCollectionTooLarge
	}
	return int(v), nil
}

// ReadCount reads the length of a collection. Each item takes at least one
// byte, so a count larger than the rest of the payload is truncated input.
func (d *Decoder) ReadCount() (int, error) {
	n, err := d.ReadIndex()
	if err != nil {
		return 0, err
	}
	if n > d.Remaining() {
		return 0, io.ErrUnexpectedEOF
	}
	return n, nil
}

func (d *Decoder) ReadString() (string, error) {
	n, err := d.ReadUvarint()
	if err != nil {
		return "", err
	}
	if n > DefaultMaxAllocation {
		return "", ErrAllocationTooLarge
	}
	b, err := d.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
