package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortRead is returned when a read runs past the end of the buffer.
var ErrShortRead = errors.New("binary: short read")

// Reader reads little-endian fields from a byte slice with position tracking.
// It never copies or mutates the underlying slice.
type Reader struct {
	buf []byte
	pos int
}

// NewReader creates a Reader positioned at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Position returns the current byte position.
func (r *Reader) Position() int {
	return r.pos
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	if r.pos >= len(r.buf) {
		return 0
	}
	return len(r.buf) - r.pos
}

// Seek moves to an absolute position. Seeking to len(buf) is allowed.
func (r *Reader) Seek(pos int) error {
	if pos < 0 || pos > len(r.buf) {
		return r.wrapError(fmt.Errorf("seek to %d outside [0, %d]", pos, len(r.buf)))
	}
	r.pos = pos
	return nil
}

// Skip advances the position by n bytes.
func (r *Reader) Skip(n int) error {
	if n > r.Len() {
		return r.wrapError(ErrShortRead)
	}
	r.pos += n
	return nil
}

// ReadBytes returns a view of the next n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > r.Len() {
		return nil, r.wrapError(ErrShortRead)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadU16 reads a little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32 reads a little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadI32 reads a little-endian int32.
func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

func (r *Reader) wrapError(err error) error {
	return fmt.Errorf("at position %d: %w", r.pos, err)
}

// SwapHalves exchanges the two 16-bit halves of v. It is its own inverse.
func SwapHalves(v uint32) uint32 {
	return v<<16 | v>>16
}
