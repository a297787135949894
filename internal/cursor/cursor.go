// Package cursor implements the two byte-level primitives fracpack encoding
// and decoding are built on: a growable append buffer with offset patching,
// and a bounds-checked read cursor over a borrowed byte slice. No other
// package touches raw byte offsets directly.
package cursor

import (
	"encoding/binary"
	"errors"
)

// ErrReadPastEnd is returned by Reader when a read would run past the end
// of the underlying slice.
var ErrReadPastEnd = errors.New("fracpack: read past end")

// Writer is an owned, growable append buffer. Fields are appended in order;
// offset slots reserved earlier are fixed up with Patch once their target's
// position is known.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with capacity pre-reserved for hint bytes.
func NewWriter(hint int) *Writer {
	if hint < 0 {
		hint = 0
	}
	return &Writer{buf: make([]byte, 0, hint)}
}

// Len returns the current buffer length.
func (w *Writer) Len() uint32 { return uint32(len(w.buf)) }

// Extend appends b to the buffer.
func (w *Writer) Extend(b []byte) { w.buf = append(w.buf, b...) }

// Reserve appends n zero bytes and returns the position they start at, for
// later patching.
func (w *Writer) Reserve(n int) uint32 {
	pos := w.Len()
	for i := 0; i < n; i++ {
		w.buf = append(w.buf, 0)
	}
	return pos
}

// PatchU32 overwrites the 4 little-endian bytes at pos, which must have been
// written earlier (pos+4 <= Len()).
func (w *Writer) PatchU32(pos uint32, v uint32) {
	if uint64(pos)+4 > uint64(len(w.buf)) {
		panic("fracpack: patch past end of buffer")
	}
	binary.LittleEndian.PutUint32(w.buf[pos:pos+4], v)
}

// PatchU16 overwrites the 2 little-endian bytes at pos, which must have been
// written earlier (pos+2 <= Len()).
func (w *Writer) PatchU16(pos uint32, v uint16) {
	if uint64(pos)+2 > uint64(len(w.buf)) {
		panic("fracpack: patch past end of buffer")
	}
	binary.LittleEndian.PutUint16(w.buf[pos:pos+2], v)
}

// Bytes returns the accumulated buffer. The Writer must not be used after
// its Bytes are handed to a caller that may retain them.
func (w *Writer) Bytes() []byte { return w.buf }

// Reader is a borrowed, bounds-checked view over a byte slice. Every method
// takes an explicit position rather than tracking one internally, mirroring
// the fixed-cursor/heap-cursor pair fracpack decoders carry side by side.
type Reader struct {
	buf []byte
}

// NewReader wraps src for reading. src is not copied.
func NewReader(src []byte) *Reader { return &Reader{buf: src} }

// Len returns the total length of the underlying slice.
func (r *Reader) Len() uint32 { return uint32(len(r.buf)) }

// Take returns the n bytes starting at pos and advances *pos by n, or fails
// with ErrReadPastEnd.
func (r *Reader) Take(pos *uint32, n uint32) ([]byte, error) {
	start := uint64(*pos)
	end := start + uint64(n)
	if end > uint64(len(r.buf)) {
		return nil, ErrReadPastEnd
	}
	*pos += n
	return r.buf[start:end], nil
}

// PeekU32LE reads a little-endian u32 at pos without advancing it.
func (r *Reader) PeekU32LE(pos uint32) (uint32, error) {
	end := uint64(pos) + 4
	if end > uint64(len(r.buf)) {
		return 0, ErrReadPastEnd
	}
	return binary.LittleEndian.Uint32(r.buf[pos:end]), nil
}
