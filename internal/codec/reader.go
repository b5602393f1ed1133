// Package codec reads the big-endian fixed-width and variable-length integers
// used throughout the database file.
package codec

import (
	"fmt"
	"io"

	"github.com/dacapoday/litescan"
)

// Reader is a sequential cursor over an io.ReaderAt.
// Reads never go past the size given to NewReader; a short read fails with
// an error wrapping litescan.ErrTruncated.
type Reader struct {
	src  io.ReaderAt
	size int64
	pos  int64
	buf  [8]byte
}

// NewReader returns a Reader over the first size bytes of src, positioned at 0.
func NewReader(src io.ReaderAt, size int64) *Reader {
	return &Reader{src: src, size: size}
}

// Pos returns the current absolute position.
func (r *Reader) Pos() int64 {
	return r.pos
}

// Size returns the number of readable bytes.
func (r *Reader) Size() int64 {
	return r.size
}

// SeekTo moves the cursor to the absolute position pos.
func (r *Reader) SeekTo(pos int64) {
	r.pos = pos
}

func (r *Reader) truncated(want int) error {
	return fmt.Errorf("%w: reading %d bytes at offset %d: %w", litescan.ErrTruncated, want, r.pos, io.ErrUnexpectedEOF)
}

// ReadFull fills p from the current position and advances past it.
func (r *Reader) ReadFull(p []byte) error {
	if r.pos < 0 || r.pos+int64(len(p)) > r.size {
		return r.truncated(len(p))
	}
	n, err := r.src.ReadAt(p, r.pos)
	if n < len(p) {
		if err == nil || err == io.EOF {
			return r.truncated(len(p))
		}
		return fmt.Errorf("%w: %w", litescan.ErrTruncated, err)
	}
	r.pos += int64(n)
	return nil
}

// ReadByte implements io.ByteReader.
func (r *Reader) ReadByte() (byte, error) {
	if err := r.ReadFull(r.buf[:1]); err != nil {
		return 0, err
	}
	return r.buf[0], nil
}

func (r *Reader) Uint8() (uint8, error) {
	return r.ReadByte()
}

func (r *Reader) Uint16() (uint16, error) {
	if err := r.ReadFull(r.buf[:2]); err != nil {
		return 0, err
	}
	return uint16(r.buf[0])<<8 | uint16(r.buf[1]), nil
}

func (r *Reader) Uint32() (uint32, error) {
	if err := r.ReadFull(r.buf[:4]); err != nil {
		return 0, err
	}
	return uint32(r.buf[0])<<24 | uint32(r.buf[1])<<16 | uint32(r.buf[2])<<8 | uint32(r.buf[3]), nil
}

// Uint64 reads 8 bytes as a big-endian unsigned integer.
func (r *Reader) Uint64() (uint64, error) {
	if err := r.ReadFull(r.buf[:8]); err != nil {
		return 0, err
	}
	var v uint64
	for _, b := range r.buf {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

// Int reads a big-endian two's complement integer of width bytes (1 to 8)
// and sign-extends it to 64 bits.
func (r *Reader) Int(width int) (int64, error) {
	if width < 1 || width > 8 {
		return 0, fmt.Errorf("integer width %d out of range", width)
	}
	if err := r.ReadFull(r.buf[:width]); err != nil {
		return 0, err
	}
	var v uint64
	for _, b := range r.buf[:width] {
		v = v<<8 | uint64(b)
	}
	shift := 64 - 8*uint(width)
	return int64(v<<shift) >> shift, nil
}

// Bytes reads the next n bytes into a newly allocated slice.
func (r *Reader) Bytes(n int64) ([]byte, error) {
	if n < 0 || r.pos+n > r.size {
		return nil, r.truncated(int(min(n, 1<<31-1)))
	}
	p := make([]byte, n)
	if err := r.ReadFull(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Varint reads one variable-length integer.
func (r *Reader) Varint() (int64, error) {
	return ReadVarint(r)
}
