// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package btree

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"
)

// File header layout (first 100 bytes of page 1), big-endian:
//
//	[0:16]  magic string "SQLite format 3\x00"
//	[16:18] page size, 1 means 65536
//	[20]    reserved bytes at the end of every page
//	[28:32] database size in pages
//	[56:60] text encoding, 1 = UTF-8
//
// The remaining fields are not needed to decode pages.

// HeaderSize is the length of the file header at the start of page 1.
const HeaderSize = 100

// Magic is the string every database file starts with.
const Magic = "SQLite format 3\x00"

const (
	MinPageSize = 512
	MaxPageSize = 65536

	// minUsableSize is the smallest usable page size the format allows.
	minUsableSize = 480
)

// FileHeader holds the file header fields the decoder uses.
type FileHeader struct {
	Magic         [16]byte
	PageSize      uint16
	ReservedSpace uint8
	PageCount     uint32
	TextEncoding  uint32
}

// ReadHeader reads the file header from the start of r.
// It does not validate the fields; call Validate before addressing pages.
func ReadHeader(r io.ReaderAt) (FileHeader, error) {
	var buf [HeaderSize]byte
	n, err := r.ReadAt(buf[:], 0)
	if n < HeaderSize {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return FileHeader{}, fmt.Errorf("%w: file header: %d of %d bytes: %w", ErrTruncated, n, HeaderSize, err)
	}

	var header FileHeader
	copy(header.Magic[:], buf[:16])
	header.PageSize = binary.BigEndian.Uint16(buf[16:])
	header.ReservedSpace = buf[20]
	header.PageCount = binary.BigEndian.Uint32(buf[28:])
	header.TextEncoding = binary.BigEndian.Uint32(buf[56:])
	return header, nil
}

// Size returns the page size in bytes.
func (header FileHeader) Size() uint32 {
	if header.PageSize == 1 {
		return MaxPageSize
	}
	return uint32(header.PageSize)
}

// UsableSize returns the page size minus the reserved space.
func (header FileHeader) UsableSize() uint32 {
	return header.Size() - uint32(header.ReservedSpace)
}

// Validate checks the magic string and the page size.
func (header FileHeader) Validate() error {
	if string(header.Magic[:]) != Magic {
		return fmt.Errorf("%w: %q", ErrUnknownMagicCode, header.Magic[:])
	}
	size := header.Size()
	if size < MinPageSize || size > MaxPageSize || bits.OnesCount32(size) != 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, header.PageSize)
	}
	if usable := header.UsableSize(); usable < minUsableSize {
		return fmt.Errorf("%w: %d usable bytes (%d reserved)", ErrInvalidPageSize, usable, header.ReservedSpace)
	}
	return nil
}

// Offset returns the absolute offset of page number n.
func (header FileHeader) Offset(n uint32) int64 {
	return int64(n-1) * int64(header.Size())
}
