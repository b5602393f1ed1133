// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package btree

import (
	"fmt"

	"github.com/dacapoday/litescan"
	"github.com/dacapoday/litescan/internal/codec"
)

// Page layout, big-endian, relative to the page start (page 1 starts its
// b-tree header after the 100-byte file header):
//
//	[0]     page type
//	[1:3]   first freeblock
//	[3:5]   number of cells
//	[5:7]   start of the cell content area
//	[7]     fragmented free bytes
//	[8:12]  right-most child page (interior pages only)
//	then    one u16 cell offset per cell, in key order
//
// Cells are stored towards the end of the page; their physical order is
// unrelated to the offset array order.

// PageType is the discriminant byte at the start of a b-tree page.
type PageType byte

const (
	IndexInterior PageType = 0x02
	TableInterior PageType = 0x05
	IndexLeaf     PageType = 0x0A
	TableLeaf     PageType = 0x0D
)

// ParsePageType maps a discriminant byte to its PageType.
func ParsePageType(b byte) (PageType, error) {
	switch typ := PageType(b); typ {
	case IndexInterior, TableInterior, IndexLeaf, TableLeaf:
		return typ, nil
	}
	return 0, fmt.Errorf("%w: 0x%02x", ErrInvalidPageType, b)
}

func (typ PageType) IsInterior() bool {
	return typ == IndexInterior || typ == TableInterior
}

func (typ PageType) IsLeaf() bool {
	return typ == IndexLeaf || typ == TableLeaf
}

func (typ PageType) IsTable() bool {
	return typ == TableInterior || typ == TableLeaf
}

func (typ PageType) IsIndex() bool {
	return typ == IndexInterior || typ == IndexLeaf
}

func (typ PageType) String() string {
	switch typ {
	case IndexInterior:
		return "index interior"
	case TableInterior:
		return "table interior"
	case IndexLeaf:
		return "index leaf"
	case TableLeaf:
		return "table leaf"
	}
	return fmt.Sprintf("page type 0x%02x", byte(typ))
}

// headerSize returns the size of the page header for typ.
func (typ PageType) headerSize() int64 {
	if typ.IsInterior() {
		return 12
	}
	return 8
}

// PageHeader is the decoded b-tree page header.
// RightMost is zero on leaf pages.
type PageHeader struct {
	Type                PageType
	FirstFreeBlock      uint16
	CellCount           uint16
	CellContentStart    uint16
	FragmentedFreeBytes uint8
	RightMost           uint32
}

func readPageHeader(r *codec.Reader) (header PageHeader, err error) {
	b, err := r.Uint8()
	if err != nil {
		return
	}
	if header.Type, err = ParsePageType(b); err != nil {
		return
	}
	if header.FirstFreeBlock, err = r.Uint16(); err != nil {
		return
	}
	if header.CellCount, err = r.Uint16(); err != nil {
		return
	}
	if header.CellContentStart, err = r.Uint16(); err != nil {
		return
	}
	if header.FragmentedFreeBytes, err = r.Uint8(); err != nil {
		return
	}
	if header.Type.IsInterior() {
		header.RightMost, err = r.Uint32()
	}
	return
}

// Page is a decoded b-tree page. Cells are in offset array order.
type Page struct {
	Number uint32
	Header PageHeader
	Cells  []Cell
}

// ReadPage decodes page number from file. Decoding is all-or-nothing: any
// failure returns a *PageError and no page.
func ReadPage(file litescan.File, header FileHeader, number uint32) (*Page, error) {
	page, err := readPage(file, header, number)
	if err != nil {
		return nil, &PageError{Page: number, Err: err}
	}
	return page, nil
}

func readPage(file litescan.File, header FileHeader, number uint32) (*Page, error) {
	if number == 0 {
		return nil, fmt.Errorf("%w: page number 0", ErrCorruptPage)
	}
	size := int64(header.Size())
	pos := header.Offset(number)
	if number == 1 {
		pos = HeaderSize
	}
	start := pos - pos%size

	r := codec.NewReader(file, file.Size())
	r.SeekTo(pos)
	ph, err := readPageHeader(r)
	if err != nil {
		return nil, err
	}

	offsets := make([]uint16, ph.CellCount)
	for i := range offsets {
		if offsets[i], err = r.Uint16(); err != nil {
			return nil, fmt.Errorf("cell offset %d: %w", i, err)
		}
	}

	usable := int64(header.UsableSize())
	first := pos - start + ph.Type.headerSize() + 2*int64(ph.CellCount)
	page := &Page{Number: number, Header: ph, Cells: make([]Cell, len(offsets))}
	for i, off := range offsets {
		if int64(off) < first || int64(off) >= usable {
			return nil, fmt.Errorf("%w: cell %d offset %d outside [%d, %d)", ErrCorruptPage, i, off, first, usable)
		}
		r.SeekTo(start + int64(off))
		if page.Cells[i], err = readCell(r, ph.Type, header); err != nil {
			return nil, fmt.Errorf("cell %d at offset %d: %w", i, off, err)
		}
	}
	return page, nil
}

// Child returns the page number the i-th child pointer of an interior page
// refers to, where i == len(Cells) names the right-most child.
func (page *Page) Child(i int) uint32 {
	if i == len(page.Cells) {
		return page.Header.RightMost
	}
	return page.Cells[i].LeftChild
}
