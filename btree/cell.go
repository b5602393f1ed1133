// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package btree

import (
	"fmt"

	"github.com/dacapoday/litescan/internal/codec"
	"github.com/dacapoday/litescan/record"
)

// Cell is one entry of a b-tree page. Which fields are present depends on
// the type of the owning page:
//
//	                 left child  payload length  rowid  payload
//	TableInterior    yes         -               yes    -
//	TableLeaf        -           yes             yes    yes
//	IndexInterior    yes         yes             -      yes
//	IndexLeaf        -           yes             -      yes
//
// Payload is nil when the payload spills onto overflow pages; Overflow then
// holds the first overflow page number.
type Cell struct {
	Type          PageType
	LeftChild     uint32
	PayloadLength int64
	RowID         int64
	Payload       record.Record
	Overflow      uint32
}

func (cell Cell) HasLeftChild() bool {
	return cell.Type.IsInterior()
}

func (cell Cell) HasPayloadLength() bool {
	return cell.Type != TableInterior
}

func (cell Cell) HasRowID() bool {
	return cell.Type.IsTable()
}

func readCell(r *codec.Reader, typ PageType, header FileHeader) (cell Cell, err error) {
	cell.Type = typ
	if cell.HasLeftChild() {
		if cell.LeftChild, err = r.Uint32(); err != nil {
			return cell, fmt.Errorf("left child: %w", err)
		}
	}
	if cell.HasPayloadLength() {
		if cell.PayloadLength, err = r.Varint(); err != nil {
			return cell, fmt.Errorf("payload length: %w", err)
		}
		if cell.PayloadLength < 0 {
			return cell, fmt.Errorf("%w: payload length %d", ErrCorruptPage, cell.PayloadLength)
		}
	}
	if cell.HasRowID() {
		if cell.RowID, err = r.Varint(); err != nil {
			return cell, fmt.Errorf("rowid: %w", err)
		}
	}
	if !cell.HasPayloadLength() {
		return cell, nil
	}

	local := localPayload(typ, header.UsableSize(), cell.PayloadLength)
	payload, err := r.Bytes(local)
	if err != nil {
		return cell, fmt.Errorf("payload: %w", err)
	}
	if local < cell.PayloadLength {
		if cell.Overflow, err = r.Uint32(); err != nil {
			return cell, fmt.Errorf("overflow page: %w", err)
		}
		return cell, nil
	}
	if cell.Payload, err = record.Parse(payload, header.TextEncoding); err != nil {
		return cell, fmt.Errorf("record: %w", err)
	}
	return cell, nil
}

// localPayload returns how many bytes of a payload of the given length are
// stored on the page itself; the rest continues on overflow pages.
func localPayload(typ PageType, usable uint32, length int64) int64 {
	u := int64(usable)
	maxLocal := u - 35
	if typ.IsIndex() {
		maxLocal = (u-12)*64/255 - 23
	}
	if length <= maxLocal {
		return length
	}
	minLocal := (u-12)*32/255 - 23
	local := minLocal + (length-minLocal)%(u-4)
	if local > maxLocal {
		local = minLocal
	}
	return local
}
