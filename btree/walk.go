// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package btree

import (
	"fmt"
	"iter"
	"math"
	"slices"

	"github.com/dacapoday/litescan/record"
)

// Entry is one row or index entry produced by a walk.
type Entry struct {
	Page     uint32 // page the cell was read from
	Type     PageType
	RowID    int64 // table entries only
	Record   record.Record
	Overflow uint32 // first overflow page when Record is nil
}

func newEntry(page *Page, cell Cell) Entry {
	return Entry{
		Page:     page.Number,
		Type:     cell.Type,
		RowID:    cell.RowID,
		Record:   cell.Payload,
		Overflow: cell.Overflow,
	}
}

// Key returns the first value of an index entry.
func (e Entry) Key() record.Value {
	return e.Record.Field(0)
}

// Val returns the second value of an index entry.
func (e Entry) Val() record.Value {
	return e.Record.Field(1)
}

// String formats a table row as "[rowid]: [v1, v2]" and an index entry as
// "key => value".
func (e Entry) String() string {
	if e.Record == nil && e.Overflow != 0 {
		if e.Type.IsTable() {
			return fmt.Sprintf("[%d]: <overflow page %d>", e.RowID, e.Overflow)
		}
		return fmt.Sprintf("<overflow page %d>", e.Overflow)
	}
	if e.Type.IsTable() {
		return fmt.Sprintf("[%d]: %s", e.RowID, e.Record)
	}
	return fmt.Sprintf("%s => %s", e.Key(), e.Val())
}

// Walker walks one tree of a Store depth first, in key order.
//
//	TableInterior: children whose rowid range meets the filter, then the
//	               right-most child
//	TableLeaf:     rows matching the filter
//	IndexInterior: for each matching cell its left child, then the cell
//	               itself; the right-most child only if IndexRightMost
//	IndexLeaf:     entries matching the filter
//
// The walk uses an explicit work stack and never visits a page twice.
type Walker struct {
	Store  *Store
	Filter Filter

	// IndexRightMost also descends into the right-most child of index
	// interior pages, which holds the largest keys of the subtree.
	IndexRightMost bool
}

type step struct {
	page   uint32
	parent uint32
	entry  *Entry // emit instead of visiting
}

// Walk returns an iterator over the entries reachable from root.
//
// Problems with one subtree do not end the walk: a child absent from the
// store yields a *MissingPageError, and a page reached a second time yields
// an error wrapping ErrCycle, after which the walk continues with the next
// pending page. Breaking out of the loop stops the walk.
func (w Walker) Walk(root uint32) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		visited := make(map[uint32]struct{})
		stack := []step{{page: root}}
		for len(stack) > 0 {
			s := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if s.entry != nil {
				if !yield(*s.entry, nil) {
					return
				}
				continue
			}

			page, ok := w.Store.Page(s.page)
			if !ok {
				if !yield(Entry{}, &MissingPageError{Page: s.page, Parent: s.parent}) {
					return
				}
				continue
			}
			if _, seen := visited[s.page]; seen {
				if !yield(Entry{}, fmt.Errorf("%w: page %d reached again from page %d", ErrCycle, s.page, s.parent)) {
					return
				}
				continue
			}
			visited[s.page] = struct{}{}

			// steps are appended in walk order, then reversed onto the stack
			mark := len(stack)
			stack = w.expand(stack, page)
			slices.Reverse(stack[mark:])
		}
	}
}

func (w Walker) expand(stack []step, page *Page) []step {
	child := func(n uint32) step {
		return step{page: n, parent: page.Number}
	}
	emit := func(cell Cell) step {
		entry := newEntry(page, cell)
		return step{entry: &entry}
	}

	switch page.Header.Type {
	case TableInterior:
		lower := int64(math.MinInt64)
		for i, cell := range page.Cells {
			// the left child holds rowids in (previous key, cell.RowID]
			if w.Filter.Matches(cell) || w.overlaps(lower, cell.RowID, i == 0) {
				stack = append(stack, child(cell.LeftChild))
			}
			lower = cell.RowID
		}
		stack = append(stack, child(page.Header.RightMost))
	case TableLeaf, IndexLeaf:
		for _, cell := range page.Cells {
			if w.Filter.Matches(cell) {
				stack = append(stack, emit(cell))
			}
		}
	case IndexInterior:
		for _, cell := range page.Cells {
			if w.Filter.Matches(cell) {
				stack = append(stack, child(cell.LeftChild), emit(cell))
			}
		}
		if w.IndexRightMost {
			stack = append(stack, child(page.Header.RightMost))
		}
	}
	return stack
}

// overlaps reports whether the rowid range (lower, upper] of a table child
// meets the filter. When first is set the range has no lower bound.
func (w Walker) overlaps(lower, upper int64, first bool) bool {
	f := w.Filter
	if !f.Bounded() {
		return true
	}
	if f.hasMin && upper < f.min {
		return false
	}
	if f.hasMax && !first && lower >= f.max {
		return false
	}
	return true
}
