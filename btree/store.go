// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package btree

import (
	"fmt"
	"iter"
	"math"
	"slices"

	"github.com/dacapoday/litescan"
)

// Store maps page numbers to decoded pages.
// It is built once by Load and read-only afterwards, so concurrent walks
// over one Store are safe.
type Store struct {
	header   FileHeader
	pages    map[uint32]*Page
	failures []*PageError
}

// Load reads the file header and decodes every page of file.
//
// A bad file header fails the whole load. A page that fails to decode is
// recorded in Failures and left out of the store; walks that reach it
// report a *MissingPageError.
func Load(file litescan.File) (*Store, error) {
	header, err := ReadHeader(file)
	if err != nil {
		return nil, err
	}
	if err = header.Validate(); err != nil {
		return nil, err
	}
	return LoadPages(file, header), nil
}

// LoadPages decodes every page of file under an already validated header.
// A zero page count in the header falls back to the file size. Pages the
// header counts past the end of the file are reported as one ErrTruncated
// failure naming the first missing page.
func LoadPages(file litescan.File, header FileHeader) *Store {
	available := uint32(min(file.Size()/int64(header.Size()), math.MaxUint32))
	count := header.PageCount
	if count == 0 {
		count = available
	}
	decoded := min(count, available)

	store := &Store{
		header: header,
		pages:  make(map[uint32]*Page, decoded),
	}
	for n := uint64(1); n <= uint64(decoded); n++ {
		page, err := ReadPage(file, header, uint32(n))
		if err != nil {
			store.failures = append(store.failures, err.(*PageError))
			continue
		}
		store.pages[uint32(n)] = page
	}
	if count > available {
		err := fmt.Errorf("%w: pages %d to %d are past the end of the file (%d bytes)",
			ErrTruncated, available+1, count, file.Size())
		store.failures = append(store.failures, &PageError{Page: available + 1, Err: err})
	}
	return store
}

// Header returns the file header the store was decoded with.
func (store *Store) Header() FileHeader {
	return store.header
}

// Page returns page n and whether it was decoded.
func (store *Store) Page(n uint32) (*Page, bool) {
	page, ok := store.pages[n]
	return page, ok
}

// Len returns the number of decoded pages.
func (store *Store) Len() int {
	return len(store.pages)
}

// Pages iterates over the decoded pages in page number order.
func (store *Store) Pages() iter.Seq2[uint32, *Page] {
	return func(yield func(uint32, *Page) bool) {
		numbers := make([]uint32, 0, len(store.pages))
		for n := range store.pages {
			numbers = append(numbers, n)
		}
		slices.Sort(numbers)
		for _, n := range numbers {
			if !yield(n, store.pages[n]) {
				return
			}
		}
	}
}

// Failures returns the pages that failed to decode, in page number order.
func (store *Store) Failures() []*PageError {
	return store.failures
}

// Walk walks the tree rooted at root with filter.
// See Walker for the traversal order.
func (store *Store) Walk(root uint32, filter Filter) iter.Seq2[Entry, error] {
	return Walker{Store: store, Filter: filter}.Walk(root)
}
