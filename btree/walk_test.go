// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package btree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoLeaves: rowids {10, 5, 20} in two leaves, the higher keys on the lower
// page number.
func twoLeaves(t *testing.T) *Store {
	img := newImage(t, 3, 1)
	img.page(1, TableInterior, 2, tableInteriorCell(3, 5))
	img.page(2, TableLeaf, 0,
		tableLeafCell(10, row("ten")),
		tableLeafCell(20, row("twenty")),
	)
	img.page(3, TableLeaf, 0, tableLeafCell(5, row("five")))
	return img.load()
}

func TestWalkTableOrder(t *testing.T) {
	store := twoLeaves(t)
	require.Empty(t, store.Failures())

	entries, errs := collect(store.Walk(1, Filter{}))
	require.Empty(t, errs)
	require.Equal(t, []int64{5, 10, 20}, rowids(entries))
	assert.Equal(t, uint32(3), entries[0].Page)
	assert.Equal(t, TableLeaf, entries[0].Type)
	assert.Equal(t, `[5]: ["five"]`, entries[0].String())
	assert.Equal(t, `[20]: ["twenty"]`, entries[2].String())
}

// rangeTree: leaves 290..299, 300..315, 316..330, 331..340 under one root.
func rangeTree(t *testing.T) *Store {
	img := newImage(t, 5, 1)
	img.page(1, TableInterior, 5,
		tableInteriorCell(2, 299),
		tableInteriorCell(3, 315),
		tableInteriorCell(4, 330),
	)
	leaf := func(n uint32, from, to int64) {
		var cells [][]byte
		for id := from; id <= to; id++ {
			cells = append(cells, tableLeafCell(id, row(int(id)*2)))
		}
		img.page(n, TableLeaf, 0, cells...)
	}
	leaf(2, 290, 299)
	leaf(3, 300, 315)
	leaf(4, 316, 330)
	leaf(5, 331, 340)
	return img.load()
}

func span(from, to int64) []int64 {
	var ids []int64
	for id := from; id <= to; id++ {
		ids = append(ids, id)
	}
	return ids
}

func TestWalkFilter(t *testing.T) {
	store := rangeTree(t)
	require.Empty(t, store.Failures())

	cases := []struct {
		filter Filter
		want   []int64
	}{
		{Filter{}, span(290, 340)},
		{Between(300, 320), span(300, 320)},
		{Between(316, 320), span(316, 320)},
		{Between(299, 300), span(299, 300)},
		{AtLeast(335), span(335, 340)},
		{AtMost(292), span(290, 292)},
		{Between(1000, 2000), nil},
		{Between(0, 100), nil},
	}
	for _, c := range cases {
		t.Run(c.filter.String(), func(t *testing.T) {
			entries, errs := collect(store.Walk(1, c.filter))
			require.Empty(t, errs)
			require.Equal(t, c.want, rowids(entries))
			for _, e := range entries {
				require.Equal(t, e.RowID*2, e.Record[0].Int())
			}
		})
	}
}

func TestWalkInvalidPageType(t *testing.T) {
	img := newImage(t, 3, 1)
	img.page(1, TableInterior, 2, tableInteriorCell(3, 5))
	img.page(2, TableLeaf, 0, tableLeafCell(10, row("ten")))
	// page 3 stays zeroed: type byte 0x00

	store := img.load()
	require.Len(t, store.Failures(), 1)
	failure := store.Failures()[0]
	require.Equal(t, uint32(3), failure.Page)
	require.ErrorIs(t, failure, ErrInvalidPageType)
	require.ErrorContains(t, failure, "invalid page type: 0x00")
	_, ok := store.Page(3)
	require.False(t, ok)
	require.Equal(t, 2, store.Len())

	entries, errs := collect(store.Walk(1, Filter{}))
	require.Equal(t, []int64{10}, rowids(entries))
	require.Len(t, errs, 1)
	var missing *MissingPageError
	require.ErrorAs(t, errs[0], &missing)
	require.Equal(t, uint32(3), missing.Page)
	require.Equal(t, uint32(1), missing.Parent)
	require.ErrorIs(t, errs[0], ErrMissingPage)
}

func TestWalkMissingRoot(t *testing.T) {
	store := twoLeaves(t)
	entries, errs := collect(store.Walk(99, Filter{}))
	require.Empty(t, entries)
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], ErrMissingPage)
	require.EqualError(t, errs[0], "missing page: root page 99")
}

func TestWalkCycle(t *testing.T) {
	img := newImage(t, 2, 1)
	img.page(1, TableInterior, 1, tableInteriorCell(2, 10))
	img.page(2, TableLeaf, 0, tableLeafCell(1, row("a")), tableLeafCell(10, row("b")))
	store := img.load()

	entries, errs := collect(store.Walk(1, Filter{}))
	require.Equal(t, []int64{1, 10}, rowids(entries))
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], ErrCycle)
}

func TestWalkStop(t *testing.T) {
	store := rangeTree(t)
	var got []int64
	for entry, err := range store.Walk(1, Filter{}) {
		require.NoError(t, err)
		got = append(got, entry.RowID)
		if len(got) == 3 {
			break
		}
	}
	require.Equal(t, []int64{290, 291, 292}, got)
}

// indexTree: a table leaf at page 1 and an index rooted at page 2.
func indexTree(t *testing.T) *Store {
	img := newImage(t, 4, 1)
	img.page(1, TableLeaf, 0)
	img.page(2, IndexInterior, 4, indexInteriorCell(3, row("m", 5)))
	img.page(3, IndexLeaf, 0,
		indexLeafCell(row("a", 1)),
		indexLeafCell(row("c", 2)),
	)
	img.page(4, IndexLeaf, 0, indexLeafCell(row("x", 9)))
	return img.load()
}

func TestWalkIndex(t *testing.T) {
	store := indexTree(t)
	require.Empty(t, store.Failures())

	entries, errs := collect(store.Walk(2, Filter{}))
	require.Empty(t, errs)
	require.Equal(t, []string{"a", "c", "m"}, keys(entries))
	assert.Equal(t, `"m" => 5`, entries[2].String())
	assert.Equal(t, IndexInterior, entries[2].Type)
	assert.Equal(t, int64(5), entries[2].Val().Int())

	walker := Walker{Store: store, IndexRightMost: true}
	entries, errs = collect(walker.Walk(2))
	require.Empty(t, errs)
	require.Equal(t, []string{"a", "c", "m", "x"}, keys(entries))

	// index cells carry no rowid, so a bounded filter matches nothing
	entries, errs = collect(store.Walk(2, AtLeast(0)))
	require.Empty(t, errs)
	require.Empty(t, entries)
}

func TestWalkConcurrent(t *testing.T) {
	store := rangeTree(t)
	done := make(chan []int64)
	for range 4 {
		go func() {
			entries, _ := collect(store.Walk(1, Between(300, 320)))
			done <- rowids(entries)
		}()
	}
	for range 4 {
		require.Equal(t, span(300, 320), <-done)
	}
}
