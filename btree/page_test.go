package btree

import (
	"encoding/binary"
	"testing"

	"github.com/dacapoday/litescan/internal/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageType(t *testing.T) {
	for _, typ := range []PageType{IndexInterior, TableInterior, IndexLeaf, TableLeaf} {
		got, err := ParsePageType(byte(typ))
		require.NoError(t, err)
		require.Equal(t, typ, got)
		require.NotEqual(t, typ.IsLeaf(), typ.IsInterior())
		require.NotEqual(t, typ.IsTable(), typ.IsIndex())
	}

	_, err := ParsePageType(0x00)
	require.ErrorIs(t, err, ErrInvalidPageType)
	require.EqualError(t, err, "invalid page type: 0x00")

	_, err = ParsePageType(0x0B)
	require.ErrorContains(t, err, "0x0b")
}

func TestReadPageCells(t *testing.T) {
	img := newImage(t, 3, 1)
	img.page(1, TableLeaf, 0)
	img.page(2, TableInterior, 3,
		tableInteriorCell(7, 100),
		tableInteriorCell(9, 200),
	)
	img.page(3, IndexInterior, 11,
		indexInteriorCell(4, row("k", 1)),
	)

	header, err := ReadHeader(&img.file)
	require.NoError(t, err)

	page, err := ReadPage(&img.file, header, 2)
	require.NoError(t, err)
	require.Equal(t, uint32(2), page.Number)
	require.Equal(t, TableInterior, page.Header.Type)
	require.Equal(t, uint16(2), page.Header.CellCount)
	require.Equal(t, uint32(3), page.Header.RightMost)
	require.Len(t, page.Cells, 2)
	assert.Equal(t, uint32(7), page.Cells[0].LeftChild)
	assert.Equal(t, int64(100), page.Cells[0].RowID)
	assert.Nil(t, page.Cells[0].Payload)
	assert.False(t, page.Cells[0].HasPayloadLength())
	assert.Equal(t, uint32(9), page.Child(1))
	assert.Equal(t, uint32(3), page.Child(2))

	page, err = ReadPage(&img.file, header, 3)
	require.NoError(t, err)
	cell := page.Cells[0]
	assert.True(t, cell.HasLeftChild())
	assert.True(t, cell.HasPayloadLength())
	assert.False(t, cell.HasRowID())
	assert.Equal(t, uint32(4), cell.LeftChild)
	assert.Equal(t, `["k", 1]`, cell.Payload.String())

	page, err = ReadPage(&img.file, header, 1)
	require.NoError(t, err)
	require.Empty(t, page.Cells)
	require.Zero(t, page.Header.RightMost)
}

// The offset array, not the physical position, fixes the cell order.
func TestReadPageOffsetOrder(t *testing.T) {
	img := newImage(t, 2, 1)
	img.page(1, TableLeaf, 0)
	img.page(2, TableLeaf, 0,
		tableLeafCell(1, row("one")),
		tableLeafCell(2, row("two")),
		tableLeafCell(3, row("three")),
	)
	// swap the first two offsets
	var ptrs [4]byte
	header, err := ReadHeader(&img.file)
	require.NoError(t, err)
	_, err = img.file.ReadAt(ptrs[:], header.Offset(2)+8)
	require.NoError(t, err)
	img.raw(2, 8, []byte{ptrs[2], ptrs[3], ptrs[0], ptrs[1]})

	page, err := ReadPage(&img.file, header, 2)
	require.NoError(t, err)
	require.Equal(t, int64(2), page.Cells[0].RowID)
	require.Equal(t, int64(1), page.Cells[1].RowID)
	require.Equal(t, int64(3), page.Cells[2].RowID)
}

func TestReadPageFailures(t *testing.T) {
	img := newImage(t, 4, 1)
	img.page(1, TableLeaf, 0)
	img.page(2, TableLeaf, 0, tableLeafCell(1, row(1)))
	// cell offset beyond the page
	img.raw(2, 8, []byte{0x02, 0x00})
	// reserved serial type in a record
	img.page(3, TableLeaf, 0, tableLeafCell(1, nil))
	cell := append(codec.AppendVarint(nil, 2), 5, 0x02, 0x0A)
	img.page(4, TableLeaf, 0, cell)

	header, err := ReadHeader(&img.file)
	require.NoError(t, err)

	_, err = ReadPage(&img.file, header, 2)
	var perr *PageError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, uint32(2), perr.Page)
	require.ErrorIs(t, err, ErrCorruptPage)

	_, err = ReadPage(&img.file, header, 4)
	require.ErrorIs(t, err, ErrInvalidRecordType)
	require.ErrorContains(t, err, "page 4")

	_, err = ReadPage(&img.file, header, 9)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestReadPageUnsupportedEncoding(t *testing.T) {
	img := newImage(t, 2, 2)
	img.page(1, TableLeaf, 0)
	img.page(2, TableLeaf, 0,
		tableLeafCell(1, row(1, []byte{0xFF})),
		tableLeafCell(2, row("text")),
	)

	store := img.load()
	require.Len(t, store.Failures(), 1)
	require.ErrorIs(t, store.Failures()[0], ErrUnsupportedEncoding)
	_, ok := store.Page(2)
	require.False(t, ok)
	_, ok = store.Page(1)
	require.True(t, ok)
}

func TestLocalPayload(t *testing.T) {
	cases := []struct {
		typ    PageType
		length int64
		local  int64
	}{
		{TableLeaf, 0, 0},
		{TableLeaf, 477, 477},
		{TableLeaf, 478, 39},
		{TableLeaf, 1000, 39},
		{TableLeaf, 600, 92},
		{IndexLeaf, 102, 102},
		{IndexLeaf, 103, 39},
		{IndexInterior, 2000, 39},
	}
	for _, c := range cases {
		require.Equal(t, c.local, localPayload(c.typ, 512, c.length), "%v length %d", c.typ, c.length)
	}
}

func TestReadPageOverflowCell(t *testing.T) {
	img := newImage(t, 2, 1)
	img.page(1, TableLeaf, 0)

	cell := codec.AppendVarint(nil, 1000)
	cell = codec.AppendVarint(cell, 42)
	cell = append(cell, make([]byte, 39)...)
	cell = binary.BigEndian.AppendUint32(cell, 7)
	img.page(2, TableLeaf, 0, cell, tableLeafCell(43, row("small")))

	header, err := ReadHeader(&img.file)
	require.NoError(t, err)
	page, err := ReadPage(&img.file, header, 2)
	require.NoError(t, err)

	big := page.Cells[0]
	require.Equal(t, int64(1000), big.PayloadLength)
	require.Equal(t, uint32(7), big.Overflow)
	require.Nil(t, big.Payload)
	require.Equal(t, "[42]: <overflow page 7>", newEntry(page, big).String())

	require.Zero(t, page.Cells[1].Overflow)
	require.Equal(t, `[43]: ["small"]`, newEntry(page, page.Cells[1]).String())
}
