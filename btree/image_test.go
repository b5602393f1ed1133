package btree

import (
	"encoding/binary"
	"iter"
	"testing"

	"github.com/dacapoday/litescan/internal/codec"
	"github.com/dacapoday/litescan/mem"
	"github.com/dacapoday/litescan/record"
	"github.com/stretchr/testify/require"
)

const testPageSize = 512

// image builds a synthetic database image page by page.
type image struct {
	t    *testing.T
	file mem.File
}

func newImage(t *testing.T, pages uint32, encoding uint32) *image {
	t.Helper()
	img := &image{t: t}
	var header [HeaderSize]byte
	copy(header[:], Magic)
	binary.BigEndian.PutUint16(header[16:], testPageSize)
	header[18], header[19] = 1, 1
	header[21], header[22], header[23] = 64, 32, 32
	binary.BigEndian.PutUint32(header[28:], pages)
	binary.BigEndian.PutUint32(header[56:], encoding)
	_, err := img.file.WriteAt(header[:], 0)
	require.NoError(t, err)
	require.NoError(t, img.file.Truncate(int64(pages)*testPageSize))
	return img
}

// page writes page n with the given cells, in offset array order.
// Cell content is packed from the end of the page.
func (img *image) page(n uint32, typ PageType, rightMost uint32, cells ...[]byte) {
	img.t.Helper()
	buf := make([]byte, testPageSize)
	base := 0
	if n == 1 {
		base = HeaderSize
	}
	hdr := buf[base:]
	hdr[0] = byte(typ)
	binary.BigEndian.PutUint16(hdr[3:], uint16(len(cells)))
	ptrs := hdr[8:]
	if typ.IsInterior() {
		binary.BigEndian.PutUint32(hdr[8:], rightMost)
		ptrs = hdr[12:]
	}

	end := testPageSize
	for i, cell := range cells {
		end -= len(cell)
		require.Greater(img.t, end, base+12+2*len(cells), "page %d overfull", n)
		copy(buf[end:], cell)
		binary.BigEndian.PutUint16(ptrs[2*i:], uint16(end))
	}
	binary.BigEndian.PutUint16(hdr[5:], uint16(end))

	_, err := img.file.WriteAt(buf[base:], int64(n-1)*testPageSize+int64(base))
	require.NoError(img.t, err)
}

// raw overwrites bytes of page n starting at off.
func (img *image) raw(n uint32, off int, b []byte) {
	img.t.Helper()
	_, err := img.file.WriteAt(b, int64(n-1)*testPageSize+int64(off))
	require.NoError(img.t, err)
}

func (img *image) load() *Store {
	img.t.Helper()
	store, err := Load(&img.file)
	require.NoError(img.t, err)
	return store
}

func row(values ...any) record.Record {
	rec := make(record.Record, len(values))
	for i, v := range values {
		switch v := v.(type) {
		case nil:
			rec[i] = record.NullValue()
		case int:
			rec[i] = record.IntValue(int64(v))
		case float64:
			rec[i] = record.FloatValue(v)
		case string:
			rec[i] = record.TextValue(v)
		case []byte:
			rec[i] = record.BlobValue(v)
		default:
			panic("unsupported value")
		}
	}
	return rec
}

func tableLeafCell(rowid int64, rec record.Record) []byte {
	payload := record.Append(nil, rec)
	b := codec.AppendVarint(nil, uint64(len(payload)))
	b = codec.AppendVarint(b, uint64(rowid))
	return append(b, payload...)
}

func tableInteriorCell(left uint32, rowid int64) []byte {
	b := binary.BigEndian.AppendUint32(nil, left)
	return codec.AppendVarint(b, uint64(rowid))
}

func indexLeafCell(rec record.Record) []byte {
	payload := record.Append(nil, rec)
	b := codec.AppendVarint(nil, uint64(len(payload)))
	return append(b, payload...)
}

func indexInteriorCell(left uint32, rec record.Record) []byte {
	b := binary.BigEndian.AppendUint32(nil, left)
	return append(b, indexLeafCell(rec)...)
}

func collect(seq iter.Seq2[Entry, error]) (entries []Entry, errs []error) {
	for entry, err := range seq {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entries = append(entries, entry)
	}
	return
}

func rowids(entries []Entry) []int64 {
	var ids []int64
	for _, e := range entries {
		ids = append(ids, e.RowID)
	}
	return ids
}

func keys(entries []Entry) []string {
	var ks []string
	for _, e := range entries {
		ks = append(ks, e.Key().Text())
	}
	return ks
}
