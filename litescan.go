// Package litescan defines the basic interfaces for decoding SQLite database
// files into pages and records.
//
// The decoder itself lives in the btree and record packages; dbfile ties them
// to files on disk.
package litescan

import "io"

// File provides read access to a database image.
// The File interface is the minimum implementation required by the decoder.
//
// The *mem.File type satisfies this interface.
type File interface {
	io.ReaderAt

	// Size returns the size of the image in bytes.
	Size() int64
}
