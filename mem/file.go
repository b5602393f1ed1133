package mem

import (
	"io"
	"slices"
	"sync"

	"github.com/dacapoday/litescan"
)

// File is an in-memory database image.
// It is safe for concurrent use by multiple goroutines.
//
// File requires no initialization - just declare and use:
//
//	var f File
//	f.ReadFrom(r)
//
// The image is held in one contiguous buffer, since the decoder loads a
// whole file up front and then addresses it by page.
type File struct {
	rw  sync.RWMutex
	buf []byte
}

var _ litescan.File = new(File)

// FromBytes returns a File holding b. b is not copied and must not be
// modified afterwards.
func FromBytes(b []byte) *File {
	return &File{buf: b}
}

// Close releases the image. The file size becomes 0.
// It is safe to write to the file again after closing.
func (file *File) Close() error {
	file.rw.Lock()
	file.buf = nil
	file.rw.Unlock()
	return nil
}

// Size returns the current size of the image in bytes.
func (file *File) Size() int64 {
	file.rw.RLock()
	defer file.rw.RUnlock()
	return int64(len(file.buf))
}

// Bytes returns the image. The returned slice aliases the file and must
// not be modified; it is invalidated by the next write.
func (file *File) Bytes() []byte {
	file.rw.RLock()
	defer file.rw.RUnlock()
	return file.buf
}

const chunkSize = 32 * 1024

// ReadFrom reads data from r until EOF and replaces the entire image.
// It implements io.ReaderFrom interface.
//
// ReadFrom returns the number of bytes read and any error encountered,
// except that io.EOF is not returned as an error.
func (file *File) ReadFrom(r io.Reader) (n int64, err error) {
	file.rw.Lock()
	defer file.rw.Unlock()
	buf := file.buf[:0]
	for {
		buf = slices.Grow(buf, chunkSize)
		c, err := r.Read(buf[len(buf):cap(buf)])
		if c > 0 {
			buf = buf[:len(buf)+c]
			n += int64(c)
		}
		if err != nil {
			file.buf = buf
			if err == io.EOF {
				err = nil
			}
			return n, err
		}
	}
}

// WriteTo writes the entire image to w.
// It implements io.WriterTo interface.
func (file *File) WriteTo(w io.Writer) (n int64, err error) {
	file.rw.RLock()
	defer file.rw.RUnlock()
	c, err := w.Write(file.buf)
	return int64(c), err
}

// WriteAt writes len(p) bytes from p at byte offset off.
// It implements io.WriterAt interface.
//
// Writing past the end grows the image; the gap is filled with zero bytes.
func (file *File) WriteAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, io.ErrUnexpectedEOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	file.rw.Lock()
	defer file.rw.Unlock()
	if end := off + int64(len(p)); end > int64(len(file.buf)) {
		file.buf = append(file.buf, make([]byte, end-int64(len(file.buf)))...)
	}
	return copy(file.buf[off:], p), nil
}

// ReadAt reads len(p) bytes into p starting at byte offset off.
// It implements io.ReaderAt interface; a read that reaches the end of the
// image returns io.EOF along with the bytes that were available.
func (file *File) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, io.ErrUnexpectedEOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	file.rw.RLock()
	defer file.rw.RUnlock()
	if off >= int64(len(file.buf)) {
		return 0, io.EOF
	}
	n = copy(p, file.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Truncate changes the size of the image.
// Growing fills the new space with zero bytes.
func (file *File) Truncate(size int64) error {
	if size < 0 {
		return io.ErrUnexpectedEOF
	}
	file.rw.Lock()
	defer file.rw.Unlock()
	if size <= int64(len(file.buf)) {
		file.buf = file.buf[:size]
		return nil
	}
	file.buf = append(file.buf, make([]byte, size-int64(len(file.buf)))...)
	return nil
}
