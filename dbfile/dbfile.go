// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// Package dbfile opens database files from disk, decompressing them when
// needed, and decodes them into a page store.
package dbfile

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"

	"github.com/dacapoday/litescan"
	"github.com/dacapoday/litescan/btree"
	"github.com/dacapoday/litescan/mem"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"
)

var (
	ErrInvalidInput     = litescan.ErrInvalidInput
	ErrUnknownMagicCode = litescan.ErrUnknownMagicCode
)

// Compression names the container a database image was read from.
type Compression string

const (
	None Compression = "none"
	XZ   Compression = "xz"
	Zstd Compression = "zstd"
)

var (
	xzMagic   = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
)

// DB is a database image held in memory together with its decoded pages.
type DB struct {
	file        mem.File
	store       *btree.Store
	digest      [32]byte
	compression Compression
	logger      *slog.Logger
}

type options struct {
	logger *slog.Logger
}

// Option configures Open and Load.
type Option func(*options)

// WithLogger sets the logger that receives load statistics and skipped
// pages. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Open reads the file at path and decodes it.
// Files compressed with xz or zstd are recognized by their magic bytes.
func Open(path string, opts ...Option) (db *DB, err error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidInput)
	}
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	db, err = Load(file, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return
}

// Load reads a whole database image from r and decodes it.
// A bad file header is an error; pages that fail to decode are logged at
// warn level and reported by Store().Failures().
func Load(r io.Reader, opts ...Option) (*DB, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	db := &DB{logger: o.logger}
	src, closer, err := db.decompress(bufio.NewReader(r))
	if err != nil {
		return nil, err
	}
	defer closer()

	if _, err = db.file.ReadFrom(src); err != nil {
		return nil, fmt.Errorf("read %s image: %w", db.compression, err)
	}
	db.digest = blake3.Sum256(db.file.Bytes())

	if db.store, err = btree.Load(&db.file); err != nil {
		db.file.Close()
		return nil, err
	}

	for _, failure := range db.store.Failures() {
		db.logger.Warn("page skipped", "page", failure.Page, "err", failure.Err)
	}
	header := db.store.Header()
	db.logger.Debug("database loaded",
		"compression", db.compression,
		"size", db.file.Size(),
		"page_size", header.Size(),
		"pages", db.store.Len(),
		"failed", len(db.store.Failures()),
		"digest", db.DigestHex(),
	)
	return db, nil
}

func (db *DB) decompress(br *bufio.Reader) (io.Reader, func(), error) {
	head, _ := br.Peek(len(xzMagic))
	switch {
	case bytes.HasPrefix(head, xzMagic):
		db.compression = XZ
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("open xz stream: %w", err)
		}
		return xr, func() {}, nil
	case bytes.HasPrefix(head, zstdMagic):
		db.compression = Zstd
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("open zstd stream: %w", err)
		}
		return zr, zr.Close, nil
	}
	db.compression = None
	return br, func() {}, nil
}

// Header returns the decoded file header.
func (db *DB) Header() btree.FileHeader {
	return db.store.Header()
}

// Store returns the decoded pages.
func (db *DB) Store() *btree.Store {
	return db.store
}

// File returns the uncompressed image.
func (db *DB) File() litescan.File {
	return &db.file
}

// Size returns the size of the uncompressed image.
func (db *DB) Size() int64 {
	return db.file.Size()
}

// Compression returns the container the image was read from.
func (db *DB) Compression() Compression {
	return db.compression
}

// Digest returns the BLAKE3-256 digest of the uncompressed image.
func (db *DB) Digest() [32]byte {
	return db.digest
}

func (db *DB) DigestHex() string {
	return hex.EncodeToString(db.digest[:])
}

// Walk walks the tree rooted at root. See btree.Walker.
func (db *DB) Walk(root uint32, filter btree.Filter, indexRightMost bool) iter.Seq2[btree.Entry, error] {
	return btree.Walker{Store: db.store, Filter: filter, IndexRightMost: indexRightMost}.Walk(root)
}

// Close releases the image.
func (db *DB) Close() error {
	return db.file.Close()
}
