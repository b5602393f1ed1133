package main

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dacapoday/litescan/btree"
	"github.com/dacapoday/litescan/internal/crosscheck"
	"github.com/dustin/go-humanize"
)

// DumpCmd prints every entry of the tree rooted at Root.
type DumpCmd struct {
	Path           string `arg:"" help:"Database file (plain, .xz or .zst)"`
	Root           uint32 `default:"1" help:"Root page of the tree to walk"`
	Min            *int64 `help:"Smallest rowid to print"`
	Max            *int64 `help:"Largest rowid to print"`
	IndexRightMost bool   `name:"index-rightmost" help:"Also walk the right-most child of index interior pages"`
	Limit          int    `help:"Stop after this many entries (0 = all)"`
}

func (c *DumpCmd) filter() btree.Filter {
	switch {
	case c.Min != nil && c.Max != nil:
		return btree.Between(*c.Min, *c.Max)
	case c.Min != nil:
		return btree.AtLeast(*c.Min)
	case c.Max != nil:
		return btree.AtMost(*c.Max)
	}
	return btree.Filter{}
}

func (c *DumpCmd) Run(e *env) error {
	db, err := e.open(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	n, failed := 0, 0
	for entry, err := range db.Walk(c.Root, c.filter(), c.IndexRightMost) {
		if err != nil {
			fmt.Fprintf(e.stdout, "error: %v\n", err)
			failed++
			continue
		}
		fmt.Fprintln(e.stdout, entry)
		n++
		if c.Limit > 0 && n >= c.Limit {
			break
		}
	}
	e.logger.Info("dump finished", "root", c.Root, "filter", c.filter().String(), "entries", n, "errors", failed)
	if failed > 0 {
		return fmt.Errorf("walk of page %d reported %d errors", c.Root, failed)
	}
	return nil
}

// InfoCmd prints the header fields and a summary of the decoded pages.
type InfoCmd struct {
	Path string `arg:"" help:"Database file (plain, .xz or .zst)"`
}

func (c *InfoCmd) Run(e *env) error {
	db, err := e.open(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	header := db.Header()
	store := db.Store()
	size := uint64(db.Size())

	encoding := "unsupported"
	if header.TextEncoding == 1 {
		encoding = "UTF-8"
	}

	types := make(map[btree.PageType]int)
	cells := 0
	for _, page := range store.Pages() {
		types[page.Header.Type]++
		cells += len(page.Cells)
	}
	var counts []string
	for _, typ := range slices.Sorted(maps.Keys(types)) {
		counts = append(counts, fmt.Sprintf("%s=%s", typ, humanize.Comma(int64(types[typ]))))
	}

	w := e.stdout
	fmt.Fprintf(w, "file:          %s\n", c.Path)
	fmt.Fprintf(w, "compression:   %s\n", db.Compression())
	fmt.Fprintf(w, "size:          %s (%s bytes)\n", humanize.IBytes(size), humanize.Comma(int64(size)))
	fmt.Fprintf(w, "blake3:        %s\n", db.DigestHex())
	fmt.Fprintf(w, "page size:     %d\n", header.Size())
	fmt.Fprintf(w, "reserved:      %d\n", header.ReservedSpace)
	fmt.Fprintf(w, "page count:    %s\n", humanize.Comma(int64(header.PageCount)))
	fmt.Fprintf(w, "text encoding: %d (%s)\n", header.TextEncoding, encoding)
	fmt.Fprintf(w, "decoded pages: %s (%s cells)\n", humanize.Comma(int64(store.Len())), humanize.Comma(int64(cells)))
	fmt.Fprintf(w, "page types:    %s\n", strings.Join(counts, ", "))
	fmt.Fprintf(w, "failed pages:  %d\n", len(store.Failures()))
	for _, failure := range store.Failures() {
		fmt.Fprintf(w, "  %v\n", failure)
	}
	return nil
}

// PagesCmd prints one line per page, including pages that failed to decode.
type PagesCmd struct {
	Path string `arg:"" help:"Database file (plain, .xz or .zst)"`
}

func (c *PagesCmd) Run(e *env) error {
	db, err := e.open(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	store := db.Store()
	failures := make(map[uint32]*btree.PageError, len(store.Failures()))
	last := uint32(0)
	for _, failure := range store.Failures() {
		failures[failure.Page] = failure
		last = max(last, failure.Page)
	}
	for n := range store.Pages() {
		last = max(last, n)
	}

	for n := uint32(1); n <= last; n++ {
		if page, ok := store.Page(n); ok {
			line := fmt.Sprintf("%6d  %-14s cells=%d", n, page.Header.Type, len(page.Cells))
			if page.Header.Type.IsInterior() {
				line += fmt.Sprintf(" right=%d", page.Header.RightMost)
			}
			fmt.Fprintln(e.stdout, line)
			continue
		}
		if failure, ok := failures[n]; ok {
			fmt.Fprintf(e.stdout, "%6d  error: %v\n", n, failure.Err)
		}
	}
	return nil
}

// VerifyCmd cross-checks every table against the SQLite engine.
type VerifyCmd struct {
	Path string `arg:"" help:"Database file (plain, .xz or .zst)"`
}

func (c *VerifyCmd) Run(e *env) error {
	db, err := e.open(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := crosscheck.Run(context.Background(), db.File(), db.Store(), e.logger)
	if err != nil {
		return err
	}
	bad := 0
	for _, result := range results {
		fmt.Fprintln(e.stdout, result)
		if !result.OK() {
			bad++
		}
	}
	if bad > 0 {
		return fmt.Errorf("%d of %d tables disagree", bad, len(results))
	}
	return nil
}
