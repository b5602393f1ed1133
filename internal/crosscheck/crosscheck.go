// Package crosscheck compares the decoder's view of a database with what the
// SQLite engine reports for the same image.
package crosscheck

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dacapoday/litescan"
	"github.com/dacapoday/litescan/btree"
	_ "modernc.org/sqlite"
)

// Result is the comparison for one table.
type Result struct {
	Table   string
	Root    uint32
	Engine  int64 // count(*) reported by the engine
	Decoded int64 // entries produced by walking the table
	Errors  []error
	Err     error // engine failure
}

// OK reports whether both sides agree and the walk saw no errors.
func (r Result) OK() bool {
	return r.Err == nil && len(r.Errors) == 0 && r.Engine == r.Decoded
}

func (r Result) String() string {
	switch {
	case r.Err != nil:
		return fmt.Sprintf("%s (root %d): engine: %v", r.Table, r.Root, r.Err)
	case r.OK():
		return fmt.Sprintf("%s (root %d): ok, %d rows", r.Table, r.Root, r.Decoded)
	}
	return fmt.Sprintf("%s (root %d): engine %d rows, decoded %d rows, %d walk errors",
		r.Table, r.Root, r.Engine, r.Decoded, len(r.Errors))
}

// Run opens a copy of file with the SQLite engine, lists the tables in its
// schema and compares each table's row count with a walk of store from the
// table's root page.
func Run(ctx context.Context, file litescan.File, store *btree.Store, logger *slog.Logger) (results []Result, err error) {
	path, cleanup, err := spill(file)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	tables, err := listTables(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	for _, result := range tables {
		result.Err = db.QueryRowContext(ctx, "SELECT count(*) FROM "+quote(result.Table)).Scan(&result.Engine)

		walker := btree.Walker{Store: store, IndexRightMost: true}
		for _, err := range walker.Walk(result.Root) {
			if err != nil {
				result.Errors = append(result.Errors, err)
				continue
			}
			result.Decoded++
		}
		logger.Debug("table checked", "table", result.Table, "root", result.Root,
			"engine", result.Engine, "decoded", result.Decoded, "ok", result.OK())
		results = append(results, result)
	}
	return results, nil
}

func listTables(ctx context.Context, db *sql.DB) ([]Result, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT name, rootpage FROM sqlite_schema WHERE type = 'table' AND rootpage > 0 ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Table, &r.Root); err != nil {
			return nil, err
		}
		tables = append(tables, r)
	}
	return tables, rows.Err()
}

// spill writes the image to a temporary file the engine can open.
func spill(file litescan.File) (path string, cleanup func(), err error) {
	tmp, err := os.CreateTemp("", "litescan-*.db")
	if err != nil {
		return "", nil, err
	}
	cleanup = func() { os.Remove(tmp.Name()) }

	_, err = io.Copy(tmp, io.NewSectionReader(file, 0, file.Size()))
	err = errors.Join(err, tmp.Close())
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("write temporary image: %w", err)
	}
	return tmp.Name(), cleanup, nil
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
