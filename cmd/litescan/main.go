// litescan decodes SQLite database files without the SQLite engine.
//
// Usage:
//
//	litescan <path>                        # dump the tree rooted at page 1
//	litescan dump --root 2 --min 10 <path> # rows of page 2's tree with rowid >= 10
//	litescan info <path>                   # header, size, digest, page types
//	litescan pages <path>                  # one line per page
//	litescan verify <path>                 # compare row counts with the engine
//	litescan browse --root 2 <path>        # interactive pager
//
// Files compressed with xz or zstd are decompressed transparently.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/dacapoday/litescan"
	"github.com/dacapoday/litescan/dbfile"
	"github.com/dacapoday/litescan/internal/logging"
)

// CLI defines the command-line interface for litescan.
type CLI struct {
	LogLevel  string `name:"log-level" default:"warn" enum:"debug,info,warn,error" env:"LITESCAN_LOG_LEVEL" help:"Log level (${enum})"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" env:"LITESCAN_LOG_FORMAT" help:"Log format (${enum})"`

	Dump   DumpCmd   `cmd:"" default:"withargs" help:"Print the rows or index entries of one tree"`
	Info   InfoCmd   `cmd:"" help:"Print the file header and page statistics"`
	Pages  PagesCmd  `cmd:"" help:"Print one line per page"`
	Verify VerifyCmd `cmd:"" help:"Compare decoded row counts with the SQLite engine"`
	Browse BrowseCmd `cmd:"" help:"Browse the entries of one tree interactively"`
}

// env carries what every command needs besides its own flags.
type env struct {
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

func (e *env) open(path string) (*dbfile.DB, error) {
	return dbfile.Open(path, dbfile.WithLogger(e.logger))
}

func run(args []string, stdout, stderr io.Writer) int {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("litescan"),
		kong.Description("Decode SQLite database files page by page"),
		kong.Writers(stdout, stderr),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	if err != nil {
		fmt.Fprintf(stderr, "litescan: %v\n", err)
		return 1
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "litescan: %v: %v\n", litescan.ErrInvalidInput, err)
		return 2
	}

	level, err := logging.ParseLevel(cli.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "litescan: %v\n", err)
		return 2
	}
	logger := logging.New(stderr, level, logging.Format(cli.LogFormat))
	slog.SetDefault(logger)

	if err = ctx.Run(&env{stdout: stdout, stderr: stderr, logger: logger}); err != nil {
		fmt.Fprintf(stderr, "litescan: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
