package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dacapoday/litescan/btree"
	"golang.org/x/term"
)

// BrowseCmd shows the entries of one tree in a full-screen pager.
//
//	j/↓    scroll down
//	k/↑    scroll up
//	g      jump to first
//	G      jump to last
//	/      jump to a rowid (tables) or key prefix (indexes)
//	q/Esc  quit
type BrowseCmd struct {
	Path           string `arg:"" help:"Database file (plain, .xz or .zst)"`
	Root           uint32 `default:"1" help:"Root page of the tree to browse"`
	IndexRightMost bool   `name:"index-rightmost" help:"Also walk the right-most child of index interior pages"`
}

func (c *BrowseCmd) Run(e *env) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("browse needs a terminal; use dump instead")
	}

	db, err := e.open(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	v := &viewer{title: fmt.Sprintf("%s, page %d", c.Path, c.Root)}
	for entry, err := range db.Walk(c.Root, btree.Filter{}, c.IndexRightMost) {
		if err != nil {
			v.errors++
			continue
		}
		v.entries = append(v.entries, entry)
	}
	if v.errors > 0 {
		v.status = fmt.Sprintf("%d walk errors, see dump", v.errors)
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer term.Restore(fd, oldState)

	fmt.Print("\033[?25l\033[2J")             // hide cursor, clear screen once
	defer fmt.Print("\033[?25h\033[2J\033[H") // show cursor, clear screen

	reader := bufio.NewReader(os.Stdin)
	for {
		w, h, err := term.GetSize(fd)
		if err != nil {
			w, h = 80, 24
		}
		v.resize(w, h)
		fmt.Print(v.render())

		b, err := reader.ReadByte()
		if err != nil {
			return nil
		}
		v.status = ""

		switch b {
		case 'q', 3, 27: // q, Ctrl+C, Esc
			if b == 27 && reader.Buffered() > 0 {
				if b2, _ := reader.ReadByte(); b2 == '[' {
					switch b3, _ := reader.ReadByte(); b3 {
					case 'A':
						v.up()
					case 'B':
						v.down()
					case '5':
						reader.ReadByte()
						v.pageUp()
					case '6':
						reader.ReadByte()
						v.pageDown()
					}
				}
				continue
			}
			return nil
		case 'j':
			v.down()
		case 'k':
			v.up()
		case 'g':
			v.first()
		case 'G':
			v.last()
		case '/':
			if query, ok := prompt(reader, h); ok {
				v.jump(query)
			}
		}
	}
}

// prompt reads a line on the bottom row. It returns false when cancelled.
func prompt(reader *bufio.Reader, row int) (string, bool) {
	fmt.Print("\033[?25h")
	defer fmt.Print("\033[?25l")
	fmt.Printf("\033[%d;1H\033[K/", row)

	var input []byte
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return "", false
		}
		switch {
		case b == 27 || b == 3: // Esc or Ctrl+C
			return "", false
		case b == 13 || b == 10:
			return string(input), len(input) > 0
		case b == 127 || b == 8:
			if len(input) > 0 {
				input = input[:len(input)-1]
				fmt.Print("\b \b")
			}
		case b >= 32 && b < 127:
			input = append(input, b)
			fmt.Print(string(b))
		}
	}
}

// viewer is a window over the decoded entries of one tree.
type viewer struct {
	title   string
	entries []btree.Entry
	top     int
	width   int
	height  int
	errors  int
	status  string
}

func (v *viewer) resize(width, height int) {
	v.width, v.height = width, height
	v.clamp()
}

func (v *viewer) lines() int {
	return max(v.height-4, 1) // title + separator + separator + status
}

func (v *viewer) clamp() {
	v.top = min(v.top, len(v.entries)-1)
	v.top = max(v.top, 0)
}

func (v *viewer) down() {
	v.top++
	v.clamp()
}

func (v *viewer) up() {
	v.top--
	v.clamp()
}

func (v *viewer) pageDown() {
	v.top += v.lines() - 1
	v.clamp()
}

func (v *viewer) pageUp() {
	v.top -= v.lines() - 1
	v.clamp()
}

func (v *viewer) first() {
	v.top = 0
}

func (v *viewer) last() {
	v.top = len(v.entries) - v.lines()
	v.clamp()
}

// jump moves to the first entry at or after query: a rowid for table
// entries, a key prefix for index entries.
func (v *viewer) jump(query string) {
	if len(v.entries) == 0 {
		v.status = "not found"
		return
	}
	if v.entries[0].Type.IsTable() {
		rowid, err := strconv.ParseInt(query, 10, 64)
		if err != nil {
			v.status = fmt.Sprintf("not a rowid: %s", query)
			return
		}
		for i, e := range v.entries {
			if e.RowID >= rowid {
				v.top = i
				v.status = fmt.Sprintf("jumped to rowid %d", e.RowID)
				return
			}
		}
	} else {
		for i, e := range v.entries {
			if strings.HasPrefix(e.Key().String(), query) || strings.HasPrefix(e.Key().Text(), query) {
				v.top = i
				v.status = fmt.Sprintf("jumped to: %s", truncate(e.Key().String(), 20))
				return
			}
		}
	}
	v.status = "not found"
}

func (v *viewer) position() string {
	switch {
	case len(v.entries) <= v.lines():
		return "[all]"
	case v.top == 0:
		return "[top]"
	case v.top+v.lines() >= len(v.entries):
		return "[end]"
	}
	return fmt.Sprintf("[%d/%d]", v.top+1, len(v.entries))
}

func (v *viewer) render() string {
	var b strings.Builder

	b.WriteString("\033[H")
	b.WriteString("[ litescan ] " + truncate(v.title, max(v.width-14, 10)) + "\033[K\r\n")
	b.WriteString(strings.Repeat("─", v.width))
	b.WriteString("\033[K\r\n")

	for i := range v.lines() {
		if idx := v.top + i; idx < len(v.entries) {
			b.WriteString(truncate(v.entries[idx].String(), v.width))
		} else {
			b.WriteString("~")
		}
		b.WriteString("\033[K\r\n")
	}

	b.WriteString(strings.Repeat("─", v.width))
	b.WriteString("\033[K\r\n")

	if v.status != "" {
		b.WriteString(" " + v.status + " ")
	} else {
		b.WriteString(" j/k:scroll g/G:jump /:seek q:quit ")
	}
	b.WriteString(v.position())
	b.WriteString("\033[K")
	return b.String()
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if n < 4 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}
