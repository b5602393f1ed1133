package mem_test

import (
	"fmt"
	"strings"

	"github.com/dacapoday/litescan/mem"
)

func Example() {
	// No initialization needed - just declare and use
	var f mem.File

	// Load a whole image, then patch a few bytes in place
	f.ReadFrom(strings.NewReader("SQLite format 3\x00"))
	f.WriteAt([]byte{0x10, 0x00}, 16)

	buf := make([]byte, 15)
	n, _ := f.ReadAt(buf, 0)
	fmt.Printf("%s\n", buf[:n])
	fmt.Printf("Size: %d\n", f.Size())

	// Output:
	// SQLite format 3
	// Size: 18
}
