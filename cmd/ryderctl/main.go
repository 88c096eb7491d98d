// Command ryderctl is a small operator tool over the ryder driver: open a
// port, send raw opcode bytes, or watch a device's event stream. It
// replaces the teacher's flag-based example program with the pack's
// cobra-based CLI convention.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
