// niiview drives a grid of synchronized medical image viewports from a
// browser, a parent process, an MCP client or the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/wethinkt/go-niiview/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
