package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wethinkt/go-niiview/internal/tui"
)

var shortcutsRaw bool

var shortcutsCmd = &cobra.Command{
	Use:   "shortcuts",
	Short: "Show the terminal viewer's key bindings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if shortcutsRaw {
			fmt.Print(tui.ShortcutsMarkdown())
			return nil
		}
		width := 80
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
		fmt.Print(tui.RenderShortcuts(width))
		return nil
	},
}

func init() {
	shortcutsCmd.Flags().BoolVar(&shortcutsRaw, "raw", false, "print markdown without rendering")
}
