package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wethinkt/go-niiview/internal/config"
	"github.com/wethinkt/go-niiview/internal/tui/theme"
)

// Theme command
var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "List and select terminal viewer themes",
	Long: `List and select the colors of the terminal viewer: viewport borders,
status text and badges. User themes are JSON files in ~/.niiview/themes/.

Examples:
  niiview theme list
  niiview theme show light --json
  niiview theme set light`,
}

var themeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in themes",
	Long:  `List the built-in themes. The active theme is marked with *.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listThemes(os.Stdout, loadConfig().Theme)
	},
}

var themeShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Print a theme's colors",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := loadConfig().Theme
		if len(args) > 0 {
			name = args[0]
		}
		t := theme.Default()
		if name != "" {
			var err error
			if t, err = theme.LoadByName(name); err != nil {
				return fmt.Errorf("theme %q not found", name)
			}
		}
		if outputJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(t)
		}
		fmt.Printf("accent           %s\n", t.GetAccent())
		fmt.Printf("border active    %s\n", t.GetBorderActive())
		fmt.Printf("border inactive  %s\n", t.GetBorderInactive())
		fmt.Printf("border selected  %s\n", t.GetBorderSelected())
		return nil
	},
}

var themeSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Set the active theme",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if _, err := theme.LoadByName(name); err != nil {
			return fmt.Errorf("failed to set theme: %w", err)
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cfg.Theme = name
		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Printf("Theme set to: %s\n", name)
		return nil
	},
}

func init() {
	themeShowCmd.Flags().BoolVar(&outputJSON, "json", false, "output theme as JSON")
	themeCmd.AddCommand(themeListCmd)
	themeCmd.AddCommand(themeShowCmd)
	themeCmd.AddCommand(themeSetCmd)
}

func listThemes(w io.Writer, active string) error {
	if active == "" {
		active = theme.DefaultName
	}
	for _, name := range theme.ListEmbedded() {
		mark := " "
		if name == active {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %s\n", mark, name)
	}
	return nil
}
