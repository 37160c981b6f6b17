package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wethinkt/go-niiview/internal/names"
)

var namesWidth int

var namesCmd = &cobra.Command{
	Use:   "names <name>...",
	Short: "Show how viewport labels would be shortened",
	Long: `Strip the prefix and suffix shared by every name, the way viewport labels
are shortened, and print one result per line.

Examples:
  niiview names sub-01/anat/T1w.nii.gz sub-02/anat/T1w.nii.gz
  niiview names --width 12 a_very_long_scan_name.nii b.nii`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printNames(os.Stdout, args, namesWidth, outputJSON)
	},
}

func init() {
	namesCmd.Flags().IntVarP(&namesWidth, "width", "w", 0, "also truncate to this many cells")
	namesCmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
}

func printNames(w io.Writer, in []string, width int, asJSON bool) error {
	out := names.Diff(in)
	if width > 0 {
		for i := range out {
			out[i] = names.Short(out[i], width)
		}
	}
	if asJSON {
		return json.NewEncoder(w).Encode(out)
	}
	for _, n := range out {
		fmt.Fprintln(w, n)
	}
	return nil
}
