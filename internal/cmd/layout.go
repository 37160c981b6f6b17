package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wethinkt/go-niiview/internal/layout"
)

// Layout command flags
var (
	layoutCount  int
	layoutWidth  float64
	layoutHeight float64
	layoutAspect float64
	layoutGap    float64
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Compute the viewport grid for a container",
	Long: `Print the rows, columns and cell size chosen for a number of viewports in
a container, using the same planner as the viewer.

Examples:
  niiview layout -n 5
  niiview layout -n 3 --width 1920 --height 1080 --aspect 0.8 --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printLayout(os.Stdout, outputJSON)
	},
}

func init() {
	layoutCmd.Flags().IntVarP(&layoutCount, "count", "n", 1, "number of viewports")
	layoutCmd.Flags().Float64Var(&layoutWidth, "width", 1280, "container width in pixels")
	layoutCmd.Flags().Float64Var(&layoutHeight, "height", 800, "container height in pixels")
	layoutCmd.Flags().Float64Var(&layoutAspect, "aspect", 1, "cell width over height")
	layoutCmd.Flags().Float64Var(&layoutGap, "gap", layout.DefaultGap, "gap between cells in pixels")
	layoutCmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
}

func printLayout(w io.Writer, asJSON bool) error {
	if layoutCount < 0 {
		return fmt.Errorf("count must not be negative, got %d", layoutCount)
	}
	g := layout.Plan(layoutCount, layoutAspect, layout.Size{Width: layoutWidth, Height: layoutHeight}, layoutGap)
	if asJSON {
		return json.NewEncoder(w).Encode(g)
	}
	fmt.Fprintf(w, "%d x %d grid, cell %.0f x %.0f px\n", g.Rows, g.Cols, g.Cell.Width, g.Cell.Height)
	return nil
}
