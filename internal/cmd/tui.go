package cmd

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wethinkt/go-niiview/internal/tui"
	"github.com/wethinkt/go-niiview/internal/tui/theme"
	"github.com/wethinkt/go-niiview/internal/tuilog"
)

var tuiTheme string

var tuiCmd = &cobra.Command{
	Use:   "tui [files...]",
	Short: "Launch the terminal viewer",
	Long: `Show the viewport grid in the terminal. Files and URLs given on the
command line each open in their own viewport, downloaded concurrently.

Press ? inside the viewer for the key bindings, or run 'niiview shortcuts'.

Examples:
  niiview tui
  niiview tui t1.nii.gz t2.nii.gz
  niiview tui https://example.org/mni152.nii.gz`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&tuiTheme, "theme", "", "theme name (default from config)")
	rootCmd.Flags().StringVar(&tuiTheme, "theme", "", "theme name (default from config)")
}

// applyTheme activates the named theme, else the configured one.
func applyTheme(name string) {
	if name == "" {
		name = loadConfig().Theme
	}
	if name == "" {
		return
	}
	t, err := theme.LoadByName(name)
	if err != nil {
		tuilog.Log.Warn("Theme not found, using default", "theme", name, "error", err)
		return
	}
	theme.Set(t)
}

func runTUI(cmd *cobra.Command, args []string) error {
	return runViewer(args, nil)
}

// runViewer runs the terminal viewer. setup, when set, is called once the
// engine loop is running.
func runViewer(uris []string, setup func(*viewer)) error {
	applyTheme(tuiTheme)

	b := tui.NewBridge()
	v, err := newViewer(loadConfig(), b)
	if err != nil {
		return err
	}
	defer v.Close()

	ctx, cancel := interruptContext()
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return v.engine.Run(gctx) })
	g.Go(func() error { return v.watchPrefs(gctx) })
	v.engine.Bootstrap(gctx, uris)
	if setup != nil {
		setup(v)
	}

	err = tui.Run(gctx, v.engine, b)
	tuilog.Log.Info("TUI exited", "error", err)
	cancel()
	if werr := g.Wait(); err == nil {
		err = werr
	}
	return err
}
