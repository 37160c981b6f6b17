package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wethinkt/go-niiview/internal/host/stdiohost"
	"github.com/wethinkt/go-niiview/internal/tuilog"
)

var stdioState bool

var stdioCmd = &cobra.Command{
	Use:   "stdio",
	Short: "Speak the viewer protocol on stdin/stdout",
	Long: `Read protocol envelopes from stdin and write outbound envelopes to stdout,
one JSON object per line. Intended for editor extensions and notebooks that
spawn niiview as a child process. Logs never go to stdout; use --log.

The process exits when stdin is closed.

Examples:
  echo '{"type":"initCanvas","body":{"n":2}}' | niiview stdio
  niiview stdio --state --log /tmp/niiview.log`,
	Args: cobra.NoArgs,
	RunE: runStdio,
}

func init() {
	stdioCmd.Flags().BoolVar(&stdioState, "state", false, "also write a state envelope after every change")
}

func runStdio(cmd *cobra.Command, args []string) error {
	h := stdiohost.New(os.Stdout)
	v, err := newViewer(loadConfig(), h)
	if err != nil {
		return err
	}
	defer v.Close()

	ctx, cancel := interruptContext()
	defer cancel()

	tuilog.Log.Info("Starting stdio host", "state", stdioState)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return v.engine.Run(gctx) })
	g.Go(func() error { return v.watchPrefs(gctx) })
	if stdioState {
		states, unsub := v.engine.Subscribe()
		defer unsub()
		g.Go(func() error {
			h.Mirror(gctx, states)
			return nil
		})
	}
	g.Go(func() error {
		defer cancel()
		return h.Serve(gctx, os.Stdin, v.engine)
	})
	v.engine.SurfaceReady()

	return g.Wait()
}
