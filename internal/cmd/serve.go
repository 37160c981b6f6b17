package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wethinkt/go-niiview/internal/host/wshost"
	"github.com/wethinkt/go-niiview/internal/tuilog"
)

// Serve command flags
var (
	servePort       int
	serveHost       string
	serveToken      string
	serveCORSOrigin string
	serveQuiet      bool
)

var serveCmd = &cobra.Command{
	Use:   "serve [files...]",
	Short: "Serve the viewer protocol over a websocket",
	Long: `Start an HTTP server that speaks the viewer protocol on a websocket.

Endpoints:
  GET  /v1/ws        Websocket: send envelopes, receive outbound envelopes and state
  POST /v1/messages  Inject one envelope
  GET  /v1/state     Current state snapshot
  GET  /v1/health    Health check (no auth)
  GET  /metrics      Prometheus metrics

Files given on the command line are opened once the server starts.

Authentication:
  Use --token or NIIVIEW_TOKEN. Clients send "Authorization: Bearer <token>";
  browsers may pass ?token= on the websocket URL instead.

Examples:
  niiview serve                        # Listen on localhost:8790
  niiview serve -p 9000 --token s3cret # Custom port with authentication
  niiview serve brain.nii.gz           # Serve with one image preloaded`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "server port (default from config, 8790)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "server host (default from config, localhost)")
	serveCmd.Flags().StringVar(&serveToken, "token", "", "bearer token (default: NIIVIEW_TOKEN env var, then config)")
	serveCmd.Flags().StringVar(&serveCORSOrigin, "cors-origin", "", "allowed CORS origin (default: any)")
	serveCmd.Flags().BoolVarP(&serveQuiet, "quiet", "q", false, "suppress HTTP request logging")
}

// serveConfig merges flags over the environment and the config file.
func serveConfig(cmd *cobra.Command) wshost.Config {
	cfg := loadConfig().Server
	out := wshost.Config{
		Host:       cfg.Host,
		Port:       cfg.Port,
		Token:      cfg.Token,
		CORSOrigin: cfg.CORS,
		Quiet:      serveQuiet,
	}
	if tok := os.Getenv("NIIVIEW_TOKEN"); tok != "" {
		out.Token = tok
	}
	if cmd.Flags().Changed("port") {
		out.Port = servePort
	}
	if serveHost != "" {
		out.Host = serveHost
	}
	if serveToken != "" {
		out.Token = serveToken
	}
	if serveCORSOrigin != "" {
		out.CORSOrigin = serveCORSOrigin
	}
	return out
}

func runServe(cmd *cobra.Command, args []string) error {
	hub := wshost.NewHub()
	v, err := newViewer(loadConfig(), hub)
	if err != nil {
		return err
	}
	defer v.Close()

	ctx, cancel := interruptContext()
	defer cancel()

	wcfg := serveConfig(cmd)
	tuilog.Log.Info("Starting websocket host", "host", wcfg.Host, "port", wcfg.Port)
	srv := wshost.NewServer(wcfg, v.engine, hub)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return v.engine.Run(gctx) })
	g.Go(func() error { return v.watchPrefs(gctx) })
	g.Go(func() error {
		defer cancel()
		if err := srv.ListenAndServe(gctx); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	v.engine.Bootstrap(gctx, args)

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	fmt.Fprintln(os.Stderr, "\nShutting down...")
	return nil
}
