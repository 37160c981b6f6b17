package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wethinkt/go-niiview/internal/config"
	"github.com/wethinkt/go-niiview/internal/mcpserver"
	"github.com/wethinkt/go-niiview/internal/presets"
	"github.com/wethinkt/go-niiview/internal/tuilog"
)

// MCP command flags
var (
	mcpAllowTools []string
	mcpDenyTools  []string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server for scripts and agents",
	Long: `Start an MCP (Model Context Protocol) server on stdio that drives a headless
viewer.

Tools:
  send_message   Send one protocol envelope
  debug_request  Ask a debug question and wait for the answer
  get_state      Current viewports, selection, layout and settings
  apply_preset   Apply a display preset by ID
  read_outbox    Drain the messages the viewer sent to its host

Tool filtering:
  --allow-tools and --deny-tools take comma-separated names; the
  NIIVIEW_MCP_ALLOW_TOOLS and NIIVIEW_MCP_DENY_TOOLS env vars work the same.

Examples:
  niiview mcp
  niiview mcp --deny-tools apply_preset`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringSliceVar(&mcpAllowTools, "allow-tools", nil, "only register these tools")
	mcpCmd.Flags().StringSliceVar(&mcpDenyTools, "deny-tools", nil, "never register these tools")
}

// toolList returns flag values, else the comma-separated env var.
func toolList(flag []string, env string) []string {
	if len(flag) > 0 {
		return flag
	}
	if v := os.Getenv(env); v != "" {
		return strings.Split(v, ",")
	}
	return nil
}

func runMCP(cmd *cobra.Command, args []string) error {
	outbox := mcpserver.NewOutbox()
	v, err := newViewer(loadConfig(), outbox)
	if err != nil {
		return err
	}
	defer v.Close()

	var store *presets.Store
	if path, err := config.PresetsPath(); err == nil {
		store = presets.NewStore(path)
	}

	ctx, cancel := interruptContext()
	defer cancel()

	ms := mcpserver.New(v.engine, outbox, store)
	ms.SetToolFilters(
		toolList(mcpAllowTools, "NIIVIEW_MCP_ALLOW_TOOLS"),
		toolList(mcpDenyTools, "NIIVIEW_MCP_DENY_TOOLS"),
	)

	tuilog.Log.Info("Starting MCP server on stdio")
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return v.engine.Run(gctx) })
	g.Go(func() error { return v.watchPrefs(gctx) })
	g.Go(func() error {
		defer cancel()
		return ms.RunStdio(gctx)
	})
	v.engine.SurfaceReady()

	return g.Wait()
}
