// Package cmd provides the CLI commands for niiview.
package cmd

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/spf13/cobra"

	"github.com/wethinkt/go-niiview/internal/i18n"
	"github.com/wethinkt/go-niiview/internal/tuilog"
)

// global flags
var (
	profileFile *os.File // held open for profiling
	logPath     string
	logLevel    string
	langFlag    string
	verbose     bool
	outputJSON  bool
)

// rootCmd is the root command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "niiview",
	Short: "Multi-viewport medical image viewer engine",
	Long: `niiview orchestrates a grid of medical image viewports: it accepts images,
overlays and meshes from a host, keeps selection, 4D playback and view
synchronization consistent, and reports back what the host should do.

Running without a subcommand launches the terminal viewer.

Hosts:
  serve     Websocket host for browser front ends
  stdio     Newline-delimited JSON on stdin/stdout for a parent process
  tui       Terminal viewer (default)
  mcp       MCP server for scripts and agents

Examples:
  niiview                               # Empty terminal viewer
  niiview tui brain.nii.gz mask.nii.gz  # Open two images side by side
  niiview compare study.yaml            # Open a compare manifest
  niiview serve --port 8790             # Serve the websocket protocol`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Start pprof profiling if NIIVIEW_PROFILE is set
		if profilePath := os.Getenv("NIIVIEW_PROFILE"); profilePath != "" {
			f, err := os.Create(profilePath)
			if err != nil {
				return fmt.Errorf("create profile file: %w", err)
			}
			profileFile = f

			if err := pprof.StartCPUProfile(f); err != nil {
				f.Close()
				profileFile = nil
				return fmt.Errorf("start CPU profile: %w", err)
			}
		}

		if err := tuilog.Init(logPath); err != nil {
			return err
		}
		switch {
		case verbose:
			tuilog.Log.SetLevel(tuilog.LevelDebug)
		case logLevel != "":
			tuilog.Log.SetLevel(tuilog.ParseLevel(logLevel))
		}

		lang := langFlag
		if lang == "" {
			lang = i18n.ResolveLocale(loadConfig().Language)
		}
		i18n.Init(lang)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		// Stop CPU profiling
		if profileFile != nil {
			pprof.StopCPUProfile()
			profileFile.Close()
			profileFile = nil
		}
		return tuilog.Log.Close()
	},
	RunE: runTUI,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "write log to file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&langFlag, "lang", "", "display language (BCP 47 tag, overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stdioCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(namesCmd)
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(prefsCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(shortcutsCmd)
	rootCmd.AddCommand(languageCmd)
	rootCmd.AddCommand(themeCmd)
	rootCmd.AddCommand(versionCmd)
}
