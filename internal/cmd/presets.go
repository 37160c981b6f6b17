package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/wethinkt/go-niiview/internal/config"
	"github.com/wethinkt/go-niiview/internal/i18n"
	"github.com/wethinkt/go-niiview/internal/prefs"
	"github.com/wethinkt/go-niiview/internal/presets"
)

var presetDescription string

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Manage display presets",
	Long: `Manage display presets: named bundles of preferences, view options and
overlay defaults. Built-in presets cannot be deleted. User presets are
stored in ~/.niiview/presets.toml.

Examples:
  niiview presets list
  niiview presets save "My reading setup" -d "hot overlays, colorbar on"
  niiview presets apply fmri
  niiview presets delete user_1767225600000`,
}

var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in and user presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := presetStore()
		if err != nil {
			return err
		}
		list, err := store.List()
		if err != nil {
			return err
		}
		return printPresets(os.Stdout, list, time.Now(), outputJSON)
	},
}

var presetsSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save the current preferences as a user preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := presetStore()
		if err != nil {
			return err
		}
		return withPrefs(func(ctx context.Context, ps prefs.Store) error {
			st, err := prefs.Load(ctx, ps)
			if err != nil {
				return err
			}
			p, err := store.Create(presets.Preset{
				Name:        args[0],
				Description: presetDescription,
				Settings:    presets.PatchFrom(st),
			})
			if err != nil {
				return err
			}
			fmt.Printf("Saved preset %s (%s)\n", p.Name, p.ID)
			return nil
		})
	},
}

var presetsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a user preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := presetStore()
		if err != nil {
			return err
		}
		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted preset %s\n", args[0])
		return nil
	},
}

var presetsApplyCmd = &cobra.Command{
	Use:   "apply <id>",
	Short: "Write a preset's settings into the saved preferences",
	Long: `Write a preset's settings into the saved preferences. Viewers pick them up
at startup, or at once when they watch the preferences file. View options
and overlay defaults only apply inside a running viewer.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := presetStore()
		if err != nil {
			return err
		}
		p, err := store.Get(args[0])
		if err != nil {
			return err
		}
		return withPrefs(func(ctx context.Context, ps prefs.Store) error {
			st, err := prefs.Load(ctx, ps)
			if err != nil {
				return err
			}
			if err := prefs.Save(ctx, ps, p.Settings.Apply(st)); err != nil {
				return err
			}
			fmt.Printf("Applied preset %s\n", p.Name)
			return nil
		})
	},
}

func init() {
	presetsCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output as JSON")
	presetsSaveCmd.Flags().StringVarP(&presetDescription, "description", "d", "", "preset description")

	presetsCmd.AddCommand(presetsListCmd)
	presetsCmd.AddCommand(presetsSaveCmd)
	presetsCmd.AddCommand(presetsDeleteCmd)
	presetsCmd.AddCommand(presetsApplyCmd)
}

func presetStore() (*presets.Store, error) {
	path, err := config.PresetsPath()
	if err != nil {
		return nil, err
	}
	return presets.NewStore(path), nil
}

func printPresets(w io.Writer, list []presets.Preset, now time.Time, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(list)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKIND\tCREATED\tDESCRIPTION")
	for _, p := range list {
		kind := i18n.T("cli.presets.user", "user")
		if p.Builtin {
			kind = i18n.T("cli.presets.builtin", "built-in")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, kind, i18n.Age(p.CreatedAt, now), p.Description)
	}
	return tw.Flush()
}
