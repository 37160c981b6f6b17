package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wethinkt/go-niiview/internal/prefs"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show and change saved display preferences",
	Long: `Show and change the display preferences that viewers load at startup.
Running viewers that watch the preferences file pick up changes at once.

The store is selected by the "prefs" section of the config: a JSON file
(default) or a DuckDB database.

Examples:
  niiview prefs get
  niiview prefs set colorbar=true defaultVolumeColormap=hot
  niiview prefs set menuItems.header=false
  niiview prefs reset`,
}

var prefsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current preferences as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPrefs(func(ctx context.Context, store prefs.Store) error {
			st, err := prefs.Load(ctx, store)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		})
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <key=value>...",
	Short: "Change preferences",
	Long: `Change preferences by JSON field name. Values are parsed as JSON when
possible (true, false, numbers) and taken as strings otherwise. Nested
fields use dots, e.g. menuItems.zoom=false.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPrefs(func(ctx context.Context, store prefs.Store) error {
			st, err := prefs.Load(ctx, store)
			if err != nil {
				return err
			}
			st, err = applyAssignments(st, args)
			if err != nil {
				return err
			}
			if err := prefs.Save(ctx, store, st); err != nil {
				return err
			}
			fmt.Printf("Updated %d preference(s)\n", len(args))
			return nil
		})
	},
}

var prefsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default preferences",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPrefs(func(ctx context.Context, store prefs.Store) error {
			if err := prefs.Reset(ctx, store); err != nil {
				return err
			}
			fmt.Println("Preferences reset to defaults")
			return nil
		})
	},
}

func init() {
	prefsCmd.AddCommand(prefsGetCmd)
	prefsCmd.AddCommand(prefsSetCmd)
	prefsCmd.AddCommand(prefsResetCmd)
}

// withPrefs opens the configured store for the duration of fn.
func withPrefs(fn func(ctx context.Context, store prefs.Store) error) error {
	store, _, err := openPrefs(loadConfig().Prefs)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(context.Background(), store)
}

// applyAssignments merges key=value pairs into s. Unknown keys are
// rejected.
func applyAssignments(s prefs.Settings, assigns []string) (prefs.Settings, error) {
	patch := map[string]any{}
	for _, a := range assigns {
		k, raw, ok := strings.Cut(a, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return s, fmt.Errorf("expected key=value, got %q", a)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}

		parts := strings.Split(k, ".")
		m := patch
		for _, p := range parts[:len(parts)-1] {
			next, ok := m[p].(map[string]any)
			if !ok {
				next = map[string]any{}
				m[p] = next
			}
			m = next
		}
		m[parts[len(parts)-1]] = v
	}

	data, err := json.Marshal(patch)
	if err != nil {
		return s, err
	}
	// Strict decode rejects unknown keys and mistyped values.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	check := s
	if err := dec.Decode(&check); err != nil {
		return s, fmt.Errorf("invalid preference: %w", err)
	}
	return prefs.Merge(s, data)
}
