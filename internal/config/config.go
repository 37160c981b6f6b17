// Package config provides application configuration management for niiview.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Config holds the niiview configuration.
type Config struct {
	Language string         `json:"language,omitempty"` // BCP 47 tag; empty means detect
	Theme    string         `json:"theme,omitempty"`    // Terminal viewer theme name
	Server   ServerConfig   `json:"server"`
	Prefs    PrefsConfig    `json:"prefs"`
	Sync     SyncConfig     `json:"sync"`
	Playback PlaybackConfig `json:"playback"`
}

// ServerConfig holds settings for `niiview serve`.
type ServerConfig struct {
	Host  string `json:"host"`
	Port  int    `json:"port"`
	Token string `json:"token,omitempty"` // Bearer token; empty disables auth
	CORS  string `json:"cors,omitempty"`  // Allowed origin; empty allows any
}

// PrefsConfig selects where display preferences are persisted.
type PrefsConfig struct {
	Backend string `json:"backend"`        // "file" or "duckdb"
	Path    string `json:"path,omitempty"` // Defaults to a file under Dir()
	Watch   bool   `json:"watch"`          // Re-apply external edits (file backend)
}

// SyncConfig holds the view synchronization defaults.
type SyncConfig struct {
	Policy     string `json:"policy"` // "opt-in" or "always"
	Planar     bool   `json:"planar"`
	Rotational bool   `json:"rotational"`
}

// PlaybackConfig holds 4D playback settings.
type PlaybackConfig struct {
	Interval string `json:"interval"` // Frame period (e.g. "200ms")
}

// IntervalDuration returns the parsed frame period (default: 200ms).
func (c PlaybackConfig) IntervalDuration() time.Duration {
	if c.Interval != "" {
		if d, err := time.ParseDuration(c.Interval); err == nil && d > 0 {
			return d
		}
	}
	return 200 * time.Millisecond
}

// PrefsPath returns the preferences file, defaulting by backend.
func (c PrefsConfig) PrefsPath() (string, error) {
	if c.Path != "" {
		return c.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if c.Backend == "duckdb" {
		return filepath.Join(dir, "prefs.duckdb"), nil
	}
	return filepath.Join(dir, "prefs.json"), nil
}

// Dir returns the niiview home directory: $NIIVIEW_HOME, else ~/.niiview.
func Dir() (string, error) {
	if d := os.Getenv("NIIVIEW_HOME"); d != "" {
		return d, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".niiview"), nil
}

// Path returns the path to the main config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// PresetsPath returns the user presets file.
func PresetsPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "presets.toml"), nil
}

// Load loads the configuration from the config file. A missing file yields
// defaults without writing anything.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	} else if err != nil {
		return Config{}, err
	}

	// Start from defaults so sections missing from older files keep
	// working values.
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Prefs.Backend == "" {
		cfg.Prefs.Backend = "file"
	}
	return cfg, nil
}

// DefaultPort is the port `niiview serve` listens on.
const DefaultPort = 8790

// Default returns a default configuration with all defaults set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: DefaultPort,
		},
		Prefs: PrefsConfig{
			Backend: "file",
			Watch:   true,
		},
		Sync: SyncConfig{
			Policy:     "opt-in",
			Planar:     true,
			Rotational: true,
		},
		Playback: PlaybackConfig{
			Interval: "200ms",
		},
	}
}

// Save saves the configuration to the config file.
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
