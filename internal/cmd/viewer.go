package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/wethinkt/go-niiview/internal/config"
	"github.com/wethinkt/go-niiview/internal/engine"
	"github.com/wethinkt/go-niiview/internal/host"
	"github.com/wethinkt/go-niiview/internal/prefs"
	"github.com/wethinkt/go-niiview/internal/tuilog"
	"github.com/wethinkt/go-niiview/internal/viewsync"
)

// loadConfig returns the saved configuration, or the defaults when it
// cannot be read.
func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		tuilog.Log.Warn("Failed to load config, using defaults", "error", err)
		return config.Default()
	}
	return cfg
}

// openPrefs opens the preferences store selected by cfg and returns it with
// its path.
func openPrefs(cfg config.PrefsConfig) (prefs.Store, string, error) {
	path, err := cfg.PrefsPath()
	if err != nil {
		return nil, "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, "", err
	}
	switch cfg.Backend {
	case "", "file":
		return prefs.NewFileStore(path), path, nil
	case "duckdb":
		s, err := prefs.NewDuckDBStore(path)
		if err != nil {
			return nil, "", err
		}
		return s, path, nil
	}
	return nil, "", fmt.Errorf("unknown prefs backend %q", cfg.Backend)
}

// viewer is an engine with the resources it was built from.
type viewer struct {
	engine    *engine.Engine
	store     prefs.Store
	prefsPath string
	watch     bool
}

// newViewer builds an engine that talks to bridge, configured from cfg.
func newViewer(cfg config.Config, bridge host.Bridge) (*viewer, error) {
	policy, err := viewsync.ParsePolicy(cfg.Sync.Policy)
	if err != nil {
		return nil, err
	}
	store, path, err := openPrefs(cfg.Prefs)
	if err != nil {
		return nil, fmt.Errorf("open preferences: %w", err)
	}

	e := engine.New(engine.Options{
		Bridge:   bridge,
		Prefs:    store,
		Interval: cfg.Playback.IntervalDuration(),
		Policy:   policy,
	})
	e.SetSyncAxes(cfg.Sync.Planar, cfg.Sync.Rotational)

	return &viewer{
		engine:    e,
		store:     store,
		prefsPath: path,
		watch:     cfg.Prefs.Watch && (cfg.Prefs.Backend == "" || cfg.Prefs.Backend == "file"),
	}, nil
}

// watchPrefs re-applies the preferences file when another process edits
// it. It blocks until ctx is cancelled. Watch failures are logged only.
func (v *viewer) watchPrefs(ctx context.Context) error {
	if !v.watch {
		return nil
	}
	tuilog.Log.Info("Watching preferences", "path", v.prefsPath)
	if err := prefs.Watch(ctx, v.prefsPath, 0, v.engine.ReloadSettings); err != nil {
		tuilog.Log.Warn("Preferences watcher stopped", "error", err)
	}
	return nil
}

func (v *viewer) Close() error {
	return v.store.Close()
}

// interruptContext returns a context cancelled on SIGINT or SIGTERM.
func interruptContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			tuilog.Log.Info("Received interrupt signal, shutting down")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
