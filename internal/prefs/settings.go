// Package prefs persists the user's display preferences as a single JSON
// blob under one well-known key.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Key is the storage key of the settings blob.
const Key = "userSettings"

// ErrNotFound is returned by stores for keys that were never written.
var ErrNotFound = errors.New("preference not found")

// MenuItems toggles top-level menu entries in hosts that draw a menu.
type MenuItems struct {
	Home       bool `json:"home"`
	AddImage   bool `json:"addImage"`
	View       bool `json:"view"`
	Zoom       bool `json:"zoom"`
	ColorScale bool `json:"colorScale"`
	Overlay    bool `json:"overlay"`
	Header     bool `json:"header"`
}

// Settings are the persisted display preferences.
type Settings struct {
	ShowCrosshairs             bool      `json:"showCrosshairs"`
	Interpolation              bool      `json:"interpolation"`
	Colorbar                   bool      `json:"colorbar"`
	RadiologicalConvention     bool      `json:"radiologicalConvention"`
	ZoomDragMode               bool      `json:"zoomDragMode"`
	DefaultVolumeColormap      string    `json:"defaultVolumeColormap"`
	DefaultOverlayColormap     string    `json:"defaultOverlayColormap"`
	DefaultMeshOverlayColormap string    `json:"defaultMeshOverlayColormap"`
	MenuItems                  MenuItems `json:"menuItems"`
}

// Default returns the settings used before anything is saved.
func Default() Settings {
	return Settings{
		ShowCrosshairs:             true,
		Interpolation:              true,
		DefaultVolumeColormap:      "gray",
		DefaultOverlayColormap:     "redyell",
		DefaultMeshOverlayColormap: "hsv",
		MenuItems: MenuItems{
			Home: true, AddImage: true, View: true, Zoom: true,
			ColorScale: true, Overlay: true, Header: true,
		},
	}
}

// Merge overlays the fields present in raw onto base.
func Merge(base Settings, raw []byte) (Settings, error) {
	out := base
	if err := json.Unmarshal(raw, &out); err != nil {
		return base, fmt.Errorf("parse settings: %w", err)
	}
	return out, nil
}

// Store is a key/value blob store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Load reads the settings from s, falling back to defaults for a missing
// blob and for fields the blob does not mention.
func Load(ctx context.Context, s Store) (Settings, error) {
	data, err := s.Get(ctx, Key)
	if errors.Is(err, ErrNotFound) {
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("load settings: %w", err)
	}
	return Merge(Default(), data)
}

// Save overwrites the settings blob.
func Save(ctx context.Context, s Store, st Settings) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := s.Put(ctx, Key, data); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Reset removes the saved blob so the next Load returns defaults.
func Reset(ctx context.Context, s Store) error {
	err := s.Delete(ctx, Key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("reset settings: %w", err)
	}
	return nil
}
