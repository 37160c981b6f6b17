// Package theme provides the colours of the terminal viewer.
package theme

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wethinkt/go-niiview/internal/config"
)

//go:embed themes/*.json
var embeddedThemes embed.FS

// DefaultName is the theme used when none is configured.
const DefaultName = "dark"

// Style defines colours and text attributes for a UI element.
type Style struct {
	Fg        string `json:"fg,omitempty"`
	Bg        string `json:"bg,omitempty"`
	Bold      bool   `json:"bold,omitempty"`
	Italic    bool   `json:"italic,omitempty"`
	Underline bool   `json:"underline,omitempty"`
}

// Theme defines all colours used by the viewer.
type Theme struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`

	Accent         string `json:"accent,omitempty"`
	BorderActive   string `json:"border_active,omitempty"`   // focused viewport
	BorderInactive string `json:"border_inactive,omitempty"` // other viewports
	BorderSelected string `json:"border_selected,omitempty"` // selected, unfocused

	TextPrimary Style `json:"text_primary,omitempty"`
	TextMuted   Style `json:"text_muted,omitempty"`

	StatusLoaded  Style `json:"status_loaded,omitempty"`
	StatusLoading Style `json:"status_loading,omitempty"`
	StatusError   Style `json:"status_error,omitempty"`
	SyncBadge     Style `json:"sync_badge,omitempty"`
}

// LoadEmbedded loads a built-in theme.
func LoadEmbedded(name string) (Theme, error) {
	data, err := embeddedThemes.ReadFile("themes/" + name + ".json")
	if err != nil {
		return Theme{}, fmt.Errorf("theme %q: %w", name, err)
	}
	var t Theme
	if err := json.Unmarshal(data, &t); err != nil {
		return Theme{}, fmt.Errorf("theme %q: %w", name, err)
	}
	return t, nil
}

// ListEmbedded returns the names of the built-in themes.
func ListEmbedded() []string {
	entries, err := embeddedThemes.ReadDir("themes")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, strings.TrimSuffix(e.Name(), ".json"))
		}
	}
	return names
}

// ThemesDir returns the directory of user themes.
func ThemesDir() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "themes"), nil
}

// LoadByName loads a user theme, falling back to the built-in one. Fields a
// user theme leaves out keep the default theme's values.
func LoadByName(name string) (Theme, error) {
	if name == "" {
		name = DefaultName
	}
	if dir, err := ThemesDir(); err == nil {
		if data, err := os.ReadFile(filepath.Join(dir, name+".json")); err == nil {
			t := Default()
			if err := json.Unmarshal(data, &t); err != nil {
				return Default(), fmt.Errorf("theme %q: %w", name, err)
			}
			t.Name = name
			return t, nil
		}
	}
	return LoadEmbedded(name)
}

// Default returns the built-in dark theme.
func Default() Theme {
	t, _ := LoadEmbedded(DefaultName)
	return t
}

var (
	mu      sync.RWMutex
	current *Theme
)

// Current returns the active theme, the default until Set is called.
func Current() Theme {
	mu.RLock()
	c := current
	mu.RUnlock()
	if c == nil {
		return Default()
	}
	return *c
}

// Set makes t the active theme.
func Set(t Theme) {
	mu.Lock()
	defer mu.Unlock()
	current = &t
}

// GetAccent returns the accent colour, with fallback.
func (t Theme) GetAccent() string {
	if t.Accent != "" {
		return t.Accent
	}
	return "#7D56F4"
}

// GetBorderActive returns the focused border colour.
func (t Theme) GetBorderActive() string {
	if t.BorderActive != "" {
		return t.BorderActive
	}
	return t.GetAccent()
}

// GetBorderInactive returns the unfocused border colour.
func (t Theme) GetBorderInactive() string {
	if t.BorderInactive != "" {
		return t.BorderInactive
	}
	return "#444444"
}

// GetBorderSelected returns the border colour of selected viewports.
func (t Theme) GetBorderSelected() string {
	if t.BorderSelected != "" {
		return t.BorderSelected
	}
	return "#E8A33D"
}
