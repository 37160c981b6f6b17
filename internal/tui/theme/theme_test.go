package theme

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestEmbeddedThemes(t *testing.T) {
	names := ListEmbedded()
	for _, want := range []string{"dark", "light"} {
		if !slices.Contains(names, want) {
			t.Errorf("ListEmbedded() = %v, missing %q", names, want)
		}
	}
	for _, name := range names {
		th, err := LoadEmbedded(name)
		if err != nil {
			t.Fatalf("LoadEmbedded(%q): %v", name, err)
		}
		if th.Accent == "" || th.StatusError.Fg == "" {
			t.Errorf("theme %q lacks colours: %+v", name, th)
		}
	}
	if _, err := LoadEmbedded("missing"); err == nil {
		t.Error("LoadEmbedded(missing) succeeded")
	}
}

func TestLoadByName_UserThemeOverridesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("NIIVIEW_HOME", home)
	dir := filepath.Join(home, "themes")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "mine.json"), []byte(`{"accent":"#123456"}`), 0644); err != nil {
		t.Fatal(err)
	}

	th, err := LoadByName("mine")
	if err != nil {
		t.Fatalf("LoadByName: %v", err)
	}
	if th.Name != "mine" || th.Accent != "#123456" {
		t.Errorf("theme = %+v", th)
	}
	if th.StatusError.Fg != Default().StatusError.Fg {
		t.Error("missing fields should keep default values")
	}

	if th, err := LoadByName(""); err != nil || th.Name != DefaultName {
		t.Errorf("LoadByName(\"\") = %+v, %v", th, err)
	}
}

func TestFallbackGetters(t *testing.T) {
	var th Theme
	if th.GetAccent() == "" || th.GetBorderInactive() == "" || th.GetBorderSelected() == "" {
		t.Error("getters must fall back to a colour")
	}
	if th.GetBorderActive() != th.GetAccent() {
		t.Error("active border falls back to the accent")
	}
}

func TestSetCurrent(t *testing.T) {
	light, _ := LoadEmbedded("light")
	Set(light)
	defer Set(Default())
	if Current().Name != "light" {
		t.Errorf("Current() = %q", Current().Name)
	}
}
