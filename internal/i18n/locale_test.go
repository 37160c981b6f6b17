package i18n

import (
	"testing"
)

func TestGermanLocale(t *testing.T) {
	Init("de")
	defer Init("en")

	tests := []struct {
		id     string
		def    string
		wantDe string
	}{
		{"common.loading", "Loading...", "Wird geladen..."},
		{"tui.status.playing", "playing", "läuft"},
		{"tui.status.stopped", "stopped", "angehalten"},
		{"tui.help.quit", "quit", "beenden"},
		{"engine.notify.noMesh", "Load a mesh before adding a mesh layer", "Vor einer Mesh-Ebene zuerst ein Mesh laden"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got := T(tt.id, tt.def)
			if got != tt.wantDe {
				t.Errorf("T(%q) = %q, want %q", tt.id, got, tt.wantDe)
			}
		})
	}
}

func TestGermanPlural(t *testing.T) {
	Init("de")
	defer Init("en")

	if got := Tn("tui.viewports", "{{.Count}} viewport", "{{.Count}} viewports", 1); got != "1 Ansicht" {
		t.Errorf("Tn(1) = %q", got)
	}
	if got := Tn("tui.viewports", "{{.Count}} viewport", "{{.Count}} viewports", 3); got != "3 Ansichten" {
		t.Errorf("Tn(3) = %q", got)
	}
}

func TestLocaleSwitch(t *testing.T) {
	Init("en")
	if got := T("tui.help.quit", "quit"); got != "quit" {
		t.Errorf("English = %q", got)
	}
	Init("de")
	if got := T("tui.help.quit", "quit"); got != "beenden" {
		t.Errorf("German = %q", got)
	}
	Init("en")
	if got := T("tui.help.quit", "quit"); got != "quit" {
		t.Errorf("English after switch = %q", got)
	}
}

func TestUntranslatedKeyFallsBack(t *testing.T) {
	Init("de")
	defer Init("en")

	got := T("some.untranslated.key", "English fallback")
	if got != "English fallback" {
		t.Errorf("untranslated key = %q, want %q", got, "English fallback")
	}
}
