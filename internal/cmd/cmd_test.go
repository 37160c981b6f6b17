package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/wethinkt/go-niiview/internal/config"
	"github.com/wethinkt/go-niiview/internal/host/memhost"
	"github.com/wethinkt/go-niiview/internal/layout"
	"github.com/wethinkt/go-niiview/internal/manifest"
	"github.com/wethinkt/go-niiview/internal/prefs"
	"github.com/wethinkt/go-niiview/internal/presets"
	"github.com/wethinkt/go-niiview/internal/scene"
)

func TestPrintNames(t *testing.T) {
	var buf bytes.Buffer
	if err := printNames(&buf, []string{"test1.nii", "test2.nii"}, 0, false); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "test1\ntest2\n" {
		t.Errorf("names = %q", got)
	}

	buf.Reset()
	if err := printNames(&buf, []string{"test1.nii", "test2.nii"}, 0, true); err != nil {
		t.Fatal(err)
	}
	var out []string
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 || out[0] != "test1" {
		t.Errorf("json names = %v", out)
	}
}

func TestPrintLayout(t *testing.T) {
	defer func(n int, w, h, a, g float64) {
		layoutCount, layoutWidth, layoutHeight, layoutAspect, layoutGap = n, w, h, a, g
	}(layoutCount, layoutWidth, layoutHeight, layoutAspect, layoutGap)
	layoutCount, layoutWidth, layoutHeight, layoutAspect, layoutGap = 4, 1000, 1000, 1, 4

	var buf bytes.Buffer
	if err := printLayout(&buf, false); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "2 x 2 grid, cell 496 x 496 px\n" {
		t.Errorf("layout = %q", got)
	}

	buf.Reset()
	if err := printLayout(&buf, true); err != nil {
		t.Fatal(err)
	}
	var g layout.Grid
	if err := json.Unmarshal(buf.Bytes(), &g); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if g.Rows != 2 || g.Cols != 2 {
		t.Errorf("grid = %+v", g)
	}

	layoutCount = -1
	if err := printLayout(&buf, false); err == nil {
		t.Error("negative count accepted")
	}
}

func TestApplyAssignments(t *testing.T) {
	st, err := applyAssignments(prefs.Default(), []string{
		"colorbar=true",
		"defaultVolumeColormap=hot",
		"menuItems.zoom=false",
	})
	if err != nil {
		t.Fatalf("applyAssignments: %v", err)
	}
	if !st.Colorbar || st.DefaultVolumeColormap != "hot" || st.MenuItems.Zoom {
		t.Errorf("settings = %+v", st)
	}
	if !st.MenuItems.Home || !st.ShowCrosshairs {
		t.Error("untouched settings changed")
	}

	for _, bad := range []string{"novalue", "=1", "nope=1", `colorbar="yes"`, "menuItems.nope=true"} {
		if _, err := applyAssignments(prefs.Default(), []string{bad}); err == nil {
			t.Errorf("%q accepted", bad)
		}
	}
}

func TestPrintPresets(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	list := append(presets.Builtin(), presets.Preset{
		ID: "user_1", Name: "Mine", CreatedAt: now.Add(-5 * 24 * time.Hour),
	})

	var buf bytes.Buffer
	if err := printPresets(&buf, list, now, false); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"ID", "fmri", "built-in", "user_1", "5d ago"} {
		if !strings.Contains(out, want) {
			t.Errorf("list lacks %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := printPresets(&buf, list, now, true); err != nil {
		t.Fatal(err)
	}
	var decoded []presets.Preset
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != len(list) {
		t.Errorf("json presets = %d, want %d", len(decoded), len(list))
	}
}

func TestListThemes(t *testing.T) {
	var buf bytes.Buffer
	if err := listThemes(&buf, "light"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "* light") || !strings.Contains(out, "  dark") {
		t.Errorf("themes = %q", out)
	}
}

func TestToolList(t *testing.T) {
	t.Setenv("NIIVIEW_MCP_DENY_TOOLS", "apply_preset,send_message")
	if got := toolList(nil, "NIIVIEW_MCP_DENY_TOOLS"); len(got) != 2 || got[1] != "send_message" {
		t.Errorf("from env = %v", got)
	}
	if got := toolList([]string{"get_state"}, "NIIVIEW_MCP_DENY_TOOLS"); len(got) != 1 || got[0] != "get_state" {
		t.Errorf("flag should win, got %v", got)
	}
	if got := toolList(nil, "NIIVIEW_MCP_UNSET"); got != nil {
		t.Errorf("unset = %v", got)
	}
}

func TestServeConfig(t *testing.T) {
	t.Setenv("NIIVIEW_HOME", t.TempDir())
	t.Setenv("NIIVIEW_TOKEN", "from-env")

	cfg := serveConfig(serveCmd)
	if cfg.Port != config.DefaultPort || cfg.Host != "localhost" || cfg.Token != "from-env" {
		t.Errorf("defaults = %+v", cfg)
	}

	if err := serveCmd.Flags().Set("port", "9100"); err != nil {
		t.Fatal(err)
	}
	serveToken = "from-flag"
	defer func() {
		serveCmd.Flags().Set("port", "0")
		serveCmd.Flags().Lookup("port").Changed = false
		serveToken = ""
	}()

	cfg = serveConfig(serveCmd)
	if cfg.Port != 9100 || cfg.Token != "from-flag" {
		t.Errorf("flags = %+v", cfg)
	}
}

func TestOpenPrefs(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NIIVIEW_HOME", dir)

	store, path, err := openPrefs(config.PrefsConfig{Backend: "file"})
	if err != nil {
		t.Fatalf("openPrefs: %v", err)
	}
	defer store.Close()
	if !strings.HasPrefix(path, dir) || !strings.HasSuffix(path, "prefs.json") {
		t.Errorf("path = %q", path)
	}

	if _, _, err := openPrefs(config.PrefsConfig{Backend: "redis"}); err == nil {
		t.Error("unknown backend accepted")
	}
}

func TestNewViewerAndManifest(t *testing.T) {
	t.Setenv("NIIVIEW_HOME", t.TempDir())

	v, err := newViewer(config.Default(), memhost.New(16))
	if err != nil {
		t.Fatalf("newViewer: %v", err)
	}
	defer v.Close()
	if !v.watch {
		t.Error("file backend should be watched by default")
	}

	m, err := manifest.Parse([]byte("slice_type: axial\nsync: true\nimages:\n  - uri: a.nii\n  - uri: b.nii\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	openManifest(v, m)
	v.engine.Flush()

	st := v.engine.State()
	if len(st.Viewports) != 2 {
		t.Fatalf("viewports = %d, want 2", len(st.Viewports))
	}
	if st.SliceType != scene.Axial {
		t.Errorf("slice type = %v, want axial", st.SliceType)
	}
	for _, vp := range st.Viewports {
		if !vp.SyncEnabled {
			t.Errorf("viewport %d not synced", vp.Index)
		}
	}

	if _, err := newViewer(config.Config{Sync: config.SyncConfig{Policy: "sometimes"}}, memhost.New(1)); err == nil {
		t.Error("bad sync policy accepted")
	}
}
