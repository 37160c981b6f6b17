package tui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	"github.com/charmbracelet/glamour"

	"github.com/wethinkt/go-niiview/internal/i18n"
)

// ShortcutsMarkdown lists the viewer's key bindings as a markdown table,
// one section per help group.
func ShortcutsMarkdown() string {
	sections := []string{
		i18n.T("tui.shortcuts.navigation", "Navigation"),
		i18n.T("tui.shortcuts.selection", "Selection and sync"),
		i18n.T("tui.shortcuts.frames", "4D frames"),
		i18n.T("tui.shortcuts.view", "View"),
		i18n.T("tui.shortcuts.collection", "Viewports"),
		i18n.T("tui.shortcuts.layer", "Layer display"),
	}

	var b strings.Builder
	b.WriteString("# " + i18n.T("tui.shortcuts.title", "Keyboard shortcuts") + "\n\n")
	for i, group := range defaultKeyMap().FullHelp() {
		if i < len(sections) {
			fmt.Fprintf(&b, "## %s\n\n", sections[i])
		}
		writeBindings(&b, group)
	}

	fmt.Fprintf(&b, "## %s\n\n", i18n.T("tui.shortcuts.frameEdit", "Frame field"))
	writeBindings(&b, defaultFrameEditKeyMap().ShortHelp())
	return b.String()
}

func writeBindings(b *strings.Builder, group []key.Binding) {
	fmt.Fprintf(b, "| %s | %s |\n|---|---|\n",
		i18n.T("tui.shortcuts.key", "Key"), i18n.T("tui.shortcuts.action", "Action"))
	for _, kb := range group {
		h := kb.Help()
		if h.Key == "" {
			continue
		}
		fmt.Fprintf(b, "| `%s` | %s |\n", h.Key, h.Desc)
	}
	b.WriteString("\n")
}

// RenderShortcuts renders ShortcutsMarkdown for a terminal of the given
// width. The plain markdown is returned if rendering fails.
func RenderShortcuts(width int) string {
	md := ShortcutsMarkdown()
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(20, width-4)),
	)
	if err != nil {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}
