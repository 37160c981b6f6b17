package tui

import (
	"charm.land/bubbles/v2/key"

	"github.com/wethinkt/go-niiview/internal/i18n"
)

// keyMap defines the key bindings of the viewer.
type keyMap struct {
	Left  key.Binding
	Right key.Binding
	Up    key.Binding
	Down  key.Binding

	Select      key.Binding
	SelectAll   key.Binding
	ToggleSel   key.Binding
	ToggleMulti key.Binding
	ToggleSync  key.Binding

	NextFrame key.Binding
	PrevFrame key.Binding
	Play      key.Binding
	EditFrame key.Binding

	SliceType   key.Binding
	HideUI      key.Binding
	ResetZoom   key.Binding
	ZoomIn      key.Binding
	ZoomOut     key.Binding
	CrossLeft   key.Binding
	CrossRight  key.Binding
	CrossUp     key.Binding
	CrossDown   key.Binding
	Remove      key.Binding
	Example     key.Binding
	DropOverlay key.Binding

	Colormap    key.Binding
	Invert      key.Binding
	OpacityUp   key.Binding
	OpacityDown key.Binding

	Help key.Binding
	Quit key.Binding
}

// frameEditKeyMap is active while the frame entry field is open.
type frameEditKeyMap struct {
	Commit    key.Binding
	Cancel    key.Binding
	Backspace key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", i18n.T("tui.help.left", "focus left")),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", i18n.T("tui.help.right", "focus right")),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", i18n.T("tui.help.up", "focus up")),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", i18n.T("tui.help.down", "focus down")),
		),

		Select: key.NewBinding(
			key.WithKeys("space", "s"),
			key.WithHelp("space", i18n.T("tui.help.select", "select")),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", i18n.T("tui.help.selectAll", "select all")),
		),
		ToggleSel: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", i18n.T("tui.help.selection", "selection on/off")),
		),
		ToggleMulti: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", i18n.T("tui.help.multi", "multi-select")),
		),
		ToggleSync: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", i18n.T("tui.help.sync", "sync")),
		),

		NextFrame: key.NewBinding(
			key.WithKeys("n", "]"),
			key.WithHelp("n", i18n.T("tui.help.nextFrame", "next frame")),
		),
		PrevFrame: key.NewBinding(
			key.WithKeys("p", "["),
			key.WithHelp("p", i18n.T("tui.help.prevFrame", "previous frame")),
		),
		Play: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", i18n.T("tui.help.play", "play/stop")),
		),
		EditFrame: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", i18n.T("tui.help.editFrame", "go to frame")),
		),

		SliceType: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5"),
			key.WithHelp("1-5", i18n.T("tui.help.sliceType", "slice type")),
		),
		HideUI: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", i18n.T("tui.help.hideUI", "cycle chrome")),
		),
		ResetZoom: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", i18n.T("tui.help.resetZoom", "reset zoom")),
		),
		ZoomIn: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+/-", i18n.T("tui.help.zoom", "zoom")),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("-"),
		),
		CrossLeft: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("HJKL", i18n.T("tui.help.crosshair", "move crosshair")),
		),
		CrossRight: key.NewBinding(key.WithKeys("L")),
		CrossUp:    key.NewBinding(key.WithKeys("K")),
		CrossDown:  key.NewBinding(key.WithKeys("J")),
		Remove: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", i18n.T("tui.help.remove", "remove")),
		),
		Example: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", i18n.T("tui.help.example", "open example")),
		),
		DropOverlay: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", i18n.T("tui.help.dropOverlay", "remove last overlay")),
		),

		Colormap: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", i18n.T("tui.help.colormap", "next colormap (top layer)")),
		),
		Invert: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", i18n.T("tui.help.invert", "invert colormap")),
		),
		OpacityUp: key.NewBinding(
			key.WithKeys(">"),
			key.WithHelp("</>", i18n.T("tui.help.opacity", "layer opacity")),
		),
		OpacityDown: key.NewBinding(
			key.WithKeys("<"),
		),

		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", i18n.T("tui.help.help", "help")),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", i18n.T("tui.help.quit", "quit")),
		),
	}
}

func defaultFrameEditKeyMap() frameEditKeyMap {
	return frameEditKeyMap{
		Commit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", i18n.T("tui.help.commit", "apply")),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", i18n.T("tui.help.cancel", "cancel")),
		),
		Backspace: key.NewBinding(
			key.WithKeys("backspace"),
		),
	}
}

// ShortHelp returns the bindings shown in the one-line help bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.ToggleSync, k.Play, k.SliceType, k.Help, k.Quit}
}

// FullHelp returns the bindings shown in the expanded help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.Select, k.SelectAll, k.ToggleSel, k.ToggleMulti, k.ToggleSync},
		{k.NextFrame, k.PrevFrame, k.Play, k.EditFrame},
		{k.SliceType, k.HideUI, k.ResetZoom, k.ZoomIn, k.CrossLeft},
		{k.Remove, k.DropOverlay, k.Example, k.Help, k.Quit},
		{k.Colormap, k.Invert, k.OpacityUp},
	}
}

// ShortHelp returns the bindings shown while editing the frame field.
func (k frameEditKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Commit, k.Cancel}
}

// FullHelp returns the bindings shown while editing the frame field.
func (k frameEditKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
