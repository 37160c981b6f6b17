package tui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/wethinkt/go-niiview/internal/engine"
	"github.com/wethinkt/go-niiview/internal/i18n"
	"github.com/wethinkt/go-niiview/internal/layout"
)

const (
	// cellAspect is the height over width of one terminal cell. Layout runs
	// in square units, so rows count double.
	cellAspect = 2
	// chromeLines are the header, status and help lines around the grid.
	chromeLines = 4

	minCardWidth  = 18
	minCardHeight = 4
)

// containerFor converts a terminal size to the square-unit container the
// layout engine sizes viewports in.
func containerFor(width, height int) layout.Size {
	return layout.Size{
		Width:  float64(max(width, 1)),
		Height: float64(max(height-chromeLines, 1) * cellAspect),
	}
}

// cardSize converts a layout cell back to terminal columns and rows.
func cardSize(cell layout.Size) (int, int) {
	return max(int(cell.Width), minCardWidth), max(int(cell.Height)/cellAspect, minCardHeight)
}

// renderGrid lays the viewport cards out in the engine's rows and columns.
func (m Model) renderGrid() string {
	st := m.state
	if len(st.Viewports) == 0 {
		return m.styles.Muted.Render(i18n.T("tui.empty", "No viewports. Press e to open the example or pass files on the command line."))
	}
	cols := max(st.Canvas.Cols, 1)
	w, h := cardSize(st.Canvas.Cell)

	var rows []string
	for start := 0; start < len(st.Viewports); start += cols {
		end := min(start+cols, len(st.Viewports))
		cards := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			cards = append(cards, m.renderCard(st.Viewports[i], w, h))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderCard draws one viewport. The hide-UI level removes detail lines,
// from the bottom up.
func (m Model) renderCard(vs engine.ViewportState, w, h int) string {
	style := m.styles.Card
	switch {
	case vs.Index == m.focus:
		style = m.styles.FocusedCard
	case vs.Selected:
		style = m.styles.SelectedCard
	}
	inner := max(w-4, 1)

	var lines []string
	if m.state.HideUI >= 1 {
		title := fmt.Sprintf("%d %s", vs.Index+1, vs.ShortName)
		if vs.SyncEnabled {
			title += " " + m.styles.SyncBadge.Render(i18n.T("tui.badge.sync", "sync"))
		}
		lines = append(lines, ansi.Truncate(title, inner, "…"))
	}
	if m.state.HideUI >= 2 {
		lines = append(lines, ansi.Truncate(m.statusLine(vs), inner, "…"))
	}
	if m.state.HideUI >= 3 && vs.Loaded {
		for _, d := range m.detailLines(vs) {
			lines = append(lines, ansi.Truncate(d, inner, "…"))
		}
	}
	if len(lines) > h-2 {
		lines = lines[:max(h-2, 0)]
	}

	return style.Width(w).Height(h).Render(strings.Join(lines, "\n"))
}

func (m Model) statusLine(vs engine.ViewportState) string {
	switch {
	case vs.Error != "":
		return m.styles.Error.Render(vs.Error)
	case vs.Loading:
		return m.styles.Loading.Render(i18n.T("common.loading", "Loading..."))
	case !vs.Loaded:
		return m.styles.Muted.Render(i18n.T("tui.status.empty", "empty"))
	case vs.Frames > 1:
		play := i18n.T("tui.status.stopped", "stopped")
		if vs.Playing {
			play = i18n.T("tui.status.playing", "playing")
		}
		frame := fmt.Sprintf("%d/%d", vs.Frame, vs.Frames-1)
		if vs.Editing {
			frame = "[" + vs.Field + "▏]"
		}
		return m.styles.Loaded.Render(i18n.Tf("tui.status.frame", "frame %s", frame)) + " " + m.styles.Muted.Render(play)
	}
	return m.styles.Loaded.Render(i18n.T("tui.status.loaded", "loaded"))
}

func (m Model) detailLines(vs engine.ViewportState) []string {
	var out []string
	for i, v := range vs.Volumes {
		d := v.Header.Dims
		line := fmt.Sprintf("%dx%dx%d %s", d[0], d[1], d[2], v.Colormap)
		if i > 0 {
			line = "+ " + line
		}
		out = append(out, m.styles.Primary.Render(line))
	}
	for _, me := range vs.Meshes {
		out = append(out, m.styles.Primary.Render(i18n.Tf("tui.detail.mesh", "mesh %s (%d layers)", me.Name, len(me.Layers))))
	}
	zoom := vs.View.Pan[3]
	out = append(out, m.styles.Muted.Render(fmt.Sprintf("%s  x%.2f", m.state.SliceType, zoom)))
	return out
}
