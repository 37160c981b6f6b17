// Package tui is the terminal host: it shows the viewport grid, reads keys
// and turns them into engine commands.
package tui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/wethinkt/go-niiview/internal/engine"
	"github.com/wethinkt/go-niiview/internal/i18n"
	"github.com/wethinkt/go-niiview/internal/protocol"
	"github.com/wethinkt/go-niiview/internal/scene"
	"github.com/wethinkt/go-niiview/internal/tui/theme"
	"github.com/wethinkt/go-niiview/internal/viewsync"
)

const (
	crosshairStep = 0.05
	zoomStep      = 1.1
	opacityStep   = 0.1
)

// stateMsg delivers an engine snapshot.
type stateMsg struct {
	state engine.Snapshot
}

// noticeMsg delivers a bridge notice.
type noticeMsg Notice

// Model is the bubbletea model of the terminal viewer.
type Model struct {
	engine  *engine.Engine
	bridge  *Bridge
	states  <-chan engine.Snapshot
	unsub   func()
	state   engine.Snapshot
	notice  Notice
	focus   int
	width   int
	height  int
	keys    keyMap
	edit    frameEditKeyMap
	help    help.Model
	styles  Styles
	editing bool
	field   string

	// Local copies of the selection toggles, which a snapshot only shows
	// combined as a mode.
	selActive bool
	multi     bool
}

// New creates a model driving e. b must be the bridge e was built with.
func New(e *engine.Engine, b *Bridge) Model {
	states, unsub := e.Subscribe()
	st := e.State()
	return Model{
		engine:    e,
		bridge:    b,
		states:    states,
		unsub:     unsub,
		state:     st,
		keys:      defaultKeyMap(),
		edit:      defaultFrameEditKeyMap(),
		help:      help.New(),
		styles:    buildStyles(theme.Current()),
		selActive: st.SelectionMode != "none",
		multi:     st.SelectionMode == "multiple",
	}
}

func (m Model) Init() tea.Cmd {
	m.engine.SurfaceReady()
	return tea.Batch(waitForState(m.states), waitForNotice(m.bridge))
}

func waitForState(ch <-chan engine.Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return stateMsg{state: s}
	}
}

func waitForNotice(b *Bridge) tea.Cmd {
	if b == nil {
		return nil
	}
	return func() tea.Msg {
		return noticeMsg(<-b.notices)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.engine.Resize(containerFor(msg.Width, msg.Height))
		return m, nil

	case stateMsg:
		m.state = msg.state
		m.focus = clampFocus(m.focus, len(m.state.Viewports))
		if m.editing {
			if vs, ok := m.state.Viewport(m.focus); !ok || !vs.Editing {
				m.editing = false
			}
		}
		return m, waitForState(m.states)

	case noticeMsg:
		m.notice = Notice(msg)
		return m, waitForNotice(m.bridge)

	case tea.KeyPressMsg:
		if m.editing {
			return m.updateFrameEdit(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func clampFocus(focus, n int) int {
	if n == 0 {
		return 0
	}
	return min(max(focus, 0), n-1)
}

func (m Model) updateKeys(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	n := len(m.state.Viewports)
	cols := max(m.state.Canvas.Cols, 1)
	e := m.engine

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.unsub != nil {
			m.unsub()
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Left):
		m.focus = clampFocus(m.focus-1, n)
	case key.Matches(msg, m.keys.Right):
		m.focus = clampFocus(m.focus+1, n)
	case key.Matches(msg, m.keys.Up):
		if m.focus-cols >= 0 {
			m.focus -= cols
		}
	case key.Matches(msg, m.keys.Down):
		if m.focus+cols < n {
			m.focus += cols
		}

	case key.Matches(msg, m.keys.Select):
		e.Click(m.focus)
	case key.Matches(msg, m.keys.SelectAll):
		e.SelectAll()
	case key.Matches(msg, m.keys.ToggleSel):
		m.selActive = !m.selActive
		e.SetSelectionActive(m.selActive)
	case key.Matches(msg, m.keys.ToggleMulti):
		m.multi = !m.multi
		e.SetMultiSelect(m.multi)
	case key.Matches(msg, m.keys.ToggleSync):
		e.ToggleSync(m.focus)

	case key.Matches(msg, m.keys.NextFrame):
		e.NextFrame(m.focus)
	case key.Matches(msg, m.keys.PrevFrame):
		e.PrevFrame(m.focus)
	case key.Matches(msg, m.keys.Play):
		e.TogglePlay(m.focus)
	case key.Matches(msg, m.keys.EditFrame):
		if vs, ok := m.state.Viewport(m.focus); ok && vs.Frames > 1 {
			m.editing = true
			m.field = ""
			e.BeginFrameEdit(m.focus)
		}

	case key.Matches(msg, m.keys.SliceType):
		e.SetSliceType(scene.SliceType(msg.String()[0] - '1'))
	case key.Matches(msg, m.keys.HideUI):
		e.SetHideUI((m.state.HideUI + 1) % (engine.DefaultHideUI + 1))
	case key.Matches(msg, m.keys.ResetZoom):
		e.ResetZoom()
	case key.Matches(msg, m.keys.ZoomIn):
		m.zoom(zoomStep)
	case key.Matches(msg, m.keys.ZoomOut):
		m.zoom(1 / zoomStep)
	case key.Matches(msg, m.keys.CrossLeft):
		m.moveCrosshair(0, -crosshairStep)
	case key.Matches(msg, m.keys.CrossRight):
		m.moveCrosshair(0, crosshairStep)
	case key.Matches(msg, m.keys.CrossUp):
		m.moveCrosshair(1, crosshairStep)
	case key.Matches(msg, m.keys.CrossDown):
		m.moveCrosshair(1, -crosshairStep)

	case key.Matches(msg, m.keys.Remove):
		if n > 0 {
			e.Remove(m.focus)
		}
	case key.Matches(msg, m.keys.DropOverlay):
		e.RemoveLastOverlay()
	case key.Matches(msg, m.keys.Example):
		e.OpenExample()

	case key.Matches(msg, m.keys.Colormap):
		m.cycleColormap()
	case key.Matches(msg, m.keys.Invert):
		m.toggleInvert()
	case key.Matches(msg, m.keys.OpacityUp):
		m.stepOpacity(opacityStep)
	case key.Matches(msg, m.keys.OpacityDown):
		m.stepOpacity(-opacityStep)
	}
	return m, nil
}

func (m Model) updateFrameEdit(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	e := m.engine
	switch {
	case key.Matches(msg, m.edit.Commit):
		m.editing = false
		e.CommitFrameEdit(m.focus)
	case key.Matches(msg, m.edit.Cancel):
		m.editing = false
		e.CancelFrameEdit(m.focus)
	case key.Matches(msg, m.edit.Backspace):
		if m.field != "" {
			m.field = m.field[:len(m.field)-1]
			e.FrameInput(m.focus, m.field)
		}
	default:
		if msg.Text != "" {
			m.field += msg.Text
			e.FrameInput(m.focus, m.field)
		}
	}
	return m, nil
}

// zoom scales the focused viewport. Zoom travels as a right-button drag so
// it reaches every loaded peer.
func (m Model) zoom(factor float64) {
	vs, ok := m.state.Viewport(m.focus)
	if !ok || !vs.Loaded {
		return
	}
	view := vs.View
	view.Pan[3] *= factor
	m.engine.Interact(m.focus, view, viewsync.ButtonRight)
}

func (m Model) moveCrosshair(axis int, delta float64) {
	vs, ok := m.state.Viewport(m.focus)
	if !ok || !vs.Loaded {
		return
	}
	view := vs.View
	view.Crosshair[axis] = min(max(view.Crosshair[axis]+delta, 0), 1)
	m.engine.Interact(m.focus, view, viewsync.ButtonLeft)
}

func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

func (m Model) render() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderGrid())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	if m.editing {
		b.WriteString(m.help.View(m.edit))
	} else {
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

func (m Model) renderHeader() string {
	st := m.state
	title := m.styles.Title.Render("niiview")
	count := i18n.Tn("tui.viewports", "{{.Count}} viewport", "{{.Count}} viewports", len(st.Viewports))
	info := fmt.Sprintf("  %s  %s  %s", count, st.SliceType, i18n.Tf("tui.selection", "selection: %s", st.SelectionMode))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, m.styles.Muted.Render(info))
}

func (m Model) renderStatus() string {
	var parts []string
	if m.state.Location != "" {
		parts = append(parts, m.state.Location)
	}
	if m.notice.Text != "" {
		text := m.notice.Text
		if m.notice.Level == protocol.LevelError {
			text = m.styles.Error.Render(text)
		}
		parts = append(parts, text)
	}
	return m.styles.StatusBar.Render(strings.Join(parts, "  "))
}
