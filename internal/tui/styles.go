package tui

import (
	"charm.land/lipgloss/v2"

	"github.com/wethinkt/go-niiview/internal/tui/theme"
)

// Styles holds the lipgloss styles computed from a theme.
type Styles struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Primary lipgloss.Style

	FocusedCard  lipgloss.Style
	SelectedCard lipgloss.Style
	Card         lipgloss.Style

	Loaded    lipgloss.Style
	Loading   lipgloss.Style
	Error     lipgloss.Style
	SyncBadge lipgloss.Style

	StatusBar lipgloss.Style
}

func styleFrom(s theme.Style) lipgloss.Style {
	st := lipgloss.NewStyle().Bold(s.Bold).Italic(s.Italic).Underline(s.Underline)
	if s.Fg != "" {
		st = st.Foreground(lipgloss.Color(s.Fg))
	}
	if s.Bg != "" {
		st = st.Background(lipgloss.Color(s.Bg))
	}
	return st
}

func buildStyles(t theme.Theme) Styles {
	card := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(t.GetAccent())),
		Muted:   styleFrom(t.TextMuted),
		Primary: styleFrom(t.TextPrimary),

		FocusedCard:  card.BorderForeground(lipgloss.Color(t.GetBorderActive())),
		SelectedCard: card.BorderForeground(lipgloss.Color(t.GetBorderSelected())),
		Card:         card.BorderForeground(lipgloss.Color(t.GetBorderInactive())),

		Loaded:    styleFrom(t.StatusLoaded),
		Loading:   styleFrom(t.StatusLoading),
		Error:     styleFrom(t.StatusError),
		SyncBadge: styleFrom(t.SyncBadge).Padding(0, 1),

		StatusBar: styleFrom(t.TextMuted).Padding(0, 1),
	}
}
