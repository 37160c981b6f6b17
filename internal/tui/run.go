package tui

import (
	"context"
	"os"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"

	"github.com/wethinkt/go-niiview/internal/engine"
	"github.com/wethinkt/go-niiview/internal/tuilog"
)

// termSizeOpts seeds the program with the terminal size so the first frame
// is laid out before the first resize event.
func termSizeOpts() []tea.ProgramOption {
	var opts []tea.ProgramOption
	for _, fd := range []int{int(os.Stdout.Fd()), int(os.Stdin.Fd()), int(os.Stderr.Fd())} {
		if term.IsTerminal(fd) {
			w, h, err := term.GetSize(fd)
			if err == nil && w > 0 && h > 0 {
				tuilog.Log.Info("Terminal size", "fd", fd, "width", w, "height", h)
				opts = append(opts, tea.WithWindowSize(w, h))
				break
			}
		}
	}
	return opts
}

// Run shows the viewer until the user quits or ctx is cancelled. The
// engine loop must already be running.
func Run(ctx context.Context, e *engine.Engine, b *Bridge) error {
	tuilog.Log.Info("Starting TUI")
	opts := append(termSizeOpts(), tea.WithContext(ctx))
	p := tea.NewProgram(New(e, b), opts...)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
