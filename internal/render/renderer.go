package render

import (
	"errors"
	"sync"

	"github.com/wethinkt/go-niiview/internal/tuilog"
	"github.com/wethinkt/go-niiview/internal/viewport"
)

// ErrClosed is returned when drawing on a closed renderer.
var ErrClosed = errors.New("renderer closed")

// Headless is a renderer that keeps the last frame it was asked to draw.
// Hosts without a drawing surface read it back for snapshots and tests.
type Headless struct {
	mu     sync.Mutex
	last   viewport.Frame
	draws  int
	closed bool
}

// NewHeadless returns a viewport.Renderer factory for headless renderers.
func NewHeadless() func() viewport.Renderer {
	return func() viewport.Renderer { return &Headless{} }
}

// Draw implements viewport.Renderer.
func (h *Headless) Draw(f viewport.Frame) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.last = f
	h.draws++
	if tuilog.Log.Enabled(tuilog.LevelDebug) {
		tuilog.Log.Debug("Draw", "slice", f.SliceType, "width", f.Size.Width,
			"volumes", len(f.Scene.Volumes), "meshes", len(f.Scene.Meshes))
	}
	return nil
}

// Close implements viewport.Renderer.
func (h *Headless) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Last returns the most recent frame and the number of draws so far.
func (h *Headless) Last() (viewport.Frame, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last, h.draws
}
