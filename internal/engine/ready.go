package engine

import "github.com/wethinkt/go-niiview/internal/protocol"

// readyState tracks the two conditions for announcing readiness. The host
// may report its surface before or after the loop starts listening.
type readyState struct {
	listener bool
	surface  bool
	sent     bool
}

func (r readyState) ok() bool { return r.listener && r.surface }

// Listen marks the engine as listening for hosts that drive it with Flush
// instead of Run.
func (e *Engine) Listen() {
	e.enqueue(e.listenerReady)
}

// SurfaceReady reports that the host's drawing surface exists.
func (e *Engine) SurfaceReady() {
	e.enqueue(func() {
		e.ready.surface = true
		e.announce()
	})
}

func (e *Engine) listenerReady() {
	e.ready.listener = true
	e.announce()
}

// announce sends ready exactly once, when both sides are up.
func (e *Engine) announce() {
	if e.ready.sent || !e.ready.ok() {
		return
	}
	e.ready.sent = true
	e.send(protocol.Ready())
}
