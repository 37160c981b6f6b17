// Package memhost is an in-process host bridge. Outbound envelopes and
// notifications are recorded in memory and streamed on a channel.
package memhost

import (
	"context"
	"slices"
	"sync"

	"github.com/wethinkt/go-niiview/internal/protocol"
	"github.com/wethinkt/go-niiview/internal/tuilog"
)

// DefaultBuffer is the capacity of the Out channel.
const DefaultBuffer = 64

// Host implements host.Bridge in memory.
type Host struct {
	mu    sync.Mutex
	sent  []protocol.Envelope
	notes []protocol.Notification
	err   error
	out   chan protocol.Envelope
}

// New creates a host whose Out channel holds buffer envelopes. Envelopes
// sent while it is full are still recorded but not streamed.
func New(buffer int) *Host {
	return &Host{out: make(chan protocol.Envelope, max(buffer, 0))}
}

// Send records env. It fails with the error set by FailWith.
func (h *Host) Send(ctx context.Context, env protocol.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	if h.err != nil {
		err := h.err
		h.mu.Unlock()
		return err
	}
	h.sent = append(h.sent, env)
	h.mu.Unlock()

	select {
	case h.out <- env:
	default:
		tuilog.Log.Debug("memhost: out channel full, envelope not streamed", "type", env.Type)
	}
	return nil
}

// Notify records a notification.
func (h *Host) Notify(level, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notes = append(h.notes, protocol.Notification{Level: level, Text: text})
}

// Out streams sent envelopes.
func (h *Host) Out() <-chan protocol.Envelope { return h.out }

// FailWith makes every later Send return err. A nil err restores delivery.
func (h *Host) FailWith(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

// Sent returns every envelope delivered so far.
func (h *Host) Sent() []protocol.Envelope {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.sent)
}

// SentOf returns the delivered envelopes of one kind.
func (h *Host) SentOf(kind protocol.Kind) []protocol.Envelope {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []protocol.Envelope
	for _, env := range h.sent {
		if env.Type == kind {
			out = append(out, env)
		}
	}
	return out
}

// Notifications returns every notification so far.
func (h *Host) Notifications() []protocol.Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.notes)
}

// Reset forgets everything recorded so far.
func (h *Host) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = nil
	h.notes = nil
}
