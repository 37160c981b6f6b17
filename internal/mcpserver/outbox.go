package mcpserver

import (
	"context"
	"slices"
	"sync"

	"github.com/wethinkt/go-niiview/internal/protocol"
	"github.com/wethinkt/go-niiview/internal/tuilog"
)

// outboxLimit is the number of outbound envelopes kept for read_outbox.
const outboxLimit = 100

// Outbox is the host bridge of an engine driven over MCP. Debug answers go
// to the pending debug_request call; every other envelope and notification
// is kept until a client drains it.
type Outbox struct {
	mu      sync.Mutex
	pending []protocol.Envelope
	waiter  chan protocol.Envelope
}

// NewOutbox creates an empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{}
}

// Send implements host.Bridge.
func (o *Outbox) Send(ctx context.Context, env protocol.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	if env.Type == protocol.KindDebugAnswer && o.waiter != nil {
		select {
		case o.waiter <- env:
		default:
		}
		o.waiter = nil
		return nil
	}
	if len(o.pending) >= outboxLimit {
		o.pending = o.pending[1:]
	}
	o.pending = append(o.pending, env)
	return nil
}

// Notify implements host.Bridge. Notifications are queued as notify
// envelopes.
func (o *Outbox) Notify(level, text string) {
	tuilog.Log.Info("mcp: host notification", "level", level, "text", text)
	env, err := protocol.NewEnvelope(protocol.KindNotify, protocol.Notification{Level: level, Text: text})
	if err != nil {
		return
	}
	o.Send(context.Background(), env)
}

// Drain returns and forgets the queued envelopes.
func (o *Outbox) Drain() []protocol.Envelope {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := slices.Clone(o.pending)
	o.pending = nil
	return out
}

// await routes the next debug answer to ch.
func (o *Outbox) await(ch chan protocol.Envelope) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.waiter = ch
}

// cancelWait stops routing debug answers to ch if it is still waiting.
func (o *Outbox) cancelWait(ch chan protocol.Envelope) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.waiter == ch {
		o.waiter = nil
	}
}
