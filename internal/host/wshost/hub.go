package wshost

import (
	"context"
	"sync"

	"github.com/wethinkt/go-niiview/internal/protocol"
	"github.com/wethinkt/go-niiview/internal/tuilog"
)

const (
	// clientBuffer is the number of envelopes queued per client.
	clientBuffer = 64
	// backlogLimit is the number of envelopes kept while no client is
	// connected. The first client to connect receives them.
	backlogLimit = 50
)

// Hub fans outbound envelopes out to every connected websocket client. It
// implements host.Bridge.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	backlog []protocol.Envelope
}

type client struct {
	ch chan protocol.Envelope
}

// NewHub creates a hub with no clients.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Send delivers env to every client. With no client connected, env is kept
// for the next one; the oldest envelopes are dropped past backlogLimit.
func (h *Hub) Send(ctx context.Context, env protocol.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) == 0 {
		if len(h.backlog) >= backlogLimit {
			h.backlog = h.backlog[1:]
			envelopesDroppedTotal.Inc()
		}
		h.backlog = append(h.backlog, env)
		return nil
	}
	for c := range h.clients {
		select {
		case c.ch <- env:
		default:
			envelopesDroppedTotal.Inc()
			tuilog.Log.Warn("Dropping envelope for slow websocket client", "type", env.Type)
		}
	}
	return nil
}

// Notify sends a notify envelope to the clients.
func (h *Hub) Notify(level, text string) {
	tuilog.Log.Info("Host notification", "level", level, "text", text)
	env, err := protocol.NewEnvelope(protocol.KindNotify, protocol.Notification{Level: level, Text: text})
	if err != nil {
		tuilog.Log.Error("Encoding notification failed", "error", err)
		return
	}
	h.Send(context.Background(), env)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// join registers a client, handing it any backlog. Call the returned
// function to leave.
func (h *Hub) join() (*client, func()) {
	c := &client{ch: make(chan protocol.Envelope, clientBuffer)}

	h.mu.Lock()
	for _, env := range h.backlog {
		select {
		case c.ch <- env:
		default:
			envelopesDroppedTotal.Inc()
		}
	}
	h.backlog = nil
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	leave := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.clients, c)
	}
	return c, leave
}
