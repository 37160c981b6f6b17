// Package host defines how the engine talks back to whatever embeds it.
package host

import (
	"context"

	"github.com/wethinkt/go-niiview/internal/protocol"
)

// Bridge carries outbound envelopes to the host and shows host-native
// notifications. Implementations must be safe for concurrent use.
type Bridge interface {
	Send(ctx context.Context, env protocol.Envelope) error
	Notify(level, text string)
}

// Discard is a Bridge that drops everything.
type Discard struct{}

func (Discard) Send(context.Context, protocol.Envelope) error { return nil }
func (Discard) Notify(string, string)                         {}
