// Package stdiohost speaks the engine protocol as newline-delimited JSON
// envelopes, for editor extensions and notebooks that spawn niiview as a
// child process.
package stdiohost

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/wethinkt/go-niiview/internal/engine"
	"github.com/wethinkt/go-niiview/internal/protocol"
	"github.com/wethinkt/go-niiview/internal/tuilog"
)

// MaxLineBytes bounds one inbound envelope.
const MaxLineBytes = 512 << 20

// Receiver takes raw inbound envelopes. *engine.Engine implements it.
type Receiver interface {
	Receive(data []byte)
}

// Host writes outbound envelopes to w, one JSON object per line. It
// implements host.Bridge.
type Host struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// New creates a host writing to w, usually os.Stdout.
func New(w io.Writer) *Host {
	return &Host{enc: json.NewEncoder(w)}
}

// Send writes env as one line.
func (h *Host) Send(ctx context.Context, env protocol.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.enc.Encode(env); err != nil {
		return fmt.Errorf("write %s envelope: %w", env.Type, err)
	}
	return nil
}

// Notify writes a notify envelope.
func (h *Host) Notify(level, text string) {
	env, err := protocol.NewEnvelope(protocol.KindNotify, protocol.Notification{Level: level, Text: text})
	if err == nil {
		err = h.Send(context.Background(), env)
	}
	if err != nil {
		tuilog.Log.Error("stdiohost: notification lost", "level", level, "text", text, "error", err)
	}
}

// Serve reads envelopes from r, one per line, until EOF or ctx is
// cancelled. Blank lines are skipped. A line longer than MaxLineBytes ends
// the stream with an error.
func (h *Host) Serve(ctx context.Context, r io.Reader, rcv Receiver) error {
	lines := make(chan []byte)
	done := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			select {
			case lines <- append([]byte(nil), line...):
			case <-ctx.Done():
				done <- nil
				return
			}
		}
		done <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line := <-lines:
			rcv.Receive(line)
		case err := <-done:
			if err != nil {
				return fmt.Errorf("read envelopes: %w", err)
			}
			tuilog.Log.Info("stdiohost: input closed")
			return nil
		}
	}
}

// Mirror writes a state envelope for every snapshot until ctx is cancelled
// or states is closed.
func (h *Host) Mirror(ctx context.Context, states <-chan engine.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-states:
			if !ok {
				return
			}
			env, err := protocol.NewEnvelope(protocol.KindState, snap)
			if err == nil {
				err = h.Send(ctx, env)
			}
			if err != nil {
				tuilog.Log.Debug("stdiohost: state not written", "error", err)
			}
		}
	}
}
