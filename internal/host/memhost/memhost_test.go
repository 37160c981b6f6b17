package memhost

import (
	"context"
	"errors"
	"testing"

	"github.com/wethinkt/go-niiview/internal/protocol"
)

func TestHost_SendAndStream(t *testing.T) {
	h := New(1)
	ctx := context.Background()

	if err := h.Send(ctx, protocol.Ready()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := h.Send(ctx, protocol.Envelope{Type: protocol.KindAddImages}); err != nil {
		t.Fatalf("Send with full channel: %v", err)
	}
	if got := <-h.Out(); got.Type != protocol.KindReady {
		t.Errorf("streamed %q, want ready", got.Type)
	}
	if n := len(h.Sent()); n != 2 {
		t.Errorf("recorded %d envelopes, want 2", n)
	}
	if n := len(h.SentOf(protocol.KindAddImages)); n != 1 {
		t.Errorf("SentOf(addImages) = %d", n)
	}
}

func TestHost_FailWith(t *testing.T) {
	h := New(0)
	boom := errors.New("boom")
	h.FailWith(boom)
	if err := h.Send(context.Background(), protocol.Ready()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	h.FailWith(nil)
	if err := h.Send(context.Background(), protocol.Ready()); err != nil {
		t.Fatalf("err after recovery = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.Send(ctx, protocol.Ready()); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled ctx err = %v", err)
	}
}

func TestHost_NotifyAndReset(t *testing.T) {
	h := New(0)
	h.Notify(protocol.LevelWarning, "careful")
	notes := h.Notifications()
	if len(notes) != 1 || notes[0].Level != protocol.LevelWarning || notes[0].Text != "careful" {
		t.Fatalf("notes = %+v", notes)
	}
	h.Reset()
	if len(h.Notifications()) != 0 || len(h.Sent()) != 0 {
		t.Error("Reset kept records")
	}
}
