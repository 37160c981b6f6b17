package tui

import (
	"context"
	"encoding/json"

	"github.com/wethinkt/go-niiview/internal/i18n"
	"github.com/wethinkt/go-niiview/internal/protocol"
	"github.com/wethinkt/go-niiview/internal/tuilog"
)

// noticeBuffer is the number of undisplayed notices kept for the model.
const noticeBuffer = 16

// Notice is a line for the status bar.
type Notice struct {
	Level string
	Text  string
}

// Bridge is the host bridge of the terminal viewer. The terminal cannot
// show file pickers, so outbound requests become notices that point to the
// command line instead.
type Bridge struct {
	notices chan Notice
}

// NewBridge creates a bridge for one Model.
func NewBridge() *Bridge {
	return &Bridge{notices: make(chan Notice, noticeBuffer)}
}

// Send turns env into a notice when it asks something of the user.
func (b *Bridge) Send(ctx context.Context, env protocol.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch env.Type {
	case protocol.KindAddImages:
		b.push(protocol.LevelInfo, i18n.T("tui.notice.addImages", "Pass image files on the command line: niiview tui <files...>"))
	case protocol.KindAddDcmFolder:
		b.push(protocol.LevelInfo, i18n.T("tui.notice.addDcmFolder", "Pass a DICOM folder on the command line: niiview tui <folder>"))
	case protocol.KindAddOverlay:
		var req protocol.OverlayRequest
		if err := json.Unmarshal(env.Body, &req); err != nil {
			return err
		}
		b.push(protocol.LevelInfo, i18n.Tf("tui.notice.addOverlay", "Overlays cannot be picked here (%s for viewport %d)", req.Type, req.Index+1))
	case protocol.KindDebugAnswer:
		b.push(protocol.LevelInfo, string(env.Body))
	default:
		tuilog.Log.Debug("tui: outbound envelope", "type", env.Type)
	}
	return nil
}

// Notify queues a notice for the status bar.
func (b *Bridge) Notify(level, text string) {
	b.push(level, text)
}

// push never blocks; a full buffer drops the oldest notice.
func (b *Bridge) push(level, text string) {
	n := Notice{Level: level, Text: text}
	for {
		select {
		case b.notices <- n:
			return
		default:
		}
		select {
		case <-b.notices:
		default:
		}
	}
}
