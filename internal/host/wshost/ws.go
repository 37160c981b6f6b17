package wshost

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"

	"github.com/wethinkt/go-niiview/internal/engine"
	"github.com/wethinkt/go-niiview/internal/protocol"
	"github.com/wethinkt/go-niiview/internal/tuilog"
)

// handleWS upgrades to a websocket. Text frames from the client are
// protocol envelopes for the engine; the server writes outbound envelopes
// and, unless ?state=0, a state envelope after every engine event.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled by middleware
	})
	if err != nil {
		tuilog.Log.Error("WebSocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxMessageBytes)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c, leave := s.hub.join()
	defer leave()

	var states <-chan engine.Snapshot
	if r.URL.Query().Get("state") != "0" {
		ch, unsub := s.engine.Subscribe()
		defer unsub()
		states = ch
	}

	wsConnectionsActive.Inc()
	defer wsConnectionsActive.Dec()
	tuilog.Log.Info("WebSocket client connected", "remote", r.RemoteAddr)

	s.engine.SurfaceReady()
	go s.readLoop(ctx, cancel, conn)

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case env := <-c.ch:
			if err := writeEnvelope(ctx, conn, env); err != nil {
				tuilog.Log.Debug("WS write failed", "type", env.Type, "error", err)
				return
			}
		case snap, ok := <-states:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "subscription closed")
				return
			}
			env, err := protocol.NewEnvelope(protocol.KindState, snap)
			if err != nil {
				tuilog.Log.Error("Encoding state failed", "error", err)
				continue
			}
			if err := writeEnvelope(ctx, conn, env); err != nil {
				tuilog.Log.Debug("WS state write failed", "error", err)
				return
			}
		}
	}
}

// readLoop hands every inbound frame to the engine until the connection
// fails, then cancels the write side.
func (s *Server) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) {
	defer cancel()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || ctx.Err() != nil {
				tuilog.Log.Info("WebSocket client disconnected")
			} else {
				tuilog.Log.Debug("WS read failed", "error", err)
			}
			return
		}
		wsMessagesTotal.WithLabelValues("in", "ws").Inc()
		s.engine.Receive(data)
	}
}

func writeEnvelope(ctx context.Context, conn *websocket.Conn, env protocol.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	wsMessagesTotal.WithLabelValues("out", "ws").Inc()
	return conn.Write(ctx, websocket.MessageText, data)
}
