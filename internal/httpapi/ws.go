package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/amberseal/amberseal/internal/runtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// chatReply is one frame sent back over the chat socket. Shape matches the
// REST message endpoint so clients can share decoding.
type chatReply struct {
	Response string `json:"response,omitempty"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// handleChatSocket upgrades to a WebSocket and runs a read→turn→write loop:
// each text frame is one user message, each reply frame carries the
// assistant response and the session status. Turns for one agent are
// serialized by the runtime, so a slow model call simply delays the next
// frame rather than interleaving.
func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	agentID := r.PathValue("id")
	if _, err := s.rt.Agent(agentID); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "agent", agentID, "err", err)
		return
	}
	defer conn.Close()

	slog.Info("chat socket opened", "agent", agentID)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("chat socket read failed", "agent", agentID, "err", err)
			}
			return
		}
		if msgType != websocket.TextMessage || len(data) == 0 {
			continue
		}

		result, err := s.rt.ProcessMessage(r.Context(), agentID, string(data))
		reply := chatReply{Response: result.Response, Status: string(result.Status)}
		if err != nil {
			reply.Error = err.Error()
			if errors.Is(err, runtime.ErrAgentNotFound) {
				_ = conn.WriteJSON(reply)
				return
			}
		}
		if err := conn.WriteJSON(reply); err != nil {
			slog.Warn("chat socket write failed", "agent", agentID, "err", err)
			return
		}
	}
}
