package httpapi

import (
	"net/http"
	"strings"
	"time"
)

// Frame shapes for the websocket chat transport. The exchange semantics are
// identical to POST /api/chat; only the transport differs.
type wsClientMessage struct {
	Message string `json:"message"`
}

type wsServerMessage struct {
	Reply string `json:"reply,omitempty"`
	Model string `json:"model,omitempty"`
	Error string `json:"error,omitempty"`
	Code  int    `json:"code,omitempty"`
}

func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("sessionId"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "query parameter sessionId is required", "")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(64 << 10)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
		var msg wsClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		reply, err := s.svc.Handle(r.Context(), sessionID, msg.Message)
		out := wsServerMessage{Reply: reply.Text, Model: reply.Model}
		if err != nil {
			status, message, _ := mapChatError(err)
			out = wsServerMessage{Error: message, Code: status}
		}

		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(out); err != nil {
			return
		}
	}
}
