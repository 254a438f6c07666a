package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The chat socket is same-origin in the app shell; the API carries no
	// cookies, so cross-origin upgrades are harmless.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	chatWriteWait  = 10 * time.Second
	chatIdleExpiry = 10 * time.Minute
)

// chatMessage is an inbound frame on the chat socket.
type chatMessage struct {
	Message string `json:"message"`
	Context string `json:"context,omitempty"`
}

// chatError is sent when an inbound frame cannot be handled.
type chatError struct {
	Error string `json:"error"`
}

// handleChatSocket upgrades the connection and relays each inbound message
// through the persona router. Frames are handled sequentially per socket;
// the concierge conversation is turn-based.
func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.logger.Info("chat socket opened", "remote", r.RemoteAddr)
	for {
		conn.SetReadDeadline(time.Now().Add(chatIdleExpiry))

		var msg chatMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("chat socket read failed", "error", err)
			}
			return
		}
		if msg.Message == "" {
			conn.SetWriteDeadline(time.Now().Add(chatWriteWait))
			if err := conn.WriteJSON(chatError{Error: "message is required"}); err != nil {
				return
			}
			continue
		}

		reply, err := s.router.Ask(r.Context(), msg.Message, msg.Context)
		if err != nil {
			// Ask only fails when the request context is gone; the socket
			// is going down with it.
			return
		}

		conn.SetWriteDeadline(time.Now().Add(chatWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			s.logger.Debug("chat socket write failed", "error", err)
			return
		}
	}
}
