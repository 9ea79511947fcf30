package stream

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ServeWS upgrades the request and subscribes the connection to the hub.
// checkOrigin may be nil to accept every origin.
func (h *Hub) ServeWS(checkOrigin func(r *http.Request) bool) http.HandlerFunc {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already replied with an error status
			h.logger.Warn("websocket upgrade failed", "error", err)
			return
		}

		client := newClient(h, conn, uuid.NewString())

		select {
		case h.register <- client:
		case <-h.ctx.Done():
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	}
}
