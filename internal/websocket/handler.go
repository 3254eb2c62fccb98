package websocket

import (
	"log/slog"
	"net/http"
	"strconv"

	ws "github.com/coder/websocket"
)

// HandleWebSocket returns an HTTP handler that upgrades connections to
// WebSocket and runs them as Hub clients. Clients join the change feed of
// the family named by the family_id query parameter.
func HandleWebSocket(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		familyID, err := strconv.ParseInt(r.URL.Query().Get("family_id"), 10, 64)
		if err != nil || familyID <= 0 {
			http.Error(w, "family_id is required", http.StatusBadRequest)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // Allow connections from any origin (household LAN)
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, familyID)
		client.Run(r.Context())
	}
}
