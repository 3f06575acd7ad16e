package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
)

// HandleWebSocket upgrades dashboard connections. The optional "owner" query
// parameter narrows the feed to a single owner.
func HandleWebSocket(hub *Hub, originPatterns []string, logger *slog.Logger) http.HandlerFunc {
	logger = logger.With("component", "websocket")
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Warn("accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		client := NewClient(hub, conn, r.URL.Query().Get("owner"))
		client.Run(r.Context())
		conn.Close(ws.StatusNormalClosure, "")
	}
}
