package ws

import (
	"net/http"

	"github.com/vedran77/autotask/internal/logging"
	"github.com/vedran77/autotask/internal/transport/http/middleware"
	"nhooyr.io/websocket"
)

// ServeWS upgrades authenticated requests to a WebSocket. Browsers cannot set
// headers on the upgrade, so the session token travels as ?token=.
func ServeWS(hub *Hub, authn middleware.Authenticator, originPatterns []string, logger logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		account, err := authn.Authenticate(r.Context(), "Bearer "+token)
		if err != nil {
			if _, ok := middleware.RejectionReason(err); ok {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			logger.Error(r.Context(), "ws session lookup failed", "err", err)
			http.Error(w, "session lookup failed", http.StatusServiceUnavailable)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Warn(r.Context(), "ws accept failed", "err", err)
			return
		}

		client := NewClient(hub, conn, account.ID, logger)
		if !hub.Register(client) {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}

		go client.WritePump(r.Context())
		client.ReadPump(r.Context())
	}
}
