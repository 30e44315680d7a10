// internal/handlers/room_ws.go
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/jason-s-yu/clashkings/internal/auth"
	"github.com/jason-s-yu/clashkings/internal/middleware"
	"github.com/jason-s-yu/clashkings/internal/session"
	"github.com/sirupsen/logrus"
)

// RoomWSHandler upgrades a connection into the room at /room/ws/{address}.
// A valid host token attaches the connection as the host participant.
// Cross-origin upgrades are accepted only from allowedOrigins.
func RoomWSHandler(logger *logrus.Logger, rs *RoomServer, allowedOrigins []string) http.HandlerFunc {
	patterns := originHosts(allowedOrigins)
	return func(w http.ResponseWriter, r *http.Request) {
		address := chi.URLParam(r, "address")
		h, ok := rs.Rooms.GetRoom(address)
		if !ok {
			// answered before the upgrade so dialers can tell a bad code from a network fault
			http.Error(w, session.MsgRoomNotFound, http.StatusNotFound)
			return
		}

		isHost := false
		if token := hostTokenFrom(r); token != "" {
			if err := auth.AuthenticateHostToken(token, h.Address); err != nil {
				logger.Warnf("host token rejected for room %s: %v", h.Code, err)
				http.Error(w, "invalid host token", http.StatusForbidden)
				return
			}
			isHost = true
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{session.Subprotocol},
			OriginPatterns: patterns,
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != session.Subprotocol {
			c.Close(BadSubprotocolError, "client must speak the "+session.Subprotocol+" subprotocol")
			return
		}

		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)
		err = h.Serve(r.Context(), session.NewWSConn(c), isHost)
		if errors.Is(err, session.ErrRoomClosed) {
			c.Close(RoomClosedError, "room closed")
		}
		if websocket.CloseStatus(err) == websocket.StatusNormalClosure || websocket.CloseStatus(err) == websocket.StatusGoingAway {
			err = nil
		}
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, err)
	}
}

// originHosts turns CORS origins like "https://*.example" into the host
// patterns the websocket origin check matches against.
func originHosts(origins []string) []string {
	seen := make(map[string]bool, len(origins))
	var out []string
	for _, o := range origins {
		if _, host, ok := strings.Cut(o, "://"); ok {
			o = host
		}
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	return out
}
