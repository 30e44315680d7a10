// internal/handlers/router.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jason-s-yu/clashkings/internal/middleware"
	"github.com/sirupsen/logrus"
)

// NewRouter installs middleware and registers every room route.
// allowedOrigins feeds CORS and the websocket origin check; empty allows any http(s) origin.
func NewRouter(rs *RoomServer, logger *logrus.Logger, allowedOrigins []string) chi.Router {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"https://*", "http://*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.LogMiddleware(logger))
	r.Use(chimw.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "rooms": rs.Rooms.Len()})
	})

	r.Post("/room/create", rs.CreateRoomHandler)
	r.Get("/room/{code}", rs.RoomInfoHandler)
	r.Get("/room/ws/{address}", RoomWSHandler(logger, rs, allowedOrigins))
	r.Get("/join", rs.JoinHandler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found: "+r.URL.Path)
	})
	return r
}
