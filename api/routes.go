package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes builds the lobby router. ws serves the WebSocket upgrade at /ws.
func (h *Handler) Routes(ws http.HandlerFunc) chi.Router {
	r := chi.NewRouter()
	r.Use(h.cors)

	r.Post("/host", h.Host)
	r.Post("/join", h.Join)
	r.Get("/rooms", h.ListRooms)
	r.Get("/history", h.ListHistory)
	r.Get("/healthz", Healthz)
	if ws != nil {
		r.Get("/ws", ws)
	}
	return r
}

// cors applies CORS to every route and answers preflight requests.
func (h *Handler) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CORS(w, r, h.Config.AllowedOrigin) {
			return
		}
		next.ServeHTTP(w, r)
	})
}
