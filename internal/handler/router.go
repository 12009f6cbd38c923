package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/kyara/backend/internal/handler/chat"
	"github.com/zhouzirui/kyara/backend/internal/handler/line"
	"github.com/zhouzirui/kyara/backend/internal/handler/persona"
	personaModel "github.com/zhouzirui/kyara/backend/internal/model/persona"
)

const statusText = "LINE BOT is running!"

// NewRouter wires HTTP routes to core services. lineHandler may be nil when
// no channel credentials are configured.
func NewRouter(personas personaModel.Store, responder chat.Responder, lineHandler *line.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(statusText))
	})

	if lineHandler != nil {
		lineHandler.RegisterRoutes(r)
	} else {
		r.Post("/callback", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "LINE channel not configured", http.StatusServiceUnavailable)
		})
	}

	// Create handlers
	personaHandler := persona.New(personas)
	chatHandler := chat.New(responder)
	wsHandler := chat.NewWebSocketHandler(responder)

	r.Route("/api", func(api chi.Router) {
		personaHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		wsHandler.RegisterWebSocketRoutes(api)
	})

	return r
}
