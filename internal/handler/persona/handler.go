package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/kyara/backend/internal/model/persona"
	"github.com/zhouzirui/kyara/backend/pkg/utils"
)

// Handler serves the persona catalog.
type Handler struct {
	personas persona.Store
}

// New creates a persona handler.
func New(personas persona.Store) *Handler {
	return &Handler{
		personas: personas,
	}
}

// RegisterRoutes registers the persona routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/personas", h.handleListPersonas)
	r.Get("/personas/{personaID}", h.handleGetPersona)
}

type personaView struct {
	persona.Persona
	Default bool `json:"default"`
}

func (h *Handler) view(p persona.Persona) personaView {
	return personaView{Persona: p, Default: p.ID == h.personas.Default().ID}
}

// handleListPersonas lists every persona with its switch command.
func (h *Handler) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	items := h.personas.List()
	views := make([]personaView, 0, len(items))
	for _, p := range items {
		views = append(views, h.view(p))
	}
	utils.RespondJSON(w, http.StatusOK, views)
}

func (h *Handler) handleGetPersona(w http.ResponseWriter, r *http.Request) {
	p, ok := h.personas.FindByID(chi.URLParam(r, "personaID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "persona not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, h.view(p))
}
