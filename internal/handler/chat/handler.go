package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/kyara/backend/internal/model/session"
	"github.com/zhouzirui/kyara/backend/pkg/utils"
)

// Responder is the conversational core seen by the HTTP layer.
type Responder interface {
	OnMessage(ctx context.Context, userID, text string) string
	Session(userID string) (session.UserSession, bool)
}

// Session keys are namespaced per transport so that callers of the open API
// cannot read or drive sessions owned by LINE users.
const (
	apiKeyPrefix = "api:"
	wsKeyPrefix  = "ws:"
)

// Handler exposes the responder as a JSON API.
type Handler struct {
	responder Responder
}

// New creates a chat handler.
func New(responder Responder) *Handler {
	return &Handler{responder: responder}
}

// RegisterRoutes registers the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/messages", h.handleMessage)
	r.Get("/sessions/{userID}", h.handleGetSession)
}

type messageRequest struct {
	UserID string `json:"userId"`
	Text   string `json:"text"`
}

type messageResponse struct {
	Reply string `json:"reply"`
}

// handleMessage answers one message synchronously.
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	var payload messageRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payload.UserID = strings.TrimSpace(payload.UserID)
	if payload.UserID == "" {
		utils.RespondError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	reply := h.responder.OnMessage(r.Context(), apiKeyPrefix+payload.UserID, payload.Text)
	utils.RespondJSON(w, http.StatusOK, messageResponse{Reply: reply})
}

type sessionResponse struct {
	UserID       string   `json:"userId"`
	PersonaID    string   `json:"personaId"`
	Playing      bool     `json:"playing"`
	ExpectedKana string   `json:"expectedKana,omitempty"`
	UsedWords    []string `json:"usedWords,omitempty"`
}

// handleGetSession returns a snapshot of an API user's state. Unknown users
// are not created.
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		utils.RespondError(w, http.StatusBadRequest, "userId is required")
		return
	}

	sess, ok := h.responder.Session(apiKeyPrefix + userID)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	resp := sessionResponse{
		UserID:    userID,
		PersonaID: sess.PersonaID,
		Playing:   sess.Playing(),
	}
	if sess.Playing() {
		resp.ExpectedKana = sess.Game.ExpectedStart.String()
		for word := range sess.Game.UsedWords {
			resp.UsedWords = append(resp.UsedWords, word)
		}
		slices.Sort(resp.UsedWords)
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}
