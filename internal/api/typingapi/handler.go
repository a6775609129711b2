// Package typingapi exposes the typing-presence protocol over HTTP for
// clients that are not holding a websocket. Set and clear never fail from
// the caller's point of view; presence is a best-effort signal.
package typingapi

import (
	"encoding/json"
	"net/http"

	"github.com/encorelive/encore-backend/internal/api/problem"
	"github.com/encorelive/encore-backend/internal/middleware"
	"github.com/encorelive/encore-backend/internal/models"
	"github.com/encorelive/encore-backend/internal/typing"
)

type Handler struct {
	Presence *typing.Presence
}

func (h *Handler) Set(w http.ResponseWriter, r *http.Request) {
	scope, scopeID, ok := scopeParams(w, r)
	if !ok {
		return
	}
	var req struct {
		UserName string `json:"userName"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	h.Presence.Set(r.Context(), scope, scopeID, middleware.UserID(r.Context()), req.UserName)
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	scope, scopeID, ok := scopeParams(w, r)
	if !ok {
		return
	}
	h.Presence.Clear(r.Context(), scope, scopeID, middleware.UserID(r.Context()))
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	scope, scopeID, ok := scopeParams(w, r)
	if !ok {
		return
	}
	indicators := h.Presence.Active(r.Context(), scope, scopeID)
	if indicators == nil {
		indicators = []models.TypingIndicator{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(indicators)
}

func scopeParams(w http.ResponseWriter, r *http.Request) (models.TypingScope, string, bool) {
	scope := models.TypingScope(r.URL.Query().Get("scope"))
	scopeID := r.URL.Query().Get("scope_id")
	if (scope != models.TypingGroup && scope != models.TypingDM) || scopeID == "" {
		problem.Write(w, http.StatusBadRequest, "Bad Request", "scope must be group or dm and scope_id is required")
		return "", "", false
	}
	return scope, scopeID, true
}
