// Package moderationapi exposes block, unblock and report operations. The
// host-gated mute/remove operations live with the group channel they
// moderate.
package moderationapi

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/encorelive/encore-backend/internal/api/problem"
	"github.com/encorelive/encore-backend/internal/entitlement"
	"github.com/encorelive/encore-backend/internal/fault"
	"github.com/encorelive/encore-backend/internal/middleware"
	"github.com/encorelive/encore-backend/internal/models"
	"github.com/encorelive/encore-backend/internal/moderation"
)

type Handler struct {
	Ledger       *moderation.Ledger
	Entitlements *entitlement.Resolver
}

func (h *Handler) Block(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userId"`
		EventID  string `json:"eventId"`
		IsGlobal bool   `json:"isGlobal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if err := h.Ledger.Block(r.Context(), middleware.UserID(r.Context()), req.UserID, req.EventID, req.IsGlobal); err != nil {
		problem.WriteFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Unblock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  string `json:"userId"`
		EventID string `json:"eventId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if err := h.Ledger.Unblock(r.Context(), middleware.UserID(r.Context()), req.UserID, req.EventID); err != nil {
		problem.WriteFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      string                `json:"userId"`
		Category    models.ReportCategory `json:"category"`
		Description string                `json:"description"`
		EventID     string                `json:"eventId"`
		MessageID   string                `json:"messageId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	report, err := h.Ledger.Report(r.Context(), middleware.UserID(r.Context()), req.UserID,
		req.Category, req.Description, req.EventID, req.MessageID)
	if err != nil {
		problem.WriteFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

// Reports lists an event's reports; host only.
func (h *Handler) Reports(w http.ResponseWriter, r *http.Request) {
	eventID := r.URL.Query().Get("event_id")
	if eventID == "" {
		problem.Write(w, http.StatusBadRequest, "Bad Request", "event_id is required")
		return
	}
	if err := h.requireHost(r, eventID); err != nil {
		problem.WriteFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Ledger.Reports(r.Context(), eventID))
}

// ResolveReport updates a report's resolution status; host only.
func (h *Handler) ResolveReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReportID string              `json:"reportId"`
		EventID  string              `json:"eventId"`
		Status   models.ReportStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if err := h.requireHost(r, req.EventID); err != nil {
		problem.WriteFault(w, err)
		return
	}
	if err := h.Ledger.ResolveReport(r.Context(), req.ReportID, req.Status); err != nil {
		problem.WriteFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) requireHost(r *http.Request, eventID string) error {
	ent, err := h.Entitlements.Resolve(r.Context(), middleware.UserID(r.Context()), eventID)
	if err != nil {
		return err
	}
	if !ent.Active() || !ent.Privileged() {
		return fault.Denied("only the host can view reports")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Moderation] encode response failed: %v", err)
	}
}
