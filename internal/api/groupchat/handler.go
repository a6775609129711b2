package groupchat

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/encorelive/encore-backend/internal/api/problem"
	"github.com/encorelive/encore-backend/internal/groupchat"
	"github.com/encorelive/encore-backend/internal/middleware"
	"github.com/encorelive/encore-backend/internal/models"
	"github.com/encorelive/encore-backend/internal/typing"
	"github.com/encorelive/encore-backend/internal/ws"
	"github.com/gorilla/websocket"
)

type Handler struct {
	Service  *groupchat.Service
	Presence *typing.Presence
	Hub      *ws.Hub
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EventID     string             `json:"eventId"`
		Content     string             `json:"content"`
		Type        models.MessageType `json:"type"`
		IsAnonymous bool               `json:"isAnonymous"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	senderID := middleware.UserID(r.Context())
	msg, err := h.Service.Post(r.Context(), req.EventID, senderID, req.Content, req.Type, req.IsAnonymous)
	if err != nil {
		problem.WriteFault(w, err)
		return
	}
	h.Presence.Clear(r.Context(), models.TypingGroup, req.EventID, senderID)
	h.broadcast(req.EventID, msg)
	writeJSON(w, http.StatusCreated, msg)
}

func (h *Handler) Announce(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EventID string `json:"eventId"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	msg, err := h.Service.Announce(r.Context(), req.EventID, middleware.UserID(r.Context()), req.Content)
	if err != nil {
		problem.WriteFault(w, err)
		return
	}
	h.broadcast(req.EventID, msg)
	writeJSON(w, http.StatusCreated, msg)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	eventID := r.URL.Query().Get("event_id")
	if eventID == "" {
		problem.Write(w, http.StatusBadRequest, "Bad Request", "event_id is required")
		return
	}
	msgs := h.Service.History(r.Context(), eventID, 0)
	writeJSON(w, http.StatusOK, msgs)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MessageID string `json:"messageId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if err := h.Service.Delete(r.Context(), req.MessageID, middleware.UserID(r.Context())); err != nil {
		problem.WriteFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) React(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MessageID string `json:"messageId"`
		Emoji     string `json:"emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	present, err := h.Service.React(r.Context(), req.MessageID, middleware.UserID(r.Context()), req.Emoji)
	if err != nil {
		problem.WriteFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"reacted": present})
}

func (h *Handler) Mute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EventID         string `json:"eventId"`
		UserID          string `json:"userId"`
		Reason          string `json:"reason"`
		DurationMinutes int    `json:"durationMinutes"` // 0 is permanent
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	mute, err := h.Service.MuteUser(r.Context(), req.EventID, middleware.UserID(r.Context()), req.UserID,
		req.Reason, time.Duration(req.DurationMinutes)*time.Minute)
	if err != nil {
		problem.WriteFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mute)
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EventID string `json:"eventId"`
		UserID  string `json:"userId"`
		Reason  string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	removal, err := h.Service.RemoveUser(r.Context(), req.EventID, middleware.UserID(r.Context()), req.UserID, req.Reason)
	if err != nil {
		problem.WriteFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, removal)
}

var upgrader = websocket.Upgrader{}

// ServeWS subscribes the caller to an event channel's realtime stream.
// Subscription runs the same removal and entitlement gates as posting.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	eventID := r.URL.Query().Get("event_id")
	userID := middleware.UserID(r.Context())
	if err := h.Service.CanSubscribe(r.Context(), eventID, userID); err != nil {
		problem.WriteFault(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &ws.Client{
		UserID:  userID,
		Channel: ws.GroupChannel(eventID),
		Send:    make(chan []byte, 256),
		Conn:    conn,
	}
	h.Hub.Register <- client

	// The request context is cancelled once this handler returns; the pumps
	// outlive it, so presence calls run on the connection's own context.
	ctx := context.Background()
	go func() {
		defer func() {
			h.Hub.Unregister <- client
			h.Presence.Clear(ctx, models.TypingGroup, eventID, userID)
			conn.Close()
		}()
		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var signal struct {
				Typing   bool   `json:"typing"`
				UserName string `json:"userName"`
			}
			if err := json.Unmarshal(frame, &signal); err != nil {
				continue
			}
			if signal.Typing {
				h.Presence.Set(ctx, models.TypingGroup, eventID, userID, signal.UserName)
			} else {
				h.Presence.Clear(ctx, models.TypingGroup, eventID, userID)
			}
		}
	}()
	go func() {
		for message := range client.Send {
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		}
	}()
}

func (h *Handler) broadcast(eventID string, msg *models.GroupMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.Hub.Publish(ws.GroupChannel(eventID), data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[GroupChat] encode response failed: %v", err)
	}
}
