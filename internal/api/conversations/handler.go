package conversations

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/encorelive/encore-backend/internal/api/problem"
	"github.com/encorelive/encore-backend/internal/chat"
	"github.com/encorelive/encore-backend/internal/middleware"
	"github.com/encorelive/encore-backend/internal/models"
	"github.com/encorelive/encore-backend/internal/typing"
	"github.com/encorelive/encore-backend/internal/ws"
	"github.com/gorilla/websocket"
)

type Handler struct {
	Service  *chat.Service
	Presence *typing.Presence
	Hub      *ws.Hub
}

// Initiate starts (or returns) the conversation between the caller and a
// recipient for an event.
func (h *Handler) Initiate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RecipientID string `json:"recipientId"`
		EventID     string `json:"eventId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if req.RecipientID == "" || req.EventID == "" {
		problem.Write(w, http.StatusBadRequest, "Bad Request", "recipientId and eventId are required")
		return
	}

	conv, err := h.Service.Initiate(r.Context(), middleware.UserID(r.Context()), req.RecipientID, req.EventID)
	if err != nil {
		problem.WriteFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	convs := h.Service.List(r.Context(), middleware.UserID(r.Context()))
	writeJSON(w, http.StatusOK, convs)
}

func (h *Handler) SavedContacts(w http.ResponseWriter, r *http.Request) {
	convs := h.Service.SavedContacts(r.Context(), middleware.UserID(r.Context()))
	writeJSON(w, http.StatusOK, convs)
}

func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Accept)
}

func (h *Handler) Decline(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Decline)
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.SaveContact)
}

func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	conversationID := r.URL.Query().Get("conversation_id")
	if conversationID == "" {
		problem.Write(w, http.StatusBadRequest, "Bad Request", "conversation_id is required")
		return
	}
	msgs, err := h.Service.Messages(r.Context(), conversationID, middleware.UserID(r.Context()), 0)
	if err != nil {
		problem.WriteFault(w, err)
		return
	}
	if msgs == nil {
		msgs = []models.DirectMessage{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

// Send posts a message, clears the sender's typing indicator, and fans the
// message out to websocket subscribers.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationID string             `json:"conversationId"`
		Content        string             `json:"content"`
		Type           models.MessageType `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	senderID := middleware.UserID(r.Context())
	msg, err := h.Service.SendMessage(r.Context(), req.ConversationID, senderID, req.Content, req.Type)
	if err != nil {
		problem.WriteFault(w, err)
		return
	}

	h.Presence.Clear(r.Context(), models.TypingDM, req.ConversationID, senderID)
	if data, err := json.Marshal(msg); err == nil {
		h.Hub.Publish(ws.DMChannel(req.ConversationID), data)
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationID string `json:"conversationId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if err := h.Service.MarkRead(r.Context(), req.ConversationID, middleware.UserID(r.Context())); err != nil {
		problem.WriteFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var upgrader = websocket.Upgrader{}

// ServeWS subscribes the caller to a conversation's realtime channel. Only
// participants may subscribe.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conversationID := r.URL.Query().Get("conversation_id")
	userID := middleware.UserID(r.Context())
	if _, err := h.Service.Messages(r.Context(), conversationID, userID, 1); err != nil {
		problem.WriteFault(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &ws.Client{
		UserID:  userID,
		Channel: ws.DMChannel(conversationID),
		Send:    make(chan []byte, 256),
		Conn:    conn,
	}
	h.Hub.Register <- client

	// The request context is cancelled once this handler returns; the pumps
	// outlive it, so presence calls run on the connection's own context.
	ctx := context.Background()
	// Read pump: inbound frames are typing signals only; messages go
	// through the HTTP send path where the gates run.
	go func() {
		defer func() {
			h.Hub.Unregister <- client
			h.Presence.Clear(ctx, models.TypingDM, conversationID, userID)
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
				h.Presence.Set(ctx, models.TypingDM, conversationID, userID, signal.UserName)
			} else {
				h.Presence.Clear(ctx, models.TypingDM, conversationID, userID)
			}
		}
	}()
	// Write pump
	go func() {
		for message := range client.Send {
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		}
	}()
}

// transition handles the accept/decline/save family: all take a
// conversation id and act as the authenticated user.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, conversationID, actorID string) (*models.Conversation, error)) {
	var req struct {
		ConversationID string `json:"conversationId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	conv, err := op(r.Context(), req.ConversationID, middleware.UserID(r.Context()))
	if err != nil {
		problem.WriteFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[DM] encode response failed: %v", err)
	}
}
