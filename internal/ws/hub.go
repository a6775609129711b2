package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Client is one websocket subscriber bound to a single channel. Channels
// are scope-qualified: "group:<eventID>" or "dm:<conversationID>".
type Client struct {
	UserID  string
	Channel string
	Send    chan []byte
	Conn    *websocket.Conn
}

type Hub struct {
	Clients    map[string]map[*Client]bool // channel -> clients
	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan BroadcastMessage
	mu         sync.RWMutex
}

type BroadcastMessage struct {
	Channel string
	Data    []byte
}

func GroupChannel(eventID string) string { return "group:" + eventID }

func DMChannel(conversationID string) string { return "dm:" + conversationID }

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan BroadcastMessage, 64),
	}
}

// Publish fans data out to a channel without blocking the caller; if the
// hub's queue is full the message is dropped. Realtime fan-out is
// best-effort and clients reconcile through the HTTP read paths.
func (h *Hub) Publish(channel string, data []byte) {
	select {
	case h.Broadcast <- BroadcastMessage{Channel: channel, Data: data}:
	default:
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if h.Clients[client.Channel] == nil {
				h.Clients[client.Channel] = make(map[*Client]bool)
			}
			h.Clients[client.Channel][client] = true
			h.mu.Unlock()
		case client := <-h.Unregister:
			h.mu.Lock()
			if clients, ok := h.Clients[client.Channel]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
				}
			}
			h.mu.Unlock()
		case msg := <-h.Broadcast:
			h.mu.RLock()
			for client := range h.Clients[msg.Channel] {
				select {
				case client.Send <- msg.Data:
				default:
					close(client.Send)
					delete(h.Clients[msg.Channel], client)
				}
			}
			h.mu.RUnlock()
		}
	}
}
