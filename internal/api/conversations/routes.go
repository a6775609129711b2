package conversations

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes mounts all private-conversation HTTP and WebSocket routes.
func RegisterRoutes(r *mux.Router, handler *Handler) {
	r.HandleFunc("/api/v1/conversations/initiate", logged("DM", handler.Initiate)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/conversations/list", logged("DM", handler.List)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/conversations/saved", logged("DM", handler.SavedContacts)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/conversations/accept", logged("DM", handler.Accept)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/conversations/decline", logged("DM", handler.Decline)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/conversations/save", logged("DM", handler.Save)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/conversations/messages", logged("DM", handler.Messages)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/conversations/send", logged("DM", handler.Send)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/conversations/read", logged("DM", handler.MarkRead)).Methods(http.MethodPost)
	r.HandleFunc("/ws/conversations", handler.ServeWS)
}

func logged(area string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[%s] %s %s", area, r.Method, r.URL.Path)
		next(w, r)
	}
}
