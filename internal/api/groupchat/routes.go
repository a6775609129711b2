package groupchat

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes mounts all group-channel HTTP and WebSocket routes.
func RegisterRoutes(r *mux.Router, handler *Handler) {
	r.HandleFunc("/api/v1/groupchat/post", logged(handler.Post)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/groupchat/announce", logged(handler.Announce)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/groupchat/history", logged(handler.History)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/groupchat/delete", logged(handler.Delete)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/groupchat/react", logged(handler.React)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/groupchat/mute", logged(handler.Mute)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/groupchat/remove", logged(handler.Remove)).Methods(http.MethodPost)
	r.HandleFunc("/ws/groupchat", handler.ServeWS)
}

func logged(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[GroupChat] %s %s", r.Method, r.URL.Path)
		next(w, r)
	}
}
