package typingapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes mounts the typing-presence routes. No request logging
// here: these fire on every keystroke burst.
func RegisterRoutes(r *mux.Router, handler *Handler) {
	r.HandleFunc("/api/v1/typing/set", handler.Set).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/typing/clear", handler.Clear).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/typing/active", handler.Active).Methods(http.MethodGet)
}
