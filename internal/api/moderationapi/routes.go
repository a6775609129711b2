package moderationapi

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes mounts all moderation HTTP routes.
func RegisterRoutes(r *mux.Router, handler *Handler) {
	r.HandleFunc("/api/v1/moderation/block", logged(handler.Block)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/moderation/unblock", logged(handler.Unblock)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/moderation/report", logged(handler.Report)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/moderation/reports", logged(handler.Reports)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/moderation/reports/resolve", logged(handler.ResolveReport)).Methods(http.MethodPost)
}

func logged(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[Moderation] %s %s", r.Method, r.URL.Path)
		next(w, r)
	}
}
