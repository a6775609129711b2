// Package problem writes RFC 7807 style error bodies so UI callers always
// receive a machine-readable status and a human-readable reason.
package problem

import (
	"encoding/json"
	"net/http"

	"github.com/encorelive/encore-backend/internal/fault"
)

type Problem struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func Write(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{Title: title, Status: status, Detail: detail})
}

// WriteFault maps the core error taxonomy onto HTTP: Denied -> 403,
// NotFound -> 404, Transient -> 503. Anything else is a 500 with a generic
// body; internals never leak raw errors to clients.
func WriteFault(w http.ResponseWriter, err error) {
	switch {
	case fault.IsDenied(err):
		Write(w, http.StatusForbidden, "Denied", fault.Reason(err))
	case fault.IsNotFound(err):
		Write(w, http.StatusNotFound, "Not Found", fault.Reason(err))
	case fault.IsTransient(err):
		Write(w, http.StatusServiceUnavailable, "Temporarily Unavailable", fault.Reason(err))
	default:
		Write(w, http.StatusInternalServerError, "Internal Error", "something went wrong")
	}
}
