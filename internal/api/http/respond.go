package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/openlingo/openlingo/internal/content"
	"github.com/openlingo/openlingo/internal/progress"
)

// All responses share one envelope so clients can always read a message and,
// on success, a typed payload.
type envelope struct {
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, msg string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Message: msg, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Message: msg})
}

func writeFieldErrors(w http.ResponseWriter, errs map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_ = json.NewEncoder(w).Encode(envelope{Message: "validation failed", Errors: errs})
}

// writeDomainError maps store/progress errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, content.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, progress.ErrLocked):
		writeError(w, http.StatusForbidden, "lesson is locked")
	case errors.Is(err, progress.ErrTooFast):
		writeError(w, http.StatusBadRequest, "reading time below required duration")
	case errors.Is(err, progress.ErrUnanswered):
		writeError(w, http.StatusBadRequest, "all questions must be answered")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

func listOptsFromQuery(r *http.Request) content.ListOpts {
	opts := content.ListOpts{
		Q:      r.URL.Query().Get("q"),
		Type:   r.URL.Query().Get("type"),
		Limit:  parseIntDefault(r.URL.Query().Get("limit"), 50),
		Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
	}
	if v := r.URL.Query().Get("active"); v != "" {
		b := v == "true" || v == "1"
		opts.Active = &b
	}
	return opts
}
