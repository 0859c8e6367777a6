// Package api exposes the generator over HTTP: event emission, pattern
// triggers, lookups by entity, publisher controls and webhook registration.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error codes shared by several handlers.
const (
	codeNotFound        = "NOT_FOUND"
	codeBurstInProgress = "BURST_IN_PROGRESS"
	codeInternal        = "INTERNAL_ERROR"
)

// envelope wraps every body: {"data": ...} on success, {"error": {...}} otherwise.
type envelope struct {
	Data  any       `json:"data,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respond(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("api: encode response", "status", status, "error", err)
	}
}

// reply writes v as the data of a successful response.
func reply(w http.ResponseWriter, status int, v any) {
	respond(w, status, envelope{Data: v})
}

func fail(w http.ResponseWriter, status int, code, message string) {
	respond(w, status, envelope{Error: &apiError{Code: code, Message: message}})
}
