// Package handlers implements the JSON HTTP endpoints
package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
	// Development exposes internal error text in 500 responses
	Development bool
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"message": message})
}

// RespondServerError logs err and sends a 500 response.
// The error text is only included in development mode.
func (h *BaseHandler) RespondServerError(w http.ResponseWriter, message string, err error, extra map[string]any) {
	h.Logger.Error(message, zap.Error(err))

	body := map[string]any{"message": message}
	for k, v := range extra {
		body[k] = v
	}
	if h.Development {
		body["error"] = err.Error()
	}
	h.RespondJSON(w, http.StatusInternalServerError, body)
}
