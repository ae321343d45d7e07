package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// APIResponse is the standard JSON envelope for the API endpoints.
type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// writeJSON writes a JSON envelope with the given status code.
func writeJSON(w http.ResponseWriter, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(APIResponse{
		Code:    code,
		Message: message,
		Data:    data,
	}); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError writes an error envelope with a nil data field.
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, message, nil)
}
