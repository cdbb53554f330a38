package httpserver

import (
	"encoding/json"
	"net/http"

	"courrierkit/internal/logging"
)

// errorResponse matches the JSON structure used by the handlers.
type errorResponse struct {
	Error string `json:"error"`
}

// respondWithError writes a JSON error for routes outside the handlers package.
func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: message}); err != nil {
		logging.Log.Errorf("Failed to encode error response: %v", err)
	}
}
