package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Samyak44/Travel-Agent/internal/providers"
)

type errorResponse struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	_ = enc.Encode(v) // safe to ignore, client probably disconnected
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, errorResponse{Error: msg})
}

// statusForError maps classified provider failures onto HTTP status codes.
// Anything unrecognized is a plain 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, providers.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, providers.ErrAuth):
		return http.StatusBadGateway
	case errors.Is(err, providers.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, providers.ErrTransport):
		return http.StatusServiceUnavailable
	}
	var rejected *providers.RejectedError
	if errors.As(err, &rejected) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
