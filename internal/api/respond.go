package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/threadline-ai/recall/internal/model"
)

// errorBody is the envelope every non-2xx response carries.
type errorBody struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{
		Error:   http.StatusText(status),
		Code:    status,
		Message: message,
	})
}

// writeDomainError maps the engine's error kinds onto HTTP statuses.
// Identity and validation failures are the caller's fault; dependency
// outages surface as 503 so clients can retry.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrIsolationViolation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrEmbeddingGeneration), errors.Is(err, model.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
