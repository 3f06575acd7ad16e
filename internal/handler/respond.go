package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/studiopass/internal/ledger"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

// statusFor maps ledger errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case ledger.IsValidation(err),
		errors.Is(err, ledger.ErrInvalidSignature),
		errors.Is(err, ledger.ErrGateway):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrNoCreditAvailable):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeError renders err with the mapped status. Internal errors are logged
// and never echoed to the client.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
		writeJSON(w, status, errorBody{Error: "internal error"})
		return
	}

	body := errorBody{Error: err.Error()}
	var ve *ledger.ValidationError
	if errors.As(err, &ve) {
		body.Error = ve.Message
		body.Field = ve.Field
	}
	writeJSON(w, status, body)
}
