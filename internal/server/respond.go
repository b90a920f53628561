package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/wayfare-app/wayfare/internal/ledger"
)

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := errorResponse{Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeLedgerError maps ledger error kinds to transport status codes:
// ShareMismatch is bad client data (422), BalanceImbalance is a server-side
// ledger integrity failure (500).
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrShareMismatch):
		writeError(w, http.StatusUnprocessableEntity, "Expense shares are inconsistent", err)
	case errors.Is(err, ledger.ErrBalanceImbalance):
		slog.Error("Ledger conservation violated", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to calculate settlements", err)
	default:
		writeError(w, http.StatusInternalServerError, "Failed to calculate settlements", err)
	}
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
