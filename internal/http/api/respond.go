// Package api holds the response helpers shared by the HTTP handlers.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jvilaplana/cartera/internal/auth"
	"github.com/jvilaplana/cartera/internal/remote"
	"github.com/jvilaplana/cartera/internal/transaction"
	"github.com/jvilaplana/cartera/internal/wallet"
)

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// WriteError maps the engine's error taxonomy onto HTTP statuses.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, Status(err), errorResponse{Error: err.Error()})
}

func Status(err error) int {
	switch {
	case errors.Is(err, auth.ErrNotReady), errors.Is(err, auth.ErrAnonymous):
		return http.StatusUnauthorized
	case errors.Is(err, wallet.ErrNotFound),
		errors.Is(err, transaction.ErrNotFound),
		errors.Is(err, remote.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, transaction.ErrStaleCursor):
		return http.StatusConflict
	case errors.Is(err, remote.ErrRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, remote.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}
