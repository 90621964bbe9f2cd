package session

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jvilaplana/cartera/internal/auth"
	"github.com/jvilaplana/cartera/internal/http/api"
	"github.com/jvilaplana/cartera/internal/transaction"
	"github.com/jvilaplana/cartera/internal/wallet"
)

type Handler struct {
	gate     *auth.Gate
	verifier *auth.Verifier
	wallets  *wallet.Service
	txs      *transaction.Service
}

func NewHandler(gate *auth.Gate, verifier *auth.Verifier, wallets *wallet.Service, txs *transaction.Service) *Handler {
	return &Handler{gate: gate, verifier: verifier, wallets: wallets, txs: txs}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.open)
	r.Delete("/", h.close)
}

type openRequest struct {
	Token string `json:"token"`
}

type openResponse struct {
	UserID       string `json:"userId"`
	Wallets      int    `json:"wallets"`
	Transactions int    `json:"transactions"`
	HasMore      bool   `json:"hasMore"`
	SyncedAt     string `json:"syncedAt"`
}

// open verifies the token, resolves the session owner and performs the
// initial sync: wallet set, first transaction page, recent feed.
func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	userID, err := h.verifier.Verify(req.Token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	h.gate.Resolve(userID)

	wallets, err := h.wallets.Refresh(r.Context())
	if err != nil {
		api.WriteError(w, err)
		return
	}

	txs, hasMore, err := h.txs.FetchFirstPage(r.Context(), transaction.Filter{}, 0)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	if _, err := h.txs.FetchRecent(r.Context()); err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, openResponse{
		UserID:       userID,
		Wallets:      len(wallets),
		Transactions: len(txs),
		HasMore:      hasMore,
		SyncedAt:     time.Now().UTC().Format(time.RFC3339),
	})
}

// close drops all cached client state and returns the gate to the
// anonymous state. Nothing is written remotely.
func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	h.txs.Reset()
	h.wallets.Reset()
	h.gate.Clear()

	w.WriteHeader(http.StatusNoContent)
}
