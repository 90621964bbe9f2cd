package wallet

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jvilaplana/cartera/internal/aggregate"
	"github.com/jvilaplana/cartera/internal/http/api"
	"github.com/jvilaplana/cartera/internal/transaction"
	"github.com/jvilaplana/cartera/internal/wallet"
)

type Handler struct {
	wallets      *wallet.Service
	transactions *transaction.Service
}

func NewHandler(wallets *wallet.Service, transactions *transaction.Service) *Handler {
	return &Handler{wallets: wallets, transactions: transactions}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/sync", h.sync)
	r.Post("/reconcile", h.reconcile)
	r.Get("/total", h.total)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/balance", h.adjustBalance)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("active") == "true" {
		api.WriteJSON(w, http.StatusOK, toResponseList(h.wallets.ListActive()))
		return
	}

	api.WriteJSON(w, http.StatusOK, toResponseList(h.wallets.List()))
}

// sync re-fetches the wallet set from the remote store.
func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	ws, err := h.wallets.Refresh(r.Context())
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, toResponseList(ws))
}

type createWalletRequest struct {
	Name           string      `json:"name"`
	Type           wallet.Type `json:"type"`
	Institution    string      `json:"institution"`
	InitialBalance float64     `json:"initialBalance"`
	Currency       string      `json:"currency"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.wallets.Create(r.Context(), wallet.CreateParams{
		Name:           req.Name,
		Type:           req.Type,
		Institution:    req.Institution,
		InitialBalance: req.InitialBalance,
		Currency:       req.Currency,
	})
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	found, err := h.wallets.Get(chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, toResponse(found))
}

type updateWalletRequest struct {
	Name        *string      `json:"name,omitempty"`
	Type        *wallet.Type `json:"type,omitempty"`
	Institution *string      `json:"institution,omitempty"`
	IsActive    *bool        `json:"isActive,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.wallets.Update(r.Context(), wallet.UpdateParams{
		ID:          chi.URLParam(r, "id"),
		Name:        req.Name,
		Type:        req.Type,
		Institution: req.Institution,
		IsActive:    req.IsActive,
	})
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.wallets.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		api.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type adjustBalanceRequest struct {
	Amount    float64          `json:"amount"`
	Operation wallet.BalanceOp `json:"operation"`
}

func (h *Handler) adjustBalance(w http.ResponseWriter, r *http.Request) {
	var req adjustBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.wallets.AdjustBalance(r.Context(), chi.URLParam(r, "id"), req.Amount, req.Operation)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, toResponse(updated))
}

// reconcile recomputes every active wallet's balance from the cached
// transaction set and pushes the corrections as one atomic batch.
func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	net := aggregate.NetByWallet(h.transactions.List())

	if err := h.wallets.ReconcileBalances(r.Context(), net); err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, toResponseList(h.wallets.List()))
}

type totalResponse struct {
	TotalBalance float64 `json:"totalBalance"`
	LastSync     string  `json:"lastSync,omitempty"`
}

func (h *Handler) total(w http.ResponseWriter, r *http.Request) {
	resp := totalResponse{TotalBalance: h.wallets.TotalBalance()}

	if t := h.wallets.LastSync(); !t.IsZero() {
		resp.LastSync = t.UTC().Format(time.RFC3339)
	}

	api.WriteJSON(w, http.StatusOK, resp)
}
