package transaction

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jvilaplana/cartera/internal/http/api"
	"github.com/jvilaplana/cartera/internal/transaction"
)

type Handler struct {
	svc *transaction.Service
}

func NewHandler(svc *transaction.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.firstPage)
	r.Get("/next", h.nextPage)
	r.Get("/filtered", h.filtered)
	r.Get("/recent", h.recent)
	r.Post("/", h.create)
	r.Post("/bulk", h.bulk)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

// firstPage installs the filter from the query string and fetches the
// first page of the feed, resetting pagination.
func (h *Handler) firstPage(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	txs, hasMore, err := h.svc.FetchFirstPage(r.Context(), filter, pageSize(r))
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, pageResponse{Transactions: toResponseList(txs), HasMore: hasMore})
}

// nextPage continues the current feed query. A filter change since the
// last page surfaces as 409.
func (h *Handler) nextPage(w http.ResponseWriter, r *http.Request) {
	txs, hasMore, err := h.svc.FetchNextPage(r.Context(), pageSize(r))
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, pageResponse{Transactions: toResponseList(txs), HasMore: hasMore})
}

// filtered re-derives the filtered view from the cached set; no fetch.
func (h *Handler) filtered(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, toResponseList(h.svc.Filtered()))
}

func (h *Handler) recent(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("sync") == "true" {
		if _, err := h.svc.FetchRecent(r.Context()); err != nil {
			api.WriteError(w, err)
			return
		}
	}

	api.WriteJSON(w, http.StatusOK, toResponseList(h.svc.Recent()))
}

type recurringRequest struct {
	Frequency transaction.Frequency `json:"frequency"`
	Interval  int                   `json:"interval"`
	EndDate   string                `json:"endDate,omitempty"`
}

type createTransactionRequest struct {
	Date                string            `json:"date"`
	Amount              float64           `json:"amount"`
	Type                transaction.Type  `json:"type"`
	Description         string            `json:"description"`
	CategoryID          string            `json:"categoryId"`
	CategoryName        string            `json:"categoryName"`
	SourceWalletID      string            `json:"sourceWalletId"`
	DestinationWalletID string            `json:"destinationWalletId"`
	Tags                []string          `json:"tags"`
	Notes               string            `json:"notes"`
	Recurring           *recurringRequest `json:"recurring"`
}

func (req createTransactionRequest) toParams() (transaction.CreateParams, error) {
	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		return transaction.CreateParams{}, err
	}

	params := transaction.CreateParams{
		Date:                date,
		Amount:              req.Amount,
		Type:                req.Type,
		Description:         req.Description,
		CategoryID:          req.CategoryID,
		CategoryName:        req.CategoryName,
		SourceWalletID:      req.SourceWalletID,
		DestinationWalletID: req.DestinationWalletID,
		Tags:                req.Tags,
		Notes:               req.Notes,
	}

	if req.Recurring != nil {
		rec := &transaction.Recurring{
			Frequency: req.Recurring.Frequency,
			Interval:  req.Recurring.Interval,
		}

		if req.Recurring.EndDate != "" {
			end, err := time.Parse(time.DateOnly, req.Recurring.EndDate)
			if err != nil {
				return transaction.CreateParams{}, err
			}

			rec.EndDate = &end
		}

		params.Recurring = rec
	}

	return params, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params, err := req.toParams()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.svc.Create(r.Context(), params)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, toResponse(created))
}

type bulkRequest struct {
	Transactions []createTransactionRequest `json:"transactions"`
}

func (h *Handler) bulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params := make([]transaction.CreateParams, len(req.Transactions))

	for i, t := range req.Transactions {
		p, err := t.toParams()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		params[i] = p
	}

	created, err := h.svc.CreateBatch(r.Context(), params, transaction.SourceAPI)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, toResponseList(created))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	found, err := h.svc.Get(chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, toResponse(found))
}

type updateTransactionRequest struct {
	Date                *string           `json:"date,omitempty"`
	Amount              *float64          `json:"amount,omitempty"`
	Type                *transaction.Type `json:"type,omitempty"`
	Description         *string           `json:"description,omitempty"`
	CategoryID          *string           `json:"categoryId,omitempty"`
	SourceWalletID      *string           `json:"sourceWalletId,omitempty"`
	DestinationWalletID *string           `json:"destinationWalletId,omitempty"`
	Tags                []string          `json:"tags,omitempty"`
	Notes               *string           `json:"notes,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params := transaction.UpdateParams{
		ID:                  chi.URLParam(r, "id"),
		Amount:              req.Amount,
		Type:                req.Type,
		Description:         req.Description,
		CategoryID:          req.CategoryID,
		SourceWalletID:      req.SourceWalletID,
		DestinationWalletID: req.DestinationWalletID,
		Tags:                req.Tags,
		Notes:               req.Notes,
	}

	if req.Date != nil {
		date, err := time.Parse(time.DateOnly, *req.Date)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		params.Date = &date
	}

	updated, err := h.svc.Update(r.Context(), params)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		api.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func pageSize(r *http.Request) int {
	if s := r.URL.Query().Get("pageSize"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}

	return 0
}

func filterFromQuery(r *http.Request) (transaction.Filter, error) {
	var filter transaction.Filter

	q := r.URL.Query()

	if s := q.Get("type"); s != "" {
		t := transaction.Type(s)
		filter.Type = &t
	}

	filter.CategoryID = q.Get("categoryId")
	filter.WalletID = q.Get("walletId")
	filter.Search = q.Get("q")

	if s := q.Get("dateFrom"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return filter, err
		}

		filter.DateFrom = &t
	}

	if s := q.Get("dateTo"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return filter, err
		}

		filter.DateTo = &t
	}

	if s := q.Get("amountMin"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return filter, err
		}

		filter.AmountMin = &v
	}

	if s := q.Get("amountMax"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return filter, err
		}

		filter.AmountMax = &v
	}

	if s := q.Get("tags"); s != "" {
		filter.Tags = strings.Split(s, ",")
	}

	return filter, nil
}
