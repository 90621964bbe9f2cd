package summary

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jvilaplana/cartera/internal/aggregate"
	"github.com/jvilaplana/cartera/internal/auth"
	"github.com/jvilaplana/cartera/internal/http/api"
	"github.com/jvilaplana/cartera/internal/transaction"
)

// Locales the formatter can render; the first is the fallback.
var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Spanish,
})

type Handler struct {
	txs  *transaction.Service
	gate *auth.Gate
}

func NewHandler(txs *transaction.Service, gate *auth.Gate) *Handler {
	return &Handler{txs: txs, gate: gate}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.summarize)
	r.Get("/categories", h.categories)
	r.Get("/monthly", h.monthly)
	r.Get("/trend", h.trend)
}

// unavailable degrades the summary surface while no session is resolved;
// aggregations over an unowned cache would be silently empty, not wrong.
func (h *Handler) unavailable(w http.ResponseWriter) bool {
	if h.gate.Ready() {
		return false
	}

	http.Error(w, "summary unavailable", http.StatusServiceUnavailable)

	return true
}

// summarize rolls up the cached transactions over [from, to], both ends
// inclusive. The range defaults to the current calendar month.
func (h *Handler) summarize(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	from, to, err := period(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s := aggregate.Summarize(h.txs.List(), from, to)

	api.WriteJSON(w, http.StatusOK, toSummaryResponse(s, printer(r)))
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	from, to, err := period(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	totals := aggregate.ByCategory(inPeriod(h.txs.List(), from, to))

	api.WriteJSON(w, http.StatusOK, toCategoryResponses(totals))
}

func (h *Handler) monthly(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	now := time.Now()
	year, month := now.Year(), now.Month()

	if s := r.URL.Query().Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		year = y
	}

	if s := r.URL.Query().Get("month"); s != "" {
		m, err := strconv.Atoi(s)
		if err != nil || m < 1 || m > 12 {
			http.Error(w, "month must be 1..12", http.StatusBadRequest)
			return
		}

		month = time.Month(m)
	}

	s := aggregate.Monthly(h.txs.List(), year, month)

	api.WriteJSON(w, http.StatusOK, toSummaryResponse(s, printer(r)))
}

func (h *Handler) trend(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	months := 6

	if s := r.URL.Query().Get("months"); s != "" {
		m, err := strconv.Atoi(s)
		if err != nil || m < 1 {
			http.Error(w, "months must be a positive integer", http.StatusBadRequest)
			return
		}

		months = m
	}

	points := aggregate.Trend(h.txs.List(), months, time.Now())

	api.WriteJSON(w, http.StatusOK, toTrendResponses(points, printer(r)))
}

func period(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC)

	if s := r.URL.Query().Get("from"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return from, to, err
		}

		from = t
	}

	if s := r.URL.Query().Get("to"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return from, to, err
		}

		to = t
	}

	return from, to, nil
}

func inPeriod(txs []*transaction.Transaction, from, to time.Time) []*transaction.Transaction {
	out := make([]*transaction.Transaction, 0, len(txs))

	for _, t := range txs {
		if t.Date.Before(from) || t.Date.After(to) {
			continue
		}

		out = append(out, t)
	}

	return out
}

func printer(r *http.Request) *message.Printer {
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return message.NewPrinter(language.English)
	}

	tag, _, _ := matcher.Match(tags...)

	return message.NewPrinter(tag)
}
