package importcsv

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jvilaplana/cartera/internal/http/api"
	"github.com/jvilaplana/cartera/internal/importer"
	"github.com/jvilaplana/cartera/internal/transaction"
)

// 10 MiB cap on uploaded statements.
const maxUploadSize = 10 << 20

type Handler struct {
	parser *importer.Parser
	svc    *transaction.Service
}

func NewHandler(parser *importer.Parser, svc *transaction.Service) *Handler {
	return &Handler{parser: parser, svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importFile)
}

// importFile parses an uploaded CSV statement and inserts all rows as a
// single atomic batch: either every row lands or none do.
func (h *Handler) importFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	walletID := r.FormValue("walletId")
	if walletID == "" {
		http.Error(w, "walletId is required", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	params, err := h.parser.Parse(file, walletID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.svc.CreateBatch(r.Context(), params, transaction.SourceCSV)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	ids := make([]string, len(created))
	for i, t := range created {
		ids[i] = t.ID
	}

	api.WriteJSON(w, http.StatusCreated, importResult{Imported: len(created), IDs: ids})
}

type importResult struct {
	Imported int      `json:"imported"`
	IDs      []string `json:"ids"`
}
