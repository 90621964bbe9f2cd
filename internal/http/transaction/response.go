package transaction

import (
	"time"

	"github.com/jvilaplana/cartera/internal/transaction"
)

type recurringResponse struct {
	Frequency transaction.Frequency `json:"frequency"`
	Interval  int                   `json:"interval"`
	EndDate   string                `json:"endDate,omitempty"`
}

type transactionResponse struct {
	ID                    string             `json:"id"`
	Date                  string             `json:"date"`
	Amount                float64            `json:"amount"`
	Type                  transaction.Type   `json:"type"`
	Description           string             `json:"description"`
	CategoryID            string             `json:"categoryId,omitempty"`
	CategoryName          string             `json:"categoryName,omitempty"`
	SourceWalletID        string             `json:"sourceWalletId,omitempty"`
	SourceWalletName      string             `json:"sourceWalletName,omitempty"`
	DestinationWalletID   string             `json:"destinationWalletId,omitempty"`
	DestinationWalletName string             `json:"destinationWalletName,omitempty"`
	CreatedFrom           transaction.Source `json:"createdFrom"`
	Tags                  []string           `json:"tags,omitempty"`
	Notes                 string             `json:"notes,omitempty"`
	Recurring             *recurringResponse `json:"recurring,omitempty"`
	CreatedAt             time.Time          `json:"createdAt"`
	UpdatedAt             time.Time          `json:"updatedAt"`
}

func toResponse(t *transaction.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:                    t.ID,
		Date:                  t.Date.Format(time.DateOnly),
		Amount:                t.Amount,
		Type:                  t.Type,
		Description:           t.Description,
		CategoryID:            t.CategoryID,
		CategoryName:          t.CategoryName,
		SourceWalletID:        t.SourceWalletID,
		SourceWalletName:      t.SourceWalletName,
		DestinationWalletID:   t.DestinationWalletID,
		DestinationWalletName: t.DestinationWalletName,
		CreatedFrom:           t.CreatedFrom,
		Tags:                  t.Tags,
		Notes:                 t.Notes,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
	}

	if t.Recurring != nil {
		resp.Recurring = &recurringResponse{
			Frequency: t.Recurring.Frequency,
			Interval:  t.Recurring.Interval,
		}

		if t.Recurring.EndDate != nil {
			resp.Recurring.EndDate = t.Recurring.EndDate.Format(time.DateOnly)
		}
	}

	return resp
}

func toResponseList(txs []*transaction.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, t := range txs {
		resp[i] = toResponse(t)
	}

	return resp
}

type pageResponse struct {
	Transactions []transactionResponse `json:"transactions"`
	HasMore      bool                  `json:"hasMore"`
}
