package transaction

import (
	"time"

	"github.com/jvilaplana/cartera/internal/remote"
)

// Collection is the remote collection transactions live in.
const Collection = "transactions"

// Dates go to the store as calendar-date strings so the store's lexical
// ordering and range predicates line up with chronological order.

func encode(t *Transaction) map[string]any {
	fields := map[string]any{
		"date":                  t.Date.Format(time.DateOnly),
		"amount":                t.Amount,
		"type":                  string(t.Type),
		"description":           t.Description,
		"categoryId":            t.CategoryID,
		"categoryName":          t.CategoryName,
		"sourceWalletId":        t.SourceWalletID,
		"sourceWalletName":      t.SourceWalletName,
		"destinationWalletId":   t.DestinationWalletID,
		"destinationWalletName": t.DestinationWalletName,
		"createdFrom":           string(t.CreatedFrom),
		"notes":                 t.Notes,
		"userId":                t.OwnerID,
	}

	if len(t.Tags) > 0 {
		fields["tags"] = append([]string(nil), t.Tags...)
	}

	if t.Recurring != nil {
		rec := map[string]any{
			"frequency": string(t.Recurring.Frequency),
			"interval":  float64(t.Recurring.Interval),
		}
		if t.Recurring.EndDate != nil {
			rec["endDate"] = t.Recurring.EndDate.Format(time.DateOnly)
		}

		fields["recurring"] = rec
	}

	return fields
}

func decode(doc remote.Document) *Transaction {
	f := doc.Fields

	t := &Transaction{
		ID:                    doc.ID,
		Date:                  remote.Date(f["date"]),
		Amount:                remote.Num(f["amount"]),
		Type:                  Type(remote.Str(f["type"])),
		Description:           remote.Str(f["description"]),
		CategoryID:            remote.Str(f["categoryId"]),
		CategoryName:          remote.Str(f["categoryName"]),
		SourceWalletID:        remote.Str(f["sourceWalletId"]),
		SourceWalletName:      remote.Str(f["sourceWalletName"]),
		DestinationWalletID:   remote.Str(f["destinationWalletId"]),
		DestinationWalletName: remote.Str(f["destinationWalletName"]),
		CreatedFrom:           Source(remote.Str(f["createdFrom"])),
		Tags:                  remote.Strs(f["tags"]),
		Notes:                 remote.Str(f["notes"]),
		OwnerID:               remote.Str(f["userId"]),
		CreatedAt:             remote.Stamp(f["createdAt"]),
		UpdatedAt:             remote.Stamp(f["updatedAt"]),
	}

	if rec, ok := f["recurring"].(map[string]any); ok {
		r := &Recurring{
			Frequency: Frequency(remote.Str(rec["frequency"])),
			Interval:  int(remote.Num(rec["interval"])),
		}

		if s := remote.Str(rec["endDate"]); s != "" {
			if end, err := time.Parse(time.DateOnly, s); err == nil {
				r.EndDate = &end
			}
		}

		t.Recurring = r
	}

	return t
}

func decodeAll(docs []remote.Document) []*Transaction {
	out := make([]*Transaction, len(docs))
	for i, d := range docs {
		out[i] = decode(d)
	}

	return out
}
