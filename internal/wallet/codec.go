package wallet

import (
	"github.com/jvilaplana/cartera/internal/remote"
)

// Collection is the remote collection wallets live in.
const Collection = "wallets"

func encode(w *Wallet) map[string]any {
	return map[string]any{
		"name":           w.Name,
		"type":           string(w.Type),
		"institution":    w.Institution,
		"initialBalance": w.InitialBalance,
		"currentBalance": w.CurrentBalance,
		"currency":       w.Currency,
		"isActive":       w.IsActive,
	}
}

func decode(doc remote.Document) *Wallet {
	f := doc.Fields

	return &Wallet{
		ID:             doc.ID,
		Name:           remote.Str(f["name"]),
		Type:           Type(remote.Str(f["type"])),
		Institution:    remote.Str(f["institution"]),
		InitialBalance: remote.Num(f["initialBalance"]),
		CurrentBalance: remote.Num(f["currentBalance"]),
		Currency:       remote.Str(f["currency"]),
		IsActive:       remote.Bool(f["isActive"]),
		CreatedAt:      remote.Stamp(f["createdAt"]),
		UpdatedAt:      remote.Stamp(f["updatedAt"]),
	}
}

func decodeAll(docs []remote.Document) []*Wallet {
	out := make([]*Wallet, len(docs))
	for i, d := range docs {
		out[i] = decode(d)
	}

	return out
}
