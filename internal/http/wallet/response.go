package wallet

import (
	"time"

	"github.com/jvilaplana/cartera/internal/wallet"
)

type walletResponse struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Type           wallet.Type `json:"type"`
	Institution    string      `json:"institution,omitempty"`
	InitialBalance float64     `json:"initialBalance"`
	CurrentBalance float64     `json:"currentBalance"`
	Currency       string      `json:"currency"`
	IsActive       bool        `json:"isActive"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

func toResponse(w *wallet.Wallet) walletResponse {
	return walletResponse{
		ID:             w.ID,
		Name:           w.Name,
		Type:           w.Type,
		Institution:    w.Institution,
		InitialBalance: w.InitialBalance,
		CurrentBalance: w.CurrentBalance,
		Currency:       w.Currency,
		IsActive:       w.IsActive,
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
	}
}

func toResponseList(ws []*wallet.Wallet) []walletResponse {
	resp := make([]walletResponse, len(ws))
	for i, w := range ws {
		resp[i] = toResponse(w)
	}

	return resp
}
