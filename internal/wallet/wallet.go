package wallet

import (
	"errors"
	"time"
)

// Type classifies where a wallet's money lives.
type Type string

const (
	TypeBank   Type = "bank"
	TypeCash   Type = "cash"
	TypeBroker Type = "broker"
	TypeOther  Type = "other"
)

// ErrNotFound is returned when a wallet id is not in the cached set.
var ErrNotFound = errors.New("wallet not found")

// Wallet is a money container. CurrentBalance is a running counter: it
// changes only through explicit balance adjustments or through an explicit
// reconciliation against the transaction sums, never both at once.
// Wallets are soft-deleted: IsActive flips to false, the record stays.
type Wallet struct {
	ID             string
	Name           string
	Type           Type
	Institution    string
	InitialBalance float64
	CurrentBalance float64
	Currency       string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (w *Wallet) EntityID() string { return w.ID }

func (w *Wallet) EntityActive() bool { return w.IsActive }

// CreateParams is the caller-provided part of a new wallet.
type CreateParams struct {
	Name           string
	Type           Type
	Institution    string
	InitialBalance float64
	Currency       string
}

// UpdateParams patches a wallet. Nil fields are left untouched.
type UpdateParams struct {
	ID          string
	Name        *string
	Type        *Type
	Institution *string
	IsActive    *bool
}

// BalanceOp selects how an adjustment is applied to the running balance.
type BalanceOp string

const (
	BalanceAdd      BalanceOp = "add"
	BalanceSubtract BalanceOp = "subtract"
	BalanceSet      BalanceOp = "set"
)
