package transaction

import (
	"errors"
	"fmt"
	"time"
)

// Type represents the kind of transaction. The stored amount keeps the
// store's raw signed value; the sign convention is carried by the type, and
// aggregation takes magnitudes for expense and investment.
type Type string

const (
	TypeExpense    Type = "expense"
	TypeIncome     Type = "income"
	TypeInvestment Type = "investment"
	TypeTransfer   Type = "transfer"
)

// Source records how a transaction entered the system.
type Source string

const (
	SourceManual Source = "manual"
	SourceCSV    Source = "csv"
	SourcePDF    Source = "pdf"
	SourceAPI    Source = "api"
)

// Frequency of a recurring schedule.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Recurring describes an optional repetition schedule.
type Recurring struct {
	Frequency Frequency
	Interval  int
	EndDate   *time.Time
}

var (
	ErrNotFound = errors.New("transaction not found")

	// ErrStaleCursor means pagination was continued after the filter set
	// changed. The cursor no longer bounds the right query.
	ErrStaleCursor = errors.New("pagination cursor is stale")
)

// Transaction is a single money movement. CategoryName and the wallet
// names are denormalized display copies of the ids next to them; readers
// refresh them from authoritative data when it is cached and fall back to
// the stored value otherwise.
type Transaction struct {
	ID                    string
	Date                  time.Time
	Amount                float64
	Type                  Type
	Description           string
	CategoryID            string
	CategoryName          string
	SourceWalletID        string
	SourceWalletName      string
	DestinationWalletID   string
	DestinationWalletName string
	CreatedFrom           Source
	Tags                  []string
	Notes                 string
	Recurring             *Recurring
	OwnerID               string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (t *Transaction) EntityID() string { return t.ID }

func (t *Transaction) EntityActive() bool { return true }

// validateEndpoints enforces the wallet-endpoint invariant: expense and
// income take exactly one endpoint, transfer takes both.
func validateEndpoints(typ Type, sourceID, destID string) error {
	switch typ {
	case TypeExpense, TypeIncome:
		if (sourceID == "") == (destID == "") {
			return fmt.Errorf("%s requires exactly one wallet endpoint", typ)
		}
	case TypeTransfer:
		if sourceID == "" || destID == "" {
			return fmt.Errorf("transfer requires both wallet endpoints")
		}
	case TypeInvestment:
		// Legacy investment rows exist without an endpoint; accept both
		// shapes.
	default:
		return fmt.Errorf("unknown transaction type %q", typ)
	}

	return nil
}

// CreateParams is the caller-provided part of a new transaction.
type CreateParams struct {
	Date                time.Time
	Amount              float64
	Type                Type
	Description         string
	CategoryID          string
	CategoryName        string
	SourceWalletID      string
	DestinationWalletID string
	Tags                []string
	Notes               string
	Recurring           *Recurring
}

// UpdateParams patches a transaction. Nil fields are left untouched.
type UpdateParams struct {
	ID                  string
	Date                *time.Time
	Amount              *float64
	Type                *Type
	Description         *string
	CategoryID          *string
	SourceWalletID      *string
	DestinationWalletID *string
	Tags                []string
	Notes               *string
}
