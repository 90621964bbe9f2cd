package transaction

import (
	"fmt"
	"strings"
	"time"

	"github.com/jvilaplana/cartera/internal/remote"
)

// Filter is a conjunctive set of optional constraints. A zero field means
// "no constraint". The same filter drives both the remote query plan and
// the local re-derivation of filtered views.
type Filter struct {
	Type       *Type
	CategoryID string
	WalletID   string
	DateFrom   *time.Time
	DateTo     *time.Time
	AmountMin  *float64
	AmountMax  *float64
	Search     string
	Tags       []string
}

// Plan translates the filter into the remote query for the main feed:
// date-descending, equality predicates strictly before range predicates
// (the store's composite-index rule). Amount bounds, free-text search and
// tags cannot be pushed to the store and are applied locally by Match.
func (f Filter) Plan(pageSize int, cursor *remote.Cursor) remote.Query {
	var where []remote.Predicate

	if f.Type != nil {
		where = append(where, remote.Predicate{Field: "type", Op: remote.OpEqual, Value: string(*f.Type)})
	}

	if f.CategoryID != "" {
		where = append(where, remote.Predicate{Field: "categoryId", Op: remote.OpEqual, Value: f.CategoryID})
	}

	if f.WalletID != "" {
		where = append(where, remote.Predicate{Field: "sourceWalletId", Op: remote.OpEqual, Value: f.WalletID})
	}

	if f.DateFrom != nil {
		where = append(where, remote.Predicate{Field: "date", Op: remote.OpGte, Value: f.DateFrom.Format(time.DateOnly)})
	}

	if f.DateTo != nil {
		where = append(where, remote.Predicate{Field: "date", Op: remote.OpLte, Value: f.DateTo.Format(time.DateOnly)})
	}

	return remote.Query{
		Where:      where,
		OrderBy:    "date",
		Descending: true,
		Limit:      pageSize,
		StartAfter: cursor,
	}
}

// Match reports whether a cached transaction satisfies the whole filter,
// including the constraints the remote plan cannot express. It is a pure
// function of (transaction, filter).
func (f Filter) Match(t *Transaction) bool {
	if f.Type != nil && t.Type != *f.Type {
		return false
	}

	if f.CategoryID != "" && t.CategoryID != f.CategoryID {
		return false
	}

	if f.WalletID != "" && t.SourceWalletID != f.WalletID && t.DestinationWalletID != f.WalletID {
		return false
	}

	if f.DateFrom != nil && t.Date.Before(*f.DateFrom) {
		return false
	}

	if f.DateTo != nil && t.Date.After(*f.DateTo) {
		return false
	}

	if f.AmountMin != nil && t.Amount < *f.AmountMin {
		return false
	}

	if f.AmountMax != nil && t.Amount > *f.AmountMax {
		return false
	}

	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Description), q) &&
			!strings.Contains(strings.ToLower(t.Notes), q) {
			return false
		}
	}

	for _, want := range f.Tags {
		found := false

		for _, have := range t.Tags {
			if have == want {
				found = true
				break
			}
		}

		if !found {
			return false
		}
	}

	return true
}

// fingerprint canonicalizes the filter. Cursors remember the fingerprint
// they were issued under; any change invalidates them.
func (f Filter) fingerprint() string {
	var b strings.Builder

	if f.Type != nil {
		fmt.Fprintf(&b, "type=%s;", *f.Type)
	}

	if f.CategoryID != "" {
		fmt.Fprintf(&b, "category=%s;", f.CategoryID)
	}

	if f.WalletID != "" {
		fmt.Fprintf(&b, "wallet=%s;", f.WalletID)
	}

	if f.DateFrom != nil {
		fmt.Fprintf(&b, "from=%s;", f.DateFrom.Format(time.DateOnly))
	}

	if f.DateTo != nil {
		fmt.Fprintf(&b, "to=%s;", f.DateTo.Format(time.DateOnly))
	}

	if f.AmountMin != nil {
		fmt.Fprintf(&b, "min=%g;", *f.AmountMin)
	}

	if f.AmountMax != nil {
		fmt.Fprintf(&b, "max=%g;", *f.AmountMax)
	}

	if f.Search != "" {
		fmt.Fprintf(&b, "q=%s;", f.Search)
	}

	if len(f.Tags) > 0 {
		fmt.Fprintf(&b, "tags=%s;", strings.Join(f.Tags, ","))
	}

	return b.String()
}
