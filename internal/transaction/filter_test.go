package transaction_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvilaplana/cartera/internal/remote"
	"github.com/jvilaplana/cartera/internal/transaction"
)

func TestFilter_Plan(t *testing.T) {
	expense := transaction.TypeExpense
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	min := 10.0

	f := transaction.Filter{
		Type:       &expense,
		CategoryID: "cat-1",
		DateFrom:   &from,
		DateTo:     &to,
		AmountMin:  &min,
		Search:     "coffee",
	}

	q := f.Plan(25, nil)

	assert.Equal(t, "date", q.OrderBy)
	assert.True(t, q.Descending)
	assert.Equal(t, 25, q.Limit)
	assert.Nil(t, q.StartAfter)

	require.Len(t, q.Where, 4, "amount bounds and search stay local")

	// Equality predicates come strictly before range predicates.
	assert.Equal(t, remote.Predicate{Field: "type", Op: remote.OpEqual, Value: "expense"}, q.Where[0])
	assert.Equal(t, remote.Predicate{Field: "categoryId", Op: remote.OpEqual, Value: "cat-1"}, q.Where[1])
	assert.Equal(t, remote.Predicate{Field: "date", Op: remote.OpGte, Value: "2026-03-01"}, q.Where[2])
	assert.Equal(t, remote.Predicate{Field: "date", Op: remote.OpLte, Value: "2026-03-31"}, q.Where[3])
}

func TestFilter_Plan_CarriesCursor(t *testing.T) {
	cursor := &remote.Cursor{OrderValue: "2026-03-10", DocID: "tx-9"}

	q := transaction.Filter{}.Plan(50, cursor)

	assert.Equal(t, cursor, q.StartAfter)
	assert.Empty(t, q.Where)
}

func TestFilter_Match(t *testing.T) {
	expense := transaction.TypeExpense
	min, max := -100.0, -5.0
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	base := &transaction.Transaction{
		ID:             "tx-1",
		Type:           transaction.TypeExpense,
		Amount:         -42,
		Date:           time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Description:    "Coffee beans",
		Notes:          "for the office",
		CategoryID:     "cat-food",
		SourceWalletID: "w-1",
		Tags:           []string{"work", "coffee"},
	}

	type testCase struct {
		name   string
		filter transaction.Filter
		want   bool
	}

	tests := []testCase{
		{name: "Empty", filter: transaction.Filter{}, want: true},
		{name: "TypeHit", filter: transaction.Filter{Type: &expense}, want: true},
		{name: "CategoryMiss", filter: transaction.Filter{CategoryID: "cat-other"}, want: false},
		{name: "WalletMatchesEitherEndpoint", filter: transaction.Filter{WalletID: "w-1"}, want: true},
		{name: "WalletMiss", filter: transaction.Filter{WalletID: "w-9"}, want: false},
		{name: "DateFromInclusive", filter: transaction.Filter{DateFrom: &from}, want: true},
		{name: "AmountWithinBounds", filter: transaction.Filter{AmountMin: &min, AmountMax: &max}, want: true},
		{name: "SearchIsCaseInsensitive", filter: transaction.Filter{Search: "COFFEE"}, want: true},
		{name: "SearchCoversNotes", filter: transaction.Filter{Search: "office"}, want: true},
		{name: "SearchMiss", filter: transaction.Filter{Search: "tea"}, want: false},
		{name: "TagSubset", filter: transaction.Filter{Tags: []string{"work"}}, want: true},
		{name: "TagMiss", filter: transaction.Filter{Tags: []string{"work", "personal"}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(base))
		})
	}
}
