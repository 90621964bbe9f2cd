package aggregate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvilaplana/cartera/internal/aggregate"
	"github.com/jvilaplana/cartera/internal/transaction"
	"github.com/jvilaplana/cartera/internal/wallet"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tx(typ transaction.Type, amount float64, date time.Time) *transaction.Transaction {
	return &transaction.Transaction{
		ID:     date.Format(time.DateOnly) + string(typ),
		Type:   typ,
		Amount: amount,
		Date:   date,
	}
}

func TestSummarize(t *testing.T) {
	txs := []*transaction.Transaction{
		tx(transaction.TypeIncome, 2000, day(2026, time.March, 1)),
		tx(transaction.TypeExpense, -120.50, day(2026, time.March, 10)),
		tx(transaction.TypeExpense, 79.50, day(2026, time.March, 15)),
		tx(transaction.TypeInvestment, -300, day(2026, time.March, 20)),
		tx(transaction.TypeExpense, 999, day(2026, time.April, 1)),
	}

	s := aggregate.Summarize(txs, day(2026, time.March, 1), day(2026, time.March, 31))

	assert.Equal(t, 2000.0, s.TotalIncome)
	assert.Equal(t, 200.0, s.TotalExpenses, "expense magnitudes regardless of stored sign")
	assert.Equal(t, 300.0, s.TotalInvestments)
	assert.Equal(t, 1500.0, s.NetBalance)
	assert.Equal(t, 4, s.TransactionCount)
}

func TestSummarize_BoundsAreInclusive(t *testing.T) {
	txs := []*transaction.Transaction{
		tx(transaction.TypeExpense, 10, day(2026, time.March, 1)),
		tx(transaction.TypeExpense, 10, day(2026, time.March, 31)),
		tx(transaction.TypeExpense, 10, day(2026, time.February, 28)),
		tx(transaction.TypeExpense, 10, day(2026, time.April, 1)),
	}

	s := aggregate.Summarize(txs, day(2026, time.March, 1), day(2026, time.March, 31))

	assert.Equal(t, 2, s.TransactionCount)
	assert.Equal(t, 20.0, s.TotalExpenses)
}

// Splitting a period must never change the totals.
func TestSummarize_Additivity(t *testing.T) {
	txs := []*transaction.Transaction{
		tx(transaction.TypeIncome, 100, day(2026, time.January, 5)),
		tx(transaction.TypeExpense, 40, day(2026, time.January, 14)),
		tx(transaction.TypeExpense, 25, day(2026, time.January, 15)),
		tx(transaction.TypeInvestment, 60, day(2026, time.January, 28)),
	}

	whole := aggregate.Summarize(txs, day(2026, time.January, 1), day(2026, time.January, 31))
	left := aggregate.Summarize(txs, day(2026, time.January, 1), day(2026, time.January, 14))
	right := aggregate.Summarize(txs, day(2026, time.January, 15), day(2026, time.January, 31))

	assert.Equal(t, whole.TotalIncome, left.TotalIncome+right.TotalIncome)
	assert.Equal(t, whole.TotalExpenses, left.TotalExpenses+right.TotalExpenses)
	assert.Equal(t, whole.TotalInvestments, left.TotalInvestments+right.TotalInvestments)
	assert.Equal(t, whole.TransactionCount, left.TransactionCount+right.TransactionCount)
}

func TestByCategory(t *testing.T) {
	groceries1 := tx(transaction.TypeExpense, 60, day(2026, time.May, 2))
	groceries1.CategoryID = "cat-groceries"
	groceries1.CategoryName = "Groceries"

	groceries2 := tx(transaction.TypeExpense, -40, day(2026, time.May, 9))
	groceries2.CategoryID = "cat-groceries"
	groceries2.CategoryName = "Groceries"

	rent := tx(transaction.TypeExpense, 900, day(2026, time.May, 1))
	rent.CategoryID = "cat-rent"
	rent.CategoryName = "Rent"

	stray := tx(transaction.TypeExpense, 5, day(2026, time.May, 3))

	income := tx(transaction.TypeIncome, 3000, day(2026, time.May, 1))
	income.CategoryID = "cat-salary"

	got := aggregate.ByCategory([]*transaction.Transaction{groceries1, groceries2, rent, stray, income})

	require.Len(t, got, 3, "income never contributes a category row")

	assert.Equal(t, "cat-rent", got[0].CategoryID)
	assert.Equal(t, 900.0, got[0].Total)

	assert.Equal(t, "cat-groceries", got[1].CategoryID)
	assert.Equal(t, 100.0, got[1].Total)
	assert.Equal(t, 2, got[1].Count)

	assert.Equal(t, aggregate.UncategorizedName, got[2].CategoryName)
}

func TestByCategory_TiesBreakOnID(t *testing.T) {
	a := tx(transaction.TypeExpense, 50, day(2026, time.May, 1))
	a.CategoryID = "cat-b"

	b := tx(transaction.TypeExpense, 50, day(2026, time.May, 2))
	b.CategoryID = "cat-a"

	got := aggregate.ByCategory([]*transaction.Transaction{a, b})

	require.Len(t, got, 2)
	assert.Equal(t, "cat-a", got[0].CategoryID)
	assert.Equal(t, "cat-b", got[1].CategoryID)
}

func TestMonthly_CalendarBoundaries(t *testing.T) {
	type testCase struct {
		name      string
		year      int
		month     time.Month
		inside    []time.Time
		outside   []time.Time
		wantCount int
	}

	tests := []testCase{
		{
			name:      "LeapFebruary",
			year:      2024,
			month:     time.February,
			inside:    []time.Time{day(2024, time.February, 1), day(2024, time.February, 29)},
			outside:   []time.Time{day(2024, time.March, 1)},
			wantCount: 2,
		},
		{
			name:      "PlainFebruary",
			year:      2026,
			month:     time.February,
			inside:    []time.Time{day(2026, time.February, 28)},
			outside:   []time.Time{day(2026, time.March, 1)},
			wantCount: 1,
		},
		{
			name:      "ThirtyOneDayMonth",
			year:      2026,
			month:     time.July,
			inside:    []time.Time{day(2026, time.July, 31)},
			outside:   []time.Time{day(2026, time.August, 1)},
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var txs []*transaction.Transaction
			for _, d := range append(tt.inside, tt.outside...) {
				txs = append(txs, tx(transaction.TypeExpense, 10, d))
			}

			s := aggregate.Monthly(txs, tt.year, tt.month)

			assert.Equal(t, tt.wantCount, s.TransactionCount)
		})
	}
}

func TestTrend(t *testing.T) {
	txs := []*transaction.Transaction{
		tx(transaction.TypeExpense, 100, day(2026, time.January, 10)),
		tx(transaction.TypeExpense, 200, day(2026, time.February, 10)),
		tx(transaction.TypeIncome, 500, day(2026, time.March, 10)),
	}

	points := aggregate.Trend(txs, 3, day(2026, time.March, 15))

	require.Len(t, points, 3)

	assert.Equal(t, "Jan 2026", points[0].Label)
	assert.Equal(t, "Feb 2026", points[1].Label)
	assert.Equal(t, "Mar 2026", points[2].Label)

	assert.Equal(t, 100.0, points[0].TotalExpenses)
	assert.Equal(t, 200.0, points[1].TotalExpenses)
	assert.Equal(t, 500.0, points[2].TotalIncome)
}

func TestTrend_CrossesYearBoundary(t *testing.T) {
	points := aggregate.Trend(nil, 3, day(2026, time.January, 20))

	require.Len(t, points, 3)
	assert.Equal(t, "Nov 2025", points[0].Label)
	assert.Equal(t, "Dec 2025", points[1].Label)
	assert.Equal(t, "Jan 2026", points[2].Label)
}

func TestNetByWallet(t *testing.T) {
	expense := tx(transaction.TypeExpense, -50, day(2026, time.June, 1))
	expense.SourceWalletID = "w-cash"

	income := tx(transaction.TypeIncome, 1000, day(2026, time.June, 2))
	income.DestinationWalletID = "w-bank"

	invest := tx(transaction.TypeInvestment, 200, day(2026, time.June, 3))
	invest.SourceWalletID = "w-bank"

	transfer := tx(transaction.TypeTransfer, 300, day(2026, time.June, 4))
	transfer.SourceWalletID = "w-bank"
	transfer.DestinationWalletID = "w-cash"

	net := aggregate.NetByWallet([]*transaction.Transaction{expense, income, invest, transfer})

	assert.Equal(t, 250.0, net["w-cash"], "-50 spent, +300 transferred in")
	assert.Equal(t, 500.0, net["w-bank"], "+1000 income, -200 invested, -300 transferred out")
}

func TestTotalBalance_SkipsInactiveWallets(t *testing.T) {
	wallets := []*wallet.Wallet{
		{ID: "a", CurrentBalance: 100, IsActive: true},
		{ID: "b", CurrentBalance: 900, IsActive: false},
		{ID: "c", CurrentBalance: 50.5, IsActive: true},
	}

	assert.Equal(t, 150.5, aggregate.TotalBalance(wallets))
}
