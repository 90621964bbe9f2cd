// Package aggregate derives financial rollups from cached snapshots. It
// owns no state: every function is a pure reduction over the records it is
// handed, and all sums are float64 with rounding left to presentation.
package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/jvilaplana/cartera/internal/transaction"
	"github.com/jvilaplana/cartera/internal/wallet"
)

// UncategorizedName is the display fallback for transactions without a
// resolvable category.
const UncategorizedName = "uncategorized"

// Summary is the per-period rollup. Expense and investment contributions
// are magnitudes; income keeps its raw sign.
type Summary struct {
	TotalIncome      float64
	TotalExpenses    float64
	TotalInvestments float64
	NetBalance       float64
	TransactionCount int
	PeriodStart      time.Time
	PeriodEnd        time.Time
}

// Summarize reduces the transactions dated within [from, to], both ends
// inclusive. NetBalance = income - expenses - investments.
func Summarize(txs []*transaction.Transaction, from, to time.Time) Summary {
	s := Summary{PeriodStart: from, PeriodEnd: to}

	for _, t := range txs {
		if t.Date.Before(from) || t.Date.After(to) {
			continue
		}

		s.TransactionCount++

		switch t.Type {
		case transaction.TypeIncome:
			s.TotalIncome += t.Amount
		case transaction.TypeExpense:
			s.TotalExpenses += math.Abs(t.Amount)
		case transaction.TypeInvestment:
			s.TotalInvestments += math.Abs(t.Amount)
		}
	}

	s.NetBalance = s.TotalIncome - s.TotalExpenses - s.TotalInvestments

	return s
}

// CategoryTotal is one row of the per-category expense rollup.
type CategoryTotal struct {
	CategoryID   string
	CategoryName string
	Total        float64
	Count        int
	Transactions []*transaction.Transaction
}

// ByCategory groups expense transactions by category, summing magnitudes,
// sorted by total descending.
func ByCategory(txs []*transaction.Transaction) []CategoryTotal {
	grouped := make(map[string]*CategoryTotal)

	for _, t := range txs {
		if t.Type != transaction.TypeExpense {
			continue
		}

		g, ok := grouped[t.CategoryID]
		if !ok {
			name := t.CategoryName
			if name == "" {
				name = UncategorizedName
			}

			g = &CategoryTotal{CategoryID: t.CategoryID, CategoryName: name}
			grouped[t.CategoryID] = g
		}

		g.Total += math.Abs(t.Amount)
		g.Count++
		g.Transactions = append(g.Transactions, t)
	}

	out := make([]CategoryTotal, 0, len(grouped))
	for _, g := range grouped {
		out = append(out, *g)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}

		return out[i].CategoryID < out[j].CategoryID
	})

	return out
}

// Monthly reduces one calendar month, first to last day inclusive. The
// boundaries come from the calendar, not fixed 30-day windows.
func Monthly(txs []*transaction.Transaction, year int, month time.Month) Summary {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)

	return Summarize(txs, first, last)
}

// MonthPoint is one entry of a trend series.
type MonthPoint struct {
	Label  string
	Anchor time.Time
	Summary
}

// Trend produces monthsBack consecutive monthly summaries ending at now's
// month, oldest first.
func Trend(txs []*transaction.Transaction, monthsBack int, now time.Time) []MonthPoint {
	points := make([]MonthPoint, 0, monthsBack)

	for i := monthsBack - 1; i >= 0; i-- {
		anchor := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, time.UTC)

		points = append(points, MonthPoint{
			Label:   anchor.Format("Jan 2006"),
			Anchor:  anchor,
			Summary: Monthly(txs, anchor.Year(), anchor.Month()),
		})
	}

	return points
}

// NetByWallet computes each wallet's signed net from the transactions that
// touch it: expenses and investments leave their endpoint, income arrives
// at its endpoint, transfers move magnitude from source to destination.
func NetByWallet(txs []*transaction.Transaction) map[string]float64 {
	net := make(map[string]float64)

	for _, t := range txs {
		switch t.Type {
		case transaction.TypeExpense, transaction.TypeInvestment:
			if id := endpoint(t); id != "" {
				net[id] -= math.Abs(t.Amount)
			}
		case transaction.TypeIncome:
			if id := endpoint(t); id != "" {
				net[id] += t.Amount
			}
		case transaction.TypeTransfer:
			if t.SourceWalletID != "" {
				net[t.SourceWalletID] -= math.Abs(t.Amount)
			}

			if t.DestinationWalletID != "" {
				net[t.DestinationWalletID] += math.Abs(t.Amount)
			}
		}
	}

	return net
}

// TotalBalance sums the running balances of active wallets only;
// soft-deleted wallets are excluded.
func TotalBalance(wallets []*wallet.Wallet) float64 {
	var total float64

	for _, w := range wallets {
		if w.IsActive {
			total += w.CurrentBalance
		}
	}

	return total
}

func endpoint(t *transaction.Transaction) string {
	if t.SourceWalletID != "" {
		return t.SourceWalletID
	}

	return t.DestinationWalletID
}
