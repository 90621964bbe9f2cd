package summary

import (
	"time"

	"golang.org/x/text/message"

	"github.com/jvilaplana/cartera/internal/aggregate"
)

type summaryResponse struct {
	TotalIncome      float64          `json:"totalIncome"`
	TotalExpenses    float64          `json:"totalExpenses"`
	TotalInvestments float64          `json:"totalInvestments"`
	NetBalance       float64          `json:"netBalance"`
	TransactionCount int              `json:"transactionCount"`
	PeriodStart      string           `json:"periodStart"`
	PeriodEnd        string           `json:"periodEnd"`
	Formatted        formattedAmounts `json:"formatted"`
}

// formattedAmounts carries the same totals rendered with the locale's
// digit grouping and decimal separator, resolved from Accept-Language.
type formattedAmounts struct {
	TotalIncome      string `json:"totalIncome"`
	TotalExpenses    string `json:"totalExpenses"`
	TotalInvestments string `json:"totalInvestments"`
	NetBalance       string `json:"netBalance"`
}

func toSummaryResponse(s aggregate.Summary, p *message.Printer) summaryResponse {
	return summaryResponse{
		TotalIncome:      s.TotalIncome,
		TotalExpenses:    s.TotalExpenses,
		TotalInvestments: s.TotalInvestments,
		NetBalance:       s.NetBalance,
		TransactionCount: s.TransactionCount,
		PeriodStart:      s.PeriodStart.Format(time.DateOnly),
		PeriodEnd:        s.PeriodEnd.Format(time.DateOnly),
		Formatted: formattedAmounts{
			TotalIncome:      p.Sprintf("%.2f", s.TotalIncome),
			TotalExpenses:    p.Sprintf("%.2f", s.TotalExpenses),
			TotalInvestments: p.Sprintf("%.2f", s.TotalInvestments),
			NetBalance:       p.Sprintf("%.2f", s.NetBalance),
		},
	}
}

type categoryResponse struct {
	CategoryID   string  `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
	Total        float64 `json:"total"`
	Count        int     `json:"count"`
}

func toCategoryResponses(totals []aggregate.CategoryTotal) []categoryResponse {
	out := make([]categoryResponse, len(totals))

	for i, ct := range totals {
		out[i] = categoryResponse{
			CategoryID:   ct.CategoryID,
			CategoryName: ct.CategoryName,
			Total:        ct.Total,
			Count:        ct.Count,
		}
	}

	return out
}

type trendPointResponse struct {
	Label string `json:"label"`
	summaryResponse
}

func toTrendResponses(points []aggregate.MonthPoint, p *message.Printer) []trendPointResponse {
	out := make([]trendPointResponse, len(points))

	for i, pt := range points {
		out[i] = trendPointResponse{
			Label:           pt.Label,
			summaryResponse: toSummaryResponse(pt.Summary, p),
		}
	}

	return out
}
