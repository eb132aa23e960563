package core

import (
	"math"
	"sort"
	"time"
)

// CategorySummary is one row of the per-category budget summary.
type CategorySummary struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Percent  float64 `json:"percent"`
}

// SummaryReport is the payload of the expense summary endpoint.
type SummaryReport struct {
	Items       []CategorySummary `json:"items"`
	TotalBudget float64           `json:"totalBudget"`
}

// BuildCategorySummary computes per-category totals and percent-of-budget for
// expenses inside the window starting at start.
//
// A record matches the window when it was created at or after start, or when
// its string date field is at or after the window-start date; the second leg
// covers records lacking a reliable creation timestamp. Records flagged as
// paid from savings are excluded, as are non-positive amounts. Percent is
// capped at 100 and both amount and percent are rounded to 2 decimals; items
// come back ordered by percent descending.
func BuildCategorySummary(expenses []Expense, budget float64, start time.Time) SummaryReport {
	startDate := start.UTC().Format("2006-01-02")

	totals := make(map[string]float64)
	for _, e := range expenses {
		if e.PaidFromSavings {
			continue
		}
		if e.CreatedAt.Before(start) && DateKey(e.Date) < startDate {
			continue
		}
		if e.Amount <= 0 {
			continue
		}
		cat := e.Category
		if cat == "" {
			cat = DefaultCategory
		}
		totals[cat] += e.Amount
	}

	items := make([]CategorySummary, 0, len(totals))
	for cat, total := range totals {
		percent := 0.0
		if budget > 0 {
			percent = math.Min(100, total/budget*100)
		}
		items = append(items, CategorySummary{
			Category: cat,
			Amount:   round2(total),
			Percent:  round2(percent),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Percent > items[j].Percent })

	return SummaryReport{Items: items, TotalBudget: round2(budget)}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
