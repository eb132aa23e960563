package core

import (
	"fmt"
	"sort"
	"time"
)

// Budget status colors reported alongside line-chart totals.
const (
	StatusGreen  = "green"
	StatusYellow = "yellow"
	StatusRed    = "red"
)

type (
	// Totals is the aggregate block of a line-chart report.
	Totals struct {
		Income      float64 `json:"income"`
		Budget      float64 `json:"budget"`
		Spent       float64 `json:"spent"`
		Remaining   float64 `json:"remaining"`
		Savings     float64 `json:"savings"`
		StatusColor string  `json:"status_color"`
	}

	// TrendPoint is one calendar day of the spending/saving trend.
	TrendPoint struct {
		Date  string  `json:"date"`
		Spent float64 `json:"spent"`
		Saved float64 `json:"saved"`
	}

	// LineReport is the full line-chart payload.
	LineReport struct {
		Totals Totals       `json:"totals"`
		Trend  []TrendPoint `json:"trend"`
	}

	// PieSlice is a per-category total for the pie chart.
	PieSlice struct {
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
	}
)

// ExpensesSince returns the expenses whose date parses to a timestamp at or
// after start. An unparsable date fails the whole aggregation, mirroring a
// store-side date conversion rejecting the query.
func ExpensesSince(expenses []Expense, start time.Time) ([]Expense, error) {
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		t, err := ParseISODate(e.Date)
		if err != nil {
			return nil, fmt.Errorf("expense %d: %w", e.ID, err)
		}
		if !t.Before(start) {
			out = append(out, e)
		}
	}
	return out, nil
}

// SavingsSince returns the ledger entries dated at or after start.
func SavingsSince(entries []SavingEntry, start time.Time) ([]SavingEntry, error) {
	out := make([]SavingEntry, 0, len(entries))
	for _, s := range entries {
		t, err := ParseISODate(s.Date)
		if err != nil {
			return nil, fmt.Errorf("saving %d: %w", s.ID, err)
		}
		if !t.Before(start) {
			out = append(out, s)
		}
	}
	return out, nil
}

// SavingsBalance reduces a ledger to its add/use totals.
// current = added - used, derived and never stored.
func SavingsBalance(entries []SavingEntry) (added, used float64) {
	for _, s := range entries {
		switch s.Type {
		case SavingAdd:
			added += s.Amount
		case SavingUse:
			used += s.Amount
		}
	}
	return added, used
}

// StatusColor maps spending against budget to a traffic-light color. A zero
// or absent budget counts as 0% spent.
func StatusColor(spent, budget float64) string {
	percent := 0.0
	if budget != 0 {
		percent = spent / budget * 100
	}
	switch {
	case percent < 50:
		return StatusGreen
	case percent < 75:
		return StatusYellow
	default:
		return StatusRed
	}
}

// BuildLineReport reduces windowed expenses and savings into totals plus a
// per-day trend series ordered by date ascending. Each expense adds to the
// day's spent; ledger adds increase the day's saved and uses decrease it.
func BuildLineReport(income, budget float64, expenses []Expense, savings []SavingEntry) LineReport {
	var spent float64
	trend := make(map[string]*TrendPoint)

	bucket := func(key string) *TrendPoint {
		p, ok := trend[key]
		if !ok {
			p = &TrendPoint{Date: key}
			trend[key] = p
		}
		return p
	}

	for _, e := range expenses {
		spent += e.Amount
		bucket(DateKey(e.Date)).Spent += e.Amount
	}
	for _, s := range savings {
		p := bucket(DateKey(s.Date))
		if s.Type == SavingAdd {
			p.Saved += s.Amount
		} else {
			p.Saved -= s.Amount
		}
	}

	points := make([]TrendPoint, 0, len(trend))
	for _, p := range trend {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })

	added, used := SavingsBalance(savings)
	return LineReport{
		Totals: Totals{
			Income:      income,
			Budget:      budget,
			Spent:       spent,
			Remaining:   budget - spent,
			Savings:     added - used,
			StatusColor: StatusColor(spent, budget),
		},
		Trend: points,
	}
}

// BuildPieReport groups expense amounts by category. Slices are emitted in
// category order for stable output; callers treat the sequence as unordered.
func BuildPieReport(expenses []Expense) []PieSlice {
	byCategory := make(map[string]float64)
	for _, e := range expenses {
		cat := e.Category
		if cat == "" {
			cat = DefaultCategory
		}
		byCategory[cat] += e.Amount
	}

	slices := make([]PieSlice, 0, len(byCategory))
	for cat, amount := range byCategory {
		slices = append(slices, PieSlice{Category: cat, Amount: amount})
	}
	sort.Slice(slices, func(i, j int) bool { return slices[i].Category < slices[j].Category })
	return slices
}
