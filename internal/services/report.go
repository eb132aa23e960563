package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"spendtrack/internal/core"
	"spendtrack/internal/storage"
)

// ErrInvalidChart rejects chart modes other than line and pie.
var ErrInvalidChart = errors.New("Invalid type parameter")

// Chart modes accepted by the analytics endpoint.
const (
	ChartLine = "line"
	ChartPie  = "pie"
)

// AnalyticsReport is the analytics endpoint payload. Line mode fills Totals
// and Trend; pie mode fills Data.
type AnalyticsReport struct {
	Mode   string            `json:"mode"`
	Totals *core.Totals      `json:"totals,omitempty"`
	Trend  []core.TrendPoint `json:"trend,omitempty"`
	Data   []core.PieSlice   `json:"data,omitempty"`
}

// SavingsSummary mirrors the ledger invariant: current = added - used.
type SavingsSummary struct {
	TotalAdded     float64 `json:"total_added"`
	TotalUsed      float64 `json:"total_used"`
	CurrentSavings float64 `json:"current_savings"`
}

// ReportService computes the read-side aggregations. Every request
// recomputes from scratch; nothing is cached.
type ReportService struct {
	storage *storage.SQLiteRepository
	now     func() time.Time
}

func NewReportService(st *storage.SQLiteRepository) *ReportService {
	return &ReportService{
		storage: st,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Analytics builds the line or pie report for the owner over the resolved
// period window. Expense and savings fetches run concurrently.
func (s *ReportService) Analytics(ctx context.Context, token, chartType, period string) (*AnalyticsReport, error) {
	if chartType != ChartLine && chartType != ChartPie {
		return nil, ErrInvalidChart
	}

	start := core.PeriodStart(s.now(), period)

	settings, _, err := s.storage.GetSettings(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	income, budget := 0.0, 0.0
	if settings.Income != nil {
		income = *settings.Income
	}
	if settings.Budget != nil {
		budget = *settings.Budget
	}

	var (
		expenses []core.Expense
		savings  []core.SavingEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		all, err := s.storage.ListExpenses(gctx, token)
		if err != nil {
			return err
		}
		expenses, err = core.ExpensesSince(all, start)
		return err
	})
	g.Go(func() error {
		all, err := s.storage.ListSavings(gctx, token)
		if err != nil {
			return err
		}
		savings, err = core.SavingsSince(all, start)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load window records: %w", err)
	}

	if chartType == ChartPie {
		return &AnalyticsReport{
			Mode: ChartPie,
			Data: core.BuildPieReport(expenses),
		}, nil
	}

	line := core.BuildLineReport(income, budget, expenses, savings)
	return &AnalyticsReport{
		Mode:   ChartLine,
		Totals: &line.Totals,
		Trend:  line.Trend,
	}, nil
}

// Summary computes per-category totals and percent-of-budget for the owner
// over the summary window (default week, year always 365 days). Expenses
// flagged as paid from savings are excluded.
func (s *ReportService) Summary(ctx context.Context, token, period string) (core.SummaryReport, error) {
	start := core.SummaryStart(s.now(), period)

	settings, _, err := s.storage.GetSettings(ctx, token)
	if err != nil {
		return core.SummaryReport{}, fmt.Errorf("load settings: %w", err)
	}
	budget := 0.0
	if settings.Budget != nil {
		budget = *settings.Budget
	}

	expenses, err := s.storage.ListExpenses(ctx, token)
	if err != nil {
		return core.SummaryReport{}, fmt.Errorf("load expenses: %w", err)
	}

	return core.BuildCategorySummary(expenses, budget, start), nil
}

// Savings reduces the owner's whole ledger (no window) to its balance.
func (s *ReportService) Savings(ctx context.Context, token string) (SavingsSummary, error) {
	entries, err := s.storage.ListSavings(ctx, token)
	if err != nil {
		return SavingsSummary{}, fmt.Errorf("load savings: %w", err)
	}
	added, used := core.SavingsBalance(entries)
	return SavingsSummary{
		TotalAdded:     added,
		TotalUsed:      used,
		CurrentSavings: added - used,
	}, nil
}
