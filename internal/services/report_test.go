package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"spendtrack/internal/core"
	"spendtrack/internal/storage"
)

func newTestReports(t *testing.T) (*ReportService, *storage.SQLiteRepository) {
	repo := newTestStorage(t)
	svc := NewReportService(repo)
	svc.now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }
	return svc, repo
}

func seedExpense(t *testing.T, repo *storage.SQLiteRepository, e core.Expense) {
	t.Helper()
	if _, err := repo.CreateExpense(context.Background(), e); err != nil {
		t.Fatalf("seed expense: %v", err)
	}
}

func seedSaving(t *testing.T, repo *storage.SQLiteRepository, s core.SavingEntry) {
	t.Helper()
	if _, err := repo.CreateSaving(context.Background(), s); err != nil {
		t.Fatalf("seed saving: %v", err)
	}
}

func TestAnalyticsRejectsUnknownChart(t *testing.T) {
	svc, _ := newTestReports(t)
	if _, err := svc.Analytics(context.Background(), "abc", "bar", "month"); !errors.Is(err, ErrInvalidChart) {
		t.Fatalf("got %v, want ErrInvalidChart", err)
	}
}

func TestAnalyticsLine(t *testing.T) {
	svc, repo := newTestReports(t)
	ctx := context.Background()

	income, budget := 2000.0, 1000.0
	if err := repo.SaveSettings(ctx, core.Settings{Token: "abc", Income: &income, Budget: &budget}); err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	created := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	seedExpense(t, repo, core.Expense{Token: "abc", Category: "Food", Amount: 300, Date: "2024-06-10", CreatedAt: created, UpdatedAt: created})
	seedExpense(t, repo, core.Expense{Token: "abc", Category: "Transport", Amount: 50, Date: "2024-06-10", CreatedAt: created, UpdatedAt: created})
	// Outside the default 30-day window.
	seedExpense(t, repo, core.Expense{Token: "abc", Category: "Old", Amount: 999, Date: "2024-04-01", CreatedAt: created, UpdatedAt: created})
	// Another owner.
	seedExpense(t, repo, core.Expense{Token: "other", Category: "Food", Amount: 500, Date: "2024-06-10", CreatedAt: created, UpdatedAt: created})

	seedSaving(t, repo, core.SavingEntry{Token: "abc", Amount: 200, Type: core.SavingAdd, Date: "2024-06-12T00:00:00Z"})
	seedSaving(t, repo, core.SavingEntry{Token: "abc", Amount: 80, Type: core.SavingUse, Date: "2024-06-13T00:00:00Z"})
	seedSaving(t, repo, core.SavingEntry{Token: "abc", Amount: 777, Type: core.SavingAdd, Date: "2024-01-01T00:00:00Z"})

	report, err := svc.Analytics(ctx, "abc", ChartLine, "")
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if report.Mode != ChartLine || report.Totals == nil {
		t.Fatalf("wrong shape: %+v", report)
	}

	tot := report.Totals
	if tot.Income != 2000 || tot.Budget != 1000 {
		t.Fatalf("settings not applied: %+v", tot)
	}
	if tot.Spent != 350 {
		t.Fatalf("spent = %v, want 350", tot.Spent)
	}
	if tot.Remaining != 650 {
		t.Fatalf("remaining = %v, want 650", tot.Remaining)
	}
	if tot.Savings != 120 {
		t.Fatalf("savings = %v, want 120", tot.Savings)
	}
	if tot.StatusColor != core.StatusGreen {
		t.Fatalf("status = %q, want green", tot.StatusColor)
	}

	want := []core.TrendPoint{
		{Date: "2024-06-10", Spent: 350},
		{Date: "2024-06-12", Saved: 200},
		{Date: "2024-06-13", Saved: -80},
	}
	if len(report.Trend) != len(want) {
		t.Fatalf("trend = %+v, want %+v", report.Trend, want)
	}
	for i, p := range want {
		if report.Trend[i] != p {
			t.Fatalf("trend[%d] = %+v, want %+v", i, report.Trend[i], p)
		}
	}
}

func TestAnalyticsLineWithoutSettings(t *testing.T) {
	svc, repo := newTestReports(t)
	ctx := context.Background()

	created := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	seedExpense(t, repo, core.Expense{Token: "abc", Category: "Food", Amount: 10, Date: "2024-06-10", CreatedAt: created, UpdatedAt: created})

	report, err := svc.Analytics(ctx, "abc", ChartLine, "month")
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	tot := report.Totals
	if tot.Income != 0 || tot.Budget != 0 {
		t.Fatalf("missing settings should zero income/budget: %+v", tot)
	}
	if tot.StatusColor != core.StatusGreen {
		t.Fatalf("zero budget must report green, got %q", tot.StatusColor)
	}
}

func TestAnalyticsPie(t *testing.T) {
	svc, repo := newTestReports(t)
	ctx := context.Background()

	created := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	seedExpense(t, repo, core.Expense{Token: "abc", Category: "Food", Amount: 200, Date: "2024-06-10", CreatedAt: created, UpdatedAt: created})
	seedExpense(t, repo, core.Expense{Token: "abc", Category: "Food", Amount: 100, Date: "2024-06-11", CreatedAt: created, UpdatedAt: created})
	seedExpense(t, repo, core.Expense{Token: "abc", Category: "", Amount: 40, Date: "2024-06-11", CreatedAt: created, UpdatedAt: created})

	report, err := svc.Analytics(ctx, "abc", ChartPie, "week")
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if report.Mode != ChartPie || report.Totals != nil {
		t.Fatalf("wrong shape: %+v", report)
	}

	want := []core.PieSlice{
		{Category: "Food", Amount: 300},
		{Category: core.DefaultCategory, Amount: 40},
	}
	if len(report.Data) != len(want) {
		t.Fatalf("data = %+v, want %+v", report.Data, want)
	}
	for i, s := range want {
		if report.Data[i] != s {
			t.Fatalf("data[%d] = %+v, want %+v", i, report.Data[i], s)
		}
	}
}

func TestAnalyticsFailsOnUnparsableDate(t *testing.T) {
	svc, repo := newTestReports(t)
	ctx := context.Background()

	created := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	seedExpense(t, repo, core.Expense{Token: "abc", Category: "Food", Amount: 10, Date: "10/06/2024", CreatedAt: created, UpdatedAt: created})

	if _, err := svc.Analytics(ctx, "abc", ChartLine, "month"); err == nil {
		t.Fatal("expected aggregation error for unparsable stored date")
	}
}

func TestSummary(t *testing.T) {
	svc, repo := newTestReports(t)
	ctx := context.Background()

	budget := 1000.0
	if err := repo.SaveSettings(ctx, core.Settings{Token: "abc", Budget: &budget}); err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	recent := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	old := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	seedExpense(t, repo, core.Expense{Token: "abc", Category: "Food", Amount: 300, Date: "2024-06-10", CreatedAt: recent, UpdatedAt: recent})
	// Old creation timestamp but a recent date string still matches the window.
	seedExpense(t, repo, core.Expense{Token: "abc", Category: "Rent", Amount: 100, Date: "2024-06-14", CreatedAt: old, UpdatedAt: old})
	// Both legs outside the default week window.
	seedExpense(t, repo, core.Expense{Token: "abc", Category: "Old", Amount: 999, Date: "2024-01-01", CreatedAt: old, UpdatedAt: old})
	// Paid from savings stays out of the budget summary.
	seedExpense(t, repo, core.Expense{Token: "abc", Category: "Covered", Amount: 50, Date: "2024-06-10", CreatedAt: recent, UpdatedAt: recent, PaidFromSavings: true})

	report, err := svc.Summary(ctx, "abc", "")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if report.TotalBudget != 1000 {
		t.Fatalf("totalBudget = %v, want 1000", report.TotalBudget)
	}

	want := []core.CategorySummary{
		{Category: "Food", Amount: 300, Percent: 30},
		{Category: "Rent", Amount: 100, Percent: 10},
	}
	if len(report.Items) != len(want) {
		t.Fatalf("items = %+v, want %+v", report.Items, want)
	}
	for i, it := range want {
		if report.Items[i] != it {
			t.Fatalf("items[%d] = %+v, want %+v", i, report.Items[i], it)
		}
	}
}

func TestSavingsSummaryInvariant(t *testing.T) {
	svc, repo := newTestReports(t)
	ctx := context.Background()

	seedSaving(t, repo, core.SavingEntry{Token: "abc", Amount: 100, Type: core.SavingAdd, Date: "2024-06-01T00:00:00Z"})
	seedSaving(t, repo, core.SavingEntry{Token: "abc", Amount: 50, Type: core.SavingAdd, Date: "2024-06-02T00:00:00Z"})
	seedSaving(t, repo, core.SavingEntry{Token: "abc", Amount: 30, Type: core.SavingUse, Date: "2024-06-03T00:00:00Z"})
	// The balance ignores the window entirely, so an ancient entry counts.
	seedSaving(t, repo, core.SavingEntry{Token: "abc", Amount: 5, Type: core.SavingAdd, Date: "2020-01-01T00:00:00Z"})

	got, err := svc.Savings(ctx, "abc")
	if err != nil {
		t.Fatalf("savings: %v", err)
	}
	want := SavingsSummary{TotalAdded: 155, TotalUsed: 30, CurrentSavings: 125}
	if got != want {
		t.Fatalf("summary = %+v, want %+v", got, want)
	}
	if got.CurrentSavings != got.TotalAdded-got.TotalUsed {
		t.Fatal("balance invariant broken")
	}
}
