package core

import (
	"testing"
	"time"
)

func TestStatusColor(t *testing.T) {
	cases := []struct {
		spent, budget float64
		want          string
	}{
		{499, 1000, StatusGreen},  // 49.9%
		{500, 1000, StatusYellow}, // exactly 50%
		{749, 1000, StatusYellow}, // 74.9%
		{750, 1000, StatusRed},    // exactly 75%
		{1500, 1000, StatusRed},
		{300, 1000, StatusGreen},
		{100, 0, StatusGreen}, // no budget counts as 0%
		{0, 0, StatusGreen},
	}
	for _, tc := range cases {
		if got := StatusColor(tc.spent, tc.budget); got != tc.want {
			t.Fatalf("StatusColor(%v, %v) = %q, want %q", tc.spent, tc.budget, got, tc.want)
		}
	}
}

func TestExpensesSince(t *testing.T) {
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	expenses := []Expense{
		{ID: 1, Date: "2024-01-05", Amount: 10},
		{ID: 2, Date: "2024-01-10", Amount: 20},
		{ID: 3, Date: "2024-02-01T08:00:00Z", Amount: 30},
	}

	got, err := ExpensesSince(expenses, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 3 {
		t.Fatalf("wrong window filter result: %+v", got)
	}

	expenses = append(expenses, Expense{ID: 4, Date: "garbage"})
	if _, err := ExpensesSince(expenses, start); err == nil {
		t.Fatal("expected error for unparsable date")
	}
}

func TestSavingsBalance(t *testing.T) {
	entries := []SavingEntry{
		{Amount: 100, Type: SavingAdd},
		{Amount: 50, Type: SavingAdd},
		{Amount: 30, Type: SavingUse},
	}
	added, used := SavingsBalance(entries)
	if added != 150 || used != 30 {
		t.Fatalf("got added=%v used=%v, want 150/30", added, used)
	}
}

func TestBuildLineReport(t *testing.T) {
	expenses := []Expense{
		{Category: "Food", Amount: 300, Date: "2024-01-01"},
		{Category: "Food", Amount: 50, Date: "2024-01-02T10:00:00Z"},
	}
	savings := []SavingEntry{
		{Amount: 200, Type: SavingAdd, Date: "2024-01-01T09:00:00Z"},
		{Amount: 80, Type: SavingUse, Date: "2024-01-02T11:00:00Z"},
	}

	report := BuildLineReport(2000, 1000, expenses, savings)

	if report.Totals.Spent != 350 {
		t.Fatalf("spent = %v, want 350", report.Totals.Spent)
	}
	if report.Totals.Remaining != 650 {
		t.Fatalf("remaining = %v, want 650", report.Totals.Remaining)
	}
	if report.Totals.Savings != 120 {
		t.Fatalf("savings = %v, want 120", report.Totals.Savings)
	}
	if report.Totals.Income != 2000 || report.Totals.Budget != 1000 {
		t.Fatalf("totals block wrong: %+v", report.Totals)
	}
	if report.Totals.StatusColor != StatusGreen { // 35%
		t.Fatalf("status = %q, want green", report.Totals.StatusColor)
	}

	if len(report.Trend) != 2 {
		t.Fatalf("trend length = %d, want 2", len(report.Trend))
	}
	if report.Trend[0].Date != "2024-01-01" || report.Trend[1].Date != "2024-01-02" {
		t.Fatalf("trend not ascending by date: %+v", report.Trend)
	}
	day1, day2 := report.Trend[0], report.Trend[1]
	if day1.Spent != 300 || day1.Saved != 200 {
		t.Fatalf("day1 = %+v, want spent=300 saved=200", day1)
	}
	if day2.Spent != 50 || day2.Saved != -80 {
		t.Fatalf("day2 = %+v, want spent=50 saved=-80", day2)
	}
}

func TestBuildLineReportSpecExample(t *testing.T) {
	// budget=1000, one Food expense of 300 within window.
	report := BuildLineReport(0, 1000, []Expense{{Category: "Food", Amount: 300, Date: "2024-01-01"}}, nil)
	if report.Totals.Spent != 300 || report.Totals.Remaining != 700 {
		t.Fatalf("totals = %+v", report.Totals)
	}
	if report.Totals.StatusColor != StatusGreen {
		t.Fatalf("status = %q, want green", report.Totals.StatusColor)
	}
}

func TestBuildPieReport(t *testing.T) {
	expenses := []Expense{
		{Category: "Food", Amount: 300, Date: "2024-01-01"},
		{Category: "Food", Amount: 100, Date: "2024-01-03"},
		{Category: "Transport", Amount: 40, Date: "2024-01-02"},
		{Category: "", Amount: 5, Date: "2024-01-02"},
	}

	slices := BuildPieReport(expenses)
	if len(slices) != 3 {
		t.Fatalf("slice count = %d, want 3", len(slices))
	}
	byCat := map[string]float64{}
	for _, s := range slices {
		byCat[s.Category] = s.Amount
	}
	if byCat["Food"] != 400 || byCat["Transport"] != 40 || byCat[DefaultCategory] != 5 {
		t.Fatalf("wrong grouping: %+v", byCat)
	}
}

func TestBuildPieReportSpecExample(t *testing.T) {
	slices := BuildPieReport([]Expense{{Category: "Food", Amount: 300, Date: "2024-01-01"}})
	if len(slices) != 1 || slices[0].Category != "Food" || slices[0].Amount != 300 {
		t.Fatalf("got %+v, want [{Food 300}]", slices)
	}
}
