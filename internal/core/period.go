package core

import "time"

// Period keywords accepted by the reporting endpoints.
const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// PeriodStart resolves a period keyword to the analytics window start,
// relative to now. Unknown or empty keywords fall back to the month window.
// The year window grows to 366 days when the current calendar year is a leap
// year.
func PeriodStart(now time.Time, period string) time.Time {
	switch period {
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	case PeriodYear:
		days := 365
		if IsLeapYear(now.Year()) {
			days = 366
		}
		return now.AddDate(0, 0, -days)
	default:
		return now.AddDate(0, 0, -30)
	}
}

// SummaryStart resolves a period keyword to the category-summary window
// start. Unlike PeriodStart, the default is the week window and the year
// window is always exactly 365 days. The two endpoints intentionally differ.
func SummaryStart(now time.Time, period string) time.Time {
	switch period {
	case PeriodYear:
		return now.AddDate(0, 0, -365)
	case PeriodMonth:
		return now.AddDate(0, 0, -30)
	default:
		return now.AddDate(0, 0, -7)
	}
}

// IsLeapYear reports whether y is a Gregorian leap year.
func IsLeapYear(y int) bool {
	return y%400 == 0 || (y%4 == 0 && y%100 != 0)
}
