package core

import (
	"errors"
	"time"
)

// SavingType distinguishes ledger deposits from withdrawals.
type SavingType string

const (
	SavingAdd SavingType = "add"
	SavingUse SavingType = "use"
)

// DefaultCategory is used when an expense carries no category label.
const DefaultCategory = "Other"

// RecoveredCategory is the fallback category for expenses created by the
// savings-use path when the caller supplies none.
const RecoveredCategory = "Misc"

type (
	// Expense is a single owner-scoped expense record. Date keeps the ISO
	// string exactly as the client supplied it; CreatedAt/UpdatedAt are
	// server-assigned.
	Expense struct {
		ID                   int64     `json:"id"`
		Token                string    `json:"-"`
		Category             string    `json:"category"`
		Amount               float64   `json:"amount"`
		Description          string    `json:"description"`
		Date                 string    `json:"date"`
		RecoveredFromSavings bool      `json:"recovered_from_savings"`
		PaidFromSavings      bool      `json:"-"` // legacy import flag, never set by this API
		CreatedAt            time.Time `json:"created_at"`
		UpdatedAt            time.Time `json:"updated_at"`
	}

	// SavingEntry is an immutable savings ledger transaction. Date is
	// server-assigned at creation (RFC3339, UTC).
	SavingEntry struct {
		ID     int64      `json:"id"`
		Token  string     `json:"-"`
		Amount float64    `json:"amount"`
		Type   SavingType `json:"type"`
		Note   string     `json:"note"`
		Date   string     `json:"date"`
	}

	// Notifications holds the per-owner alert preferences.
	Notifications struct {
		BudgetAlert  bool `json:"budgetAlert"`
		LargeExpense bool `json:"largeExpense"`
		MonthlyEmail bool `json:"monthlyEmail"`
	}

	// Settings is the single per-owner settings record. Income and Budget are
	// nullable: an owner with no saved settings reports nil for both.
	Settings struct {
		Token         string        `json:"-"`
		Income        *float64      `json:"income"`
		Budget        *float64      `json:"budget"`
		Notifications Notifications `json:"notifications"`
		UpdatedAt     time.Time     `json:"-"`
	}

	// Profile is the single per-owner profile record.
	Profile struct {
		Token  string `json:"token"`
		Name   string `json:"name"`
		Avatar string `json:"avatar"`
		Email  string `json:"email"`
	}

	// User maps a Google identity to its stable opaque owner token.
	User struct {
		ID        int64
		GoogleID  string
		Token     string
		Name      string
		Email     string
		Picture   string
		CreatedAt time.Time
		LastLogin time.Time
	}
)

// Validation failures for expense payloads. Messages follow the API contract
// and are returned to clients verbatim.
var (
	ErrCategoryRequired = errors.New("'category' is required and must be a string")
	ErrAmountRequired   = errors.New("'amount' is required and must be a number")
	ErrAmountNegative   = errors.New("'amount' must be >= 0")
	ErrDateRequired     = errors.New("'date' is required and must be an ISO string")
	ErrDateFormat       = errors.New("'date' must be an ISO format string")
	ErrDescriptionType  = errors.New("'description' must be a string if provided")
)

// ExpenseInput carries the client-supplied fields of an expense payload.
// A nil pointer means the field was absent from the request.
type ExpenseInput struct {
	Category    *string
	Amount      *float64
	Description *string
	Date        *string
	Recovered   *bool
}

// Empty reports whether the input carries none of the updatable fields.
func (in ExpenseInput) Empty() bool {
	return in.Category == nil && in.Amount == nil && in.Description == nil && in.Date == nil
}

// Validate checks the payload rules in order and returns the first violation.
func (in ExpenseInput) Validate() error {
	if in.Category == nil || *in.Category == "" {
		return ErrCategoryRequired
	}
	if in.Amount == nil {
		return ErrAmountRequired
	}
	if *in.Amount < 0 {
		return ErrAmountNegative
	}
	if in.Date == nil || *in.Date == "" {
		return ErrDateRequired
	}
	if _, err := ParseISODate(*in.Date); err != nil {
		return ErrDateFormat
	}
	return nil
}

// Merge overlays the supplied fields of in onto e and returns the result.
// Absent fields keep their prior values.
func (in ExpenseInput) Merge(e Expense) Expense {
	if in.Category != nil {
		e.Category = *in.Category
	}
	if in.Amount != nil {
		e.Amount = *in.Amount
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.Date != nil {
		e.Date = *in.Date
	}
	return e
}

// InputFor rebuilds an ExpenseInput from a full record so that a merged
// update is re-validated with the same rules as a create.
func InputFor(e Expense) ExpenseInput {
	cat, amt, desc, date := e.Category, e.Amount, e.Description, e.Date
	return ExpenseInput{Category: &cat, Amount: &amt, Description: &desc, Date: &date}
}

// isoLayouts are the accepted shapes for client-supplied date strings:
// plain dates and date-times with or without an offset (trailing Z is UTC).
var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// ParseISODate parses an ISO-8601 date or date-time string in UTC.
func ParseISODate(s string) (time.Time, error) {
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognized date format: " + s)
}

// DateKey returns the calendar-day bucket key (YYYY-MM-DD) for a stored ISO
// date string, following the first-10-characters convention.
func DateKey(date string) string {
	if len(date) > 10 {
		return date[:10]
	}
	return date
}
