package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"spendtrack/internal/core"
)

// payload is a decoded JSON request body. Numbers are kept as json.Number so
// type violations can be reported per field.
type payload map[string]any

// parsePayload decodes the request body. A missing or malformed body yields
// an empty payload; field-level checks produce the actual error messages.
func parsePayload(r *http.Request) payload {
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return payload{}
	}
	return m
}

// token returns the owner token from the body, falling back to the query
// string.
func (p payload) token(r *http.Request) string {
	if s, ok := p["token"].(string); ok && s != "" {
		return s
	}
	return r.URL.Query().Get("token")
}

// str returns a string field; ok is false when the field is absent, null, or
// not a string.
func (p payload) str(key string) (string, bool) {
	s, ok := p[key].(string)
	return s, ok
}

// number returns a numeric field, accepting JSON numbers and numeric strings.
func (p payload) number(key string) (float64, bool) {
	switch v := p[key].(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// has reports whether the field is present with a non-null value.
func (p payload) has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// expenseInput extracts the expense fields, enforcing per-field types. Absent
// and null fields stay nil; presence with the wrong type fails with the
// field's validation message.
func (p payload) expenseInput() (core.ExpenseInput, error) {
	var in core.ExpenseInput

	if p.has("category") {
		s, ok := p.str("category")
		if !ok {
			return in, core.ErrCategoryRequired
		}
		in.Category = &s
	}
	if p.has("amount") {
		f, ok := p.number("amount")
		if !ok {
			return in, core.ErrAmountRequired
		}
		in.Amount = &f
	}
	if p.has("description") {
		s, ok := p.str("description")
		if !ok {
			return in, core.ErrDescriptionType
		}
		in.Description = &s
	}
	if p.has("date") {
		s, ok := p.str("date")
		if !ok {
			return in, core.ErrDateRequired
		}
		in.Date = &s
	}
	if p.has("recovered_from_savings") {
		if b, ok := p["recovered_from_savings"].(bool); ok {
			in.Recovered = &b
		}
	}

	return in, nil
}

// settings extracts the settings record. Income and budget stay nil unless a
// number is supplied; notification flags default to false.
func (p payload) settings(token string) core.Settings {
	s := core.Settings{Token: token}

	if f, ok := p.number("income"); ok {
		s.Income = &f
	}
	if f, ok := p.number("budget"); ok {
		s.Budget = &f
	}
	if n, ok := p["notifications"].(map[string]any); ok {
		s.Notifications.BudgetAlert, _ = n["budgetAlert"].(bool)
		s.Notifications.LargeExpense, _ = n["largeExpense"].(bool)
		s.Notifications.MonthlyEmail, _ = n["monthlyEmail"].(bool)
	}

	return s
}
