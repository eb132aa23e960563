package notify

import (
	"encoding/json"
	"time"
)

// ExpenseEvent is published after an expense write succeeds locally. The
// alert worker decides whether the owner's notification preferences turn it
// into an alert.
type ExpenseEvent struct {
	Token     string    `json:"token"`
	Category  string    `json:"category"`
	Amount    float64   `json:"amount"`
	Recovered bool      `json:"recovered"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseEvent builds an event stamped with the current time.
func NewExpenseEvent(token, category string, amount float64, recovered bool) *ExpenseEvent {
	return &ExpenseEvent{
		Token:     token,
		Category:  category,
		Amount:    amount,
		Recovered: recovered,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExpenseEventFromJSON creates an event from JSON bytes.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var ev ExpenseEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
