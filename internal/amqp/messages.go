package amqp

import (
	"encoding/json"
	"time"

	"expensetracker/internal/core"
)

// ExpenseRecordedMessage announces that an expense was appended to the ledger.
type ExpenseRecordedMessage struct {
	Ref         string    `json:"ref"`
	Date        string    `json:"date"`
	AmountCents int64     `json:"amount_cents"`
	Category    string    `json:"category"`
	Source      string    `json:"source"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewExpenseRecordedMessage builds a message for e stored under ref.
// source is "manual" or "receipt".
func NewExpenseRecordedMessage(ref string, e core.Expense, source string) *ExpenseRecordedMessage {
	return &ExpenseRecordedMessage{
		Ref:         ref,
		Date:        e.Date.String(),
		AmountCents: e.Amount.Cents,
		Category:    string(e.Category),
		Source:      source,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
