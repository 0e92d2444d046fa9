package amqp

import (
	"encoding/json"
	"time"

	"expense-tracker/internal/core"
)

// Event types published on expense changes.
const (
	EventExpenseCreated  = "expense.created"
	EventExpenseDeleted  = "expense.deleted"
	EventExpensesCleared = "expenses.cleared"
)

// ExpenseEvent describes a single change to the expense collection.
// Count is only set for EventExpensesCleared.
type ExpenseEvent struct {
	Type      string    `json:"type"`
	ExpenseID string    `json:"expense_id,omitempty"`
	Category  string    `json:"category,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Date      string    `json:"date,omitempty"`
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseEvent builds a created or deleted event for e.
func NewExpenseEvent(eventType string, e core.Expense) *ExpenseEvent {
	return &ExpenseEvent{
		Type:      eventType,
		ExpenseID: e.ID,
		Category:  e.Category.Name,
		Amount:    e.Amount.String(),
		Date:      e.Date.String(),
		Timestamp: time.Now().UTC(),
	}
}

// NewClearedEvent builds the event sent after the collection is emptied.
func NewClearedEvent(count int) *ExpenseEvent {
	return &ExpenseEvent{
		Type:      EventExpensesCleared,
		Count:     count,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes an event from JSON bytes
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
