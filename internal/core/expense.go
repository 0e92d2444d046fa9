package core

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// Expense is a validated spending record. Values are immutable once created;
// ID is generated at creation and never part of equality.
type Expense struct {
	ID          string
	Category    Category
	Amount      Money
	Date        Date
	Description string // empty means absent
}

// NewExpense validates raw fields and builds an Expense with a fresh ID.
// Validation runs category, amount, then date; the first failure is
// returned as a *ValidationError.
func NewExpense(category, amount, date, description string) (Expense, error) {
	cat, err := NewCategory(category, "", "")
	if err != nil {
		return Expense{}, err
	}
	m, err := ParseMoney(amount)
	if err != nil {
		return Expense{}, invalid("amount", amount, err)
	}
	d, err := ParseDate(date)
	if err != nil {
		return Expense{}, invalid("date", date, err)
	}
	return Expense{
		ID:          uuid.NewString(),
		Category:    cat,
		Amount:      m,
		Date:        d,
		Description: strings.TrimSpace(description),
	}, nil
}

// Equal reports whether category, amount and date all match.
func (e Expense) Equal(o Expense) bool {
	return e.Category.Equal(o.Category) && e.Amount.Equal(o.Amount) && e.Date.Equal(o.Date)
}

// Key returns a hash key consistent with Equal.
func (e Expense) Key() string {
	return e.Date.String() + "|" + e.Category.Key() + "|" + e.Amount.String()
}

func (e Expense) String() string {
	return e.Date.String() + " | " + e.Category.Name + " | " + e.Amount.String()
}

// expenseRecord is the persisted shape. Pointer fields distinguish missing
// fields from empty ones.
type expenseRecord struct {
	ID          string      `json:"id,omitempty"`
	Category    *string     `json:"category"`
	Amount      json.Number `json:"amount"`
	Date        *string     `json:"date"`
	Description *string     `json:"description"`
}

func (e Expense) MarshalJSON() ([]byte, error) {
	name := e.Category.Name
	date := e.Date.String()
	return json.Marshal(expenseRecord{
		ID:          e.ID,
		Category:    &name,
		Amount:      json.Number(e.Amount.String()),
		Date:        &date,
		Description: optional(e.Description),
	})
}

// UnmarshalJSON re-runs NewExpense validation. Records written before ids
// existed get a fresh one.
func (e *Expense) UnmarshalJSON(data []byte) error {
	var raw expenseRecord
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := NewExpense(deref(raw.Category), expandExponent(raw.Amount.String()), deref(raw.Date), deref(raw.Description))
	if err != nil {
		return err
	}
	if raw.ID != "" {
		parsed.ID = raw.ID
	}
	*e = parsed
	return nil
}
