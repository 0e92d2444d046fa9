package core

import (
	"sort"
	"strings"
)

// Tracker owns an ordered sequence of expenses. Insertion order is the only
// stored order; every aggregate is recomputed from the sequence on demand.
//
// A Tracker is not safe for concurrent use. Callers that share one across
// goroutines must serialize access themselves.
type Tracker struct {
	expenses []Expense
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Add validates the fields, appends the new expense and returns it.
// Identical expenses are allowed and kept as distinct entries.
func (t *Tracker) Add(category, amount, date, description string) (Expense, error) {
	e, err := NewExpense(category, amount, date, description)
	if err != nil {
		return Expense{}, err
	}
	t.expenses = append(t.expenses, e)
	return e, nil
}

// Remove deletes the expense with the given id.
func (t *Tracker) Remove(id string) (Expense, bool) {
	for i, e := range t.expenses {
		if e.ID == id {
			t.expenses = append(t.expenses[:i], t.expenses[i+1:]...)
			return e, true
		}
	}
	return Expense{}, false
}

// RemoveEqual deletes the first stored expense Equal to target. When several
// entries share category, amount and date only the earliest one goes.
func (t *Tracker) RemoveEqual(target Expense) bool {
	for i, e := range t.expenses {
		if e.Equal(target) {
			t.expenses = append(t.expenses[:i], t.expenses[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the expense with the given id.
func (t *Tracker) Get(id string) (Expense, bool) {
	for _, e := range t.expenses {
		if e.ID == id {
			return e, true
		}
	}
	return Expense{}, false
}

// Clear removes every expense and returns how many were removed.
func (t *Tracker) Clear() int {
	n := len(t.expenses)
	t.expenses = nil
	return n
}

// Len returns the number of stored expenses.
func (t *Tracker) Len() int {
	return len(t.expenses)
}

// List returns a copy of all expenses. With sortByDate the result is in
// ascending date order, ties keeping insertion order.
func (t *Tracker) List(sortByDate bool) []Expense {
	out := make([]Expense, len(t.expenses))
	copy(out, t.expenses)
	if sortByDate {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Date.Before(out[j].Date)
		})
	}
	return out
}

// ByCategory returns expenses whose category matches name ignoring case,
// in insertion order.
func (t *Tracker) ByCategory(name string) []Expense {
	name = strings.TrimSpace(name)
	var out []Expense
	for _, e := range t.expenses {
		if strings.EqualFold(e.Category.Name, name) {
			out = append(out, e)
		}
	}
	return out
}

// ByDateRange returns expenses dated within [start, end], in insertion order.
func (t *Tracker) ByDateRange(start, end Date) []Expense {
	var out []Expense
	for _, e := range t.expenses {
		if !e.Date.Before(start) && !e.Date.After(end) {
			out = append(out, e)
		}
	}
	return out
}

// Categories returns the distinct categories referenced by current expenses.
// The order is first appearance but callers must not rely on it.
func (t *Tracker) Categories() []Category {
	seen := make(map[string]struct{})
	var out []Category
	for _, e := range t.expenses {
		if _, ok := seen[e.Category.Key()]; ok {
			continue
		}
		seen[e.Category.Key()] = struct{}{}
		out = append(out, e.Category)
	}
	return out
}

// replace swaps in a fully validated sequence.
func (t *Tracker) replace(expenses []Expense) {
	t.expenses = expenses
}
