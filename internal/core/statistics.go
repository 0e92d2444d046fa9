package core

import (
	"bytes"
	"encoding/json"
	"sort"
)

// DailyTotal is the sum of amounts spent on one date.
type DailyTotal struct {
	Date  Date
	Total Money
}

// Trend is a chronologically ordered list of daily totals.
type Trend []DailyTotal

// MarshalJSON renders the trend as an object keyed by ISO date, in order.
func (tr Trend) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, dt := range tr {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`"` + dt.Date.String() + `":` + dt.Total.String())
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML renders the trend as a mapping; YAML keys sort the same way.
func (tr Trend) MarshalYAML() (interface{}, error) {
	out := make(map[string]float64, len(tr))
	for _, dt := range tr {
		out[dt.Date.String()] = dt.Total.Float64()
	}
	return out, nil
}

// CategoryStats summarizes the expenses of a single category.
type CategoryStats struct {
	Total   Money `json:"total_amount" yaml:"total_amount"`
	Count   int   `json:"expense_count" yaml:"expense_count"`
	Average Money `json:"average_amount" yaml:"average_amount"`
	Min     Money `json:"min_amount" yaml:"min_amount"`
	Max     Money `json:"max_amount" yaml:"max_amount"`
}

// Snapshot is a single reporting view over the tracker.
type Snapshot struct {
	Total            Money            `json:"total_expense" yaml:"total_expense"`
	Count            int              `json:"expense_count" yaml:"expense_count"`
	Categories       []string         `json:"categories" yaml:"categories"`
	TotalsByCategory map[string]Money `json:"total_by_category" yaml:"total_by_category"`
	Trend            Trend            `json:"expense_trend" yaml:"expense_trend"`
	Highest          *string          `json:"highest_category" yaml:"highest_category"`
	Lowest           *string          `json:"lowest_category" yaml:"lowest_category"`
}

// Total returns the sum of all amounts, zero when empty.
func (t *Tracker) Total() Money {
	var sum Money
	for _, e := range t.expenses {
		sum = sum.Add(e.Amount)
	}
	return sum
}

// TotalsByCategory maps each category name to the sum of its amounts.
func (t *Tracker) TotalsByCategory() map[string]Money {
	totals := make(map[string]Money)
	for _, e := range t.expenses {
		totals[e.Category.Key()] = totals[e.Category.Key()].Add(e.Amount)
	}
	return totals
}

// Trend sums amounts per date, ordered chronologically.
func (t *Tracker) Trend() Trend {
	byDay := make(map[string]*DailyTotal)
	for _, e := range t.expenses {
		key := e.Date.String()
		dt, ok := byDay[key]
		if !ok {
			dt = &DailyTotal{Date: e.Date}
			byDay[key] = dt
		}
		dt.Total = dt.Total.Add(e.Amount)
	}
	out := make(Trend, 0, len(byDay))
	for _, dt := range byDay {
		out = append(out, *dt)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Extremes returns the categories with the highest and lowest totals.
// ok is false when there are no expenses. Categories are scanned in order
// of first appearance and replaced only on a strictly greater or smaller
// total, so the earliest category wins a tie.
func (t *Tracker) Extremes() (highest, lowest string, ok bool) {
	totals := t.TotalsByCategory()
	var hi, lo Money
	for i, c := range t.Categories() {
		total := totals[c.Key()]
		if i == 0 {
			highest, lowest, hi, lo = c.Name, c.Name, total, total
			continue
		}
		if total.Cmp(hi) > 0 {
			highest, hi = c.Name, total
		}
		if total.Cmp(lo) < 0 {
			lowest, lo = c.Name, total
		}
	}
	return highest, lowest, highest != ""
}

// CategoryStatistics returns per-category totals, counts, averages and
// extremes. Only categories with at least one expense appear.
func (t *Tracker) CategoryStatistics() map[string]CategoryStats {
	stats := make(map[string]CategoryStats)
	for _, e := range t.expenses {
		s, ok := stats[e.Category.Key()]
		if !ok {
			s = CategoryStats{Min: e.Amount, Max: e.Amount}
		}
		s.Total = s.Total.Add(e.Amount)
		s.Count++
		if e.Amount.Cmp(s.Min) < 0 {
			s.Min = e.Amount
		}
		if e.Amount.Cmp(s.Max) > 0 {
			s.Max = e.Amount
		}
		stats[e.Category.Key()] = s
	}
	for name, s := range stats {
		s.Average = s.Total.div(s.Count)
		stats[name] = s
	}
	return stats
}

// Statistics assembles a full reporting snapshot.
func (t *Tracker) Statistics() Snapshot {
	cats := t.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	snap := Snapshot{
		Total:            t.Total(),
		Count:            t.Len(),
		Categories:       names,
		TotalsByCategory: t.TotalsByCategory(),
		Trend:            t.Trend(),
	}
	if hi, lo, ok := t.Extremes(); ok {
		snap.Highest, snap.Lowest = &hi, &lo
	}
	return snap
}

var _ json.Marshaler = Trend(nil)
