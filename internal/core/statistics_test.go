package core

import (
	"encoding/json"
	"testing"
)

func TestScenarioAggregates(t *testing.T) {
	tr, _ := scenarioTracker(t)

	if got := tr.Total(); got.String() != "29.00" {
		t.Fatalf("total = %s", got)
	}

	totals := tr.TotalsByCategory()
	if len(totals) != 2 || totals["Food"].String() != "20.00" || totals["Transport"].String() != "9.00" {
		t.Fatalf("totals = %v", totals)
	}

	trend := tr.Trend()
	if len(trend) != 2 {
		t.Fatalf("trend = %v", trend)
	}
	if trend[0].Date.String() != "2024-01-01" || trend[0].Total.String() != "13.50" {
		t.Fatalf("trend[0] = %+v", trend[0])
	}
	if trend[1].Date.String() != "2024-01-02" || trend[1].Total.String() != "15.50" {
		t.Fatalf("trend[1] = %+v", trend[1])
	}

	hi, lo, ok := tr.Extremes()
	if !ok || hi != "Food" || lo != "Transport" {
		t.Fatalf("extremes = %q, %q, %v", hi, lo, ok)
	}
}

func TestEmptyAggregates(t *testing.T) {
	tr := NewTracker()
	if !tr.Total().IsZero() {
		t.Fatalf("empty total = %s", tr.Total())
	}
	if len(tr.TotalsByCategory()) != 0 || len(tr.Trend()) != 0 || len(tr.CategoryStatistics()) != 0 {
		t.Fatalf("empty tracker should yield empty aggregates")
	}
	if hi, lo, ok := tr.Extremes(); ok || hi != "" || lo != "" {
		t.Fatalf("extremes on empty = %q %q %v", hi, lo, ok)
	}
	snap := tr.Statistics()
	if snap.Highest != nil || snap.Lowest != nil || snap.Count != 0 {
		t.Fatalf("empty snapshot = %+v", snap)
	}
}

func TestExtremesTieBreakFirstInsertedWins(t *testing.T) {
	tr := NewTracker()
	mustAdd(t, tr, "Books", "10", "2024-01-03", "")
	mustAdd(t, tr, "Games", "10", "2024-01-01", "")
	mustAdd(t, tr, "Music", "10", "2024-01-02", "")

	hi, lo, ok := tr.Extremes()
	if !ok || hi != "Books" || lo != "Books" {
		t.Fatalf("all tied: extremes = %q, %q", hi, lo)
	}

	mustAdd(t, tr, "Films", "5", "2024-01-01", "")
	mustAdd(t, tr, "Toys", "5", "2024-01-01", "")
	hi, lo, _ = tr.Extremes()
	if hi != "Books" || lo != "Films" {
		t.Fatalf("tied lowest: extremes = %q, %q", hi, lo)
	}
}

func TestSingleCategoryExtremes(t *testing.T) {
	tr := NewTracker()
	mustAdd(t, tr, "Food", "3", "2024-01-01", "")
	hi, lo, ok := tr.Extremes()
	if !ok || hi != "Food" || lo != "Food" {
		t.Fatalf("extremes = %q, %q", hi, lo)
	}
}

func TestCategoryStatistics(t *testing.T) {
	tr, _ := scenarioTracker(t)
	mustAdd(t, tr, "Food", "10", "2024-01-05", "")

	stats := tr.CategoryStatistics()
	food, ok := stats["Food"]
	if !ok {
		t.Fatalf("missing Food stats: %v", stats)
	}
	if food.Count != 3 || food.Total.String() != "30.00" || food.Average.String() != "10.00" ||
		food.Min.String() != "4.50" || food.Max.String() != "15.50" {
		t.Fatalf("food stats = %+v", food)
	}
	transport := stats["Transport"]
	if transport.Count != 1 || transport.Average.String() != "9.00" || !transport.Min.Equal(transport.Max) {
		t.Fatalf("transport stats = %+v", transport)
	}
	if _, ok := stats["Rent"]; ok {
		t.Fatalf("categories without expenses never appear")
	}
}

func TestCategoryAverageRounds(t *testing.T) {
	tr := NewTracker()
	mustAdd(t, tr, "Food", "1", "2024-01-01", "")
	mustAdd(t, tr, "Food", "1", "2024-01-01", "")
	mustAdd(t, tr, "Food", "0.01", "2024-01-01", "")
	if got := tr.CategoryStatistics()["Food"].Average.String(); got != "0.67" {
		t.Fatalf("average = %s, want 0.67", got)
	}
}

func TestStatisticsSnapshot(t *testing.T) {
	tr, _ := scenarioTracker(t)
	snap := tr.Statistics()
	if snap.Count != 3 || snap.Total.String() != "29.00" || len(snap.Categories) != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.Highest == nil || *snap.Highest != "Food" || snap.Lowest == nil || *snap.Lowest != "Transport" {
		t.Fatalf("snapshot extremes = %v %v", snap.Highest, snap.Lowest)
	}

	b, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"total_expense":29.00,"expense_count":3,"categories":["Food","Transport"],` +
		`"total_by_category":{"Food":20.00,"Transport":9.00},` +
		`"expense_trend":{"2024-01-01":13.50,"2024-01-02":15.50},` +
		`"highest_category":"Food","lowest_category":"Transport"}`
	if string(b) != want {
		t.Fatalf("json =\n%s\nwant\n%s", b, want)
	}
}

func TestAggregatesFollowMutations(t *testing.T) {
	tr, added := scenarioTracker(t)
	tr.Remove(added[0].ID)
	if got := tr.Total(); got.String() != "13.50" {
		t.Fatalf("total after remove = %s", got)
	}
	hi, lo, _ := tr.Extremes()
	if hi != "Transport" || lo != "Food" {
		t.Fatalf("extremes after remove = %q %q", hi, lo)
	}
}
