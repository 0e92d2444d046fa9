package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNewCategory(t *testing.T) {
	c, err := NewCategory("  Food ", "meals", "#ff0000")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if c.Name != "Food" || c.Description != "meals" || c.Color != "#ff0000" {
		t.Fatalf("unexpected category: %+v", c)
	}

	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := NewCategory(name, "", "")
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Field != "category" || !errors.Is(err, ErrEmptyCategory) {
			t.Fatalf("%q expected category ValidationError, got %v", name, err)
		}
	}
}

func TestCategoryEqualityIgnoresMetadata(t *testing.T) {
	a, _ := NewCategory("Food", "one", "red")
	b, _ := NewCategory(" Food", "two", "blue")
	if !a.Equal(b) || a.Key() != b.Key() {
		t.Fatalf("expected %+v == %+v", a, b)
	}
	c, _ := NewCategory("food", "", "")
	if a.Equal(c) {
		t.Fatalf("names differing in case are distinct categories")
	}
}

func TestCategoryJSON(t *testing.T) {
	a, _ := NewCategory("Transport", "", "green")
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"name":"Transport","description":null,"color":"green"}` {
		t.Fatalf("unexpected json: %s", b)
	}
	var back Category
	if err := json.Unmarshal(b, &back); err != nil || back != a {
		t.Fatalf("round trip = %+v (err=%v)", back, err)
	}

	for _, in := range []string{`{}`, `{"name":""}`, `{"description":"x"}`} {
		var c Category
		var verr *ValidationError
		if err := json.Unmarshal([]byte(in), &c); !errors.As(err, &verr) {
			t.Fatalf("%s expected ValidationError, got %v", in, err)
		}
	}
}
