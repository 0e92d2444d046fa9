package core

import (
	"encoding/json"
	"strings"
)

// Category groups expenses. Its identity is the trimmed name; description
// and color are display metadata only.
type Category struct {
	Name        string
	Description string
	Color       string
}

// NewCategory validates and normalizes a category name.
func NewCategory(name, description, color string) (Category, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Category{}, invalid("category", name, ErrEmptyCategory)
	}
	return Category{
		Name:        trimmed,
		Description: strings.TrimSpace(description),
		Color:       strings.TrimSpace(color),
	}, nil
}

// Equal reports whether both categories share the same normalized name.
func (c Category) Equal(o Category) bool {
	return c.Name == o.Name
}

// Key returns the map key consistent with Equal.
func (c Category) Key() string {
	return c.Name
}

func (c Category) String() string {
	return c.Name
}

type categoryJSON struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(categoryJSON{
		Name:        &c.Name,
		Description: optional(c.Description),
		Color:       optional(c.Color),
	})
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var raw categoryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Name == nil {
		return invalid("category", "", ErrEmptyCategory)
	}
	parsed, err := NewCategory(*raw.Name, deref(raw.Description), deref(raw.Color))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
