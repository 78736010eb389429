package recipe

import (
	"strings"

	"github.com/goccy/go-json"
)

// DefaultCategory is assigned to recipes published without a usable category.
const DefaultCategory = "Onbekend"

// Recipe is a normalized recipe. The title doubles as its identity.
type Recipe struct {
	Title        string   `json:"title"`
	Category     []string `json:"category"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
}

// HasCategory reports whether cat is one of the recipe's categories.
func (r Recipe) HasCategory(cat string) bool {
	for _, c := range r.Category {
		if c == cat {
			return true
		}
	}
	return false
}

// RawRecord is a recipe document exactly as a source publishes it.
type RawRecord struct {
	Title        string        `json:"title"`
	Category     CategoryField `json:"category"`
	Ingredients  []string      `json:"ingredients"`
	Instructions []string      `json:"instructions"`
}

// CategoryField accepts a single string, a list of strings, or anything
// else. Values it cannot read are left empty and replaced during
// normalization instead of failing the document.
type CategoryField struct {
	Values []string
}

func (c *CategoryField) UnmarshalJSON(data []byte) error {
	c.Values = nil

	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		c.Values = []string{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		c.Values = many
	}
	return nil
}

func (c CategoryField) MarshalJSON() ([]byte, error) {
	if c.Values == nil {
		return []byte("null"), nil
	}
	return json.Marshal(c.Values)
}

// Load normalizes raw records in order.
func Load(raw []RawRecord) []Recipe {
	out := make([]Recipe, 0, len(raw))
	for _, r := range raw {
		out = append(out, Normalize(r))
	}
	return out
}

func Normalize(r RawRecord) Recipe {
	return Recipe{
		Title:        r.Title,
		Category:     normalizeCategories(r.Category.Values),
		Ingredients:  nonNil(r.Ingredients),
		Instructions: nonNil(r.Instructions),
	}
}

// normalizeCategories never returns an empty slice.
func normalizeCategories(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return []string{DefaultCategory}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
