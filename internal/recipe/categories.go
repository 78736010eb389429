package recipe

import (
	"fmt"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultLocale orders categories the way the recipe collection's
// readers expect.
const DefaultLocale = "nl"

// Collation orders strings for a language. The zero value uses the root
// collation.
type Collation struct {
	tag language.Tag
}

func NewCollation(locale string) (Collation, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return Collation{}, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	return Collation{tag: tag}, nil
}

// Sort orders s in place. A collator is built per call since collators
// keep internal buffers.
func (c Collation) Sort(s []string) {
	collate.New(c.tag).SortStrings(s)
}

// ExtractCategories returns the sorted, duplicate-free union of every
// recipe's categories.
func ExtractCategories(recipes []Recipe, c Collation) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range recipes {
		for _, cat := range r.Category {
			if _, ok := seen[cat]; ok {
				continue
			}
			seen[cat] = struct{}{}
			out = append(out, cat)
		}
	}
	c.Sort(out)
	return out
}

// Store holds one loaded recipe collection and its category vocabulary.
// It is built once per load and not modified afterwards.
type Store struct {
	Recipes    []Recipe
	Categories []string
}

func NewStore(raw []RawRecord, c Collation) *Store {
	recipes := Load(raw)
	return &Store{
		Recipes:    recipes,
		Categories: ExtractCategories(recipes, c),
	}
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Recipes)
}
