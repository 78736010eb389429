package browse

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"koken/internal/recipe"
)

// NormalizeSearch trims and lower-cases a search term. Accented letters
// are composed so typed and stored forms compare equal.
func NormalizeSearch(term string) string {
	return fold(strings.TrimSpace(term))
}

func fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// match reports whether r matches term, and whether it matched on its
// title. term must already be normalized.
func match(r recipe.Recipe, term string) (ok, byTitle bool) {
	if term == "" {
		return true, true
	}
	if strings.Contains(fold(r.Title), term) {
		return true, true
	}
	for _, ing := range r.Ingredients {
		if strings.Contains(fold(ing), term) {
			return true, false
		}
	}
	return false, false
}

func inCategories(r recipe.Recipe, active Set) bool {
	if active.Len() == 0 {
		return true
	}
	for _, c := range r.Category {
		if active.Has(c) {
			return true
		}
	}
	return false
}

// Filter returns the recipes matching search and the active categories.
// Pinned recipes come first, then within each group title matches come
// before ingredient-only matches. Equal ranks keep their input order.
func Filter(recipes []recipe.Recipe, search string, active, pinned Set) []recipe.Recipe {
	term := NormalizeSearch(search)

	type ranked struct {
		r    recipe.Recipe
		rank int
	}
	hits := make([]ranked, 0, len(recipes))
	for _, r := range recipes {
		ok, byTitle := match(r, term)
		if !ok || !inCategories(r, active) {
			continue
		}
		rank := 0
		if !pinned.Has(r.Title) {
			rank += 2
		}
		if !byTitle {
			rank++
		}
		hits = append(hits, ranked{r: r, rank: rank})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].rank < hits[j].rank })

	out := make([]recipe.Recipe, len(hits))
	for i, h := range hits {
		out[i] = h.r
	}
	return out
}
