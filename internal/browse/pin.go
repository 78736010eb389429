package browse

import (
	"koken/internal/recipe"
)

// PinnedDisplay describes the pinned strip shown above the main list.
type PinnedDisplay struct {
	// Visible is false on narrow terminals or with fewer than two pins.
	Visible bool `json:"visible"`
	// Cards are the paired recipes in store order; Cards[2k] and
	// Cards[2k+1] form pair k.
	Cards []recipe.Recipe `json:"cards"`
	// Pairs maps a paired title to its pair index.
	Pairs map[string]int `json:"pairs"`
	// Lone is the odd pinned recipe left over after pairing. It is shown
	// at the top of the main list instead of in the strip.
	Lone *recipe.Recipe `json:"lone,omitempty"`
}

// ComputePinnedDisplay gathers pinned recipes in the order they appear in
// all and groups them into pairs.
func ComputePinnedDisplay(all []recipe.Recipe, pinned Set, wide bool) PinnedDisplay {
	d := PinnedDisplay{Cards: []recipe.Recipe{}, Pairs: map[string]int{}}
	if !wide || pinned.Len() == 0 {
		return d
	}

	var hits []recipe.Recipe
	for _, r := range all {
		if pinned.Has(r.Title) {
			hits = append(hits, r)
		}
	}
	if len(hits) < 2 {
		return d
	}

	n := len(hits)
	if n%2 == 1 {
		lone := hits[n-1]
		d.Lone = &lone
		n--
	}
	d.Visible = true
	d.Cards = append(d.Cards, hits[:n]...)
	for i, r := range d.Cards {
		d.Pairs[r.Title] = i / 2
	}
	return d
}

// Paired reports whether title sits in a pair of the strip.
func (d PinnedDisplay) Paired(title string) bool {
	_, ok := d.Pairs[title]
	return ok
}

// Partner returns the title sharing a pair with title.
func (d PinnedDisplay) Partner(title string) (string, bool) {
	if !d.Visible {
		return "", false
	}
	for i, r := range d.Cards {
		if r.Title != title {
			continue
		}
		j := i ^ 1
		if j >= len(d.Cards) {
			return "", false
		}
		return d.Cards[j].Title, true
	}
	return "", false
}

// Rows returns the pairs as two-card rows for rendering.
func (d PinnedDisplay) Rows() [][2]recipe.Recipe {
	rows := make([][2]recipe.Recipe, 0, len(d.Cards)/2)
	for i := 0; i+1 < len(d.Cards); i += 2 {
		rows = append(rows, [2]recipe.Recipe{d.Cards[i], d.Cards[i+1]})
	}
	return rows
}

// MainListExclusions removes paired recipes from the filtered list and
// moves the lone pinned recipe to its front. With a hidden strip the
// filtered list is returned as is.
func MainListExclusions(filtered []recipe.Recipe, d PinnedDisplay) []recipe.Recipe {
	out := make([]recipe.Recipe, 0, len(filtered)+1)
	if !d.Visible {
		return append(out, filtered...)
	}
	if d.Lone != nil {
		out = append(out, *d.Lone)
	}
	for _, r := range filtered {
		if d.Paired(r.Title) {
			continue
		}
		if d.Lone != nil && r.Title == d.Lone.Title {
			continue
		}
		out = append(out, r)
	}
	return out
}
