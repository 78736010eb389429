package browse

import (
	"koken/internal/recipe"
)

// State is the browsing session: everything the user can change. It is
// rebuilt empty on every start.
type State struct {
	Search   string `json:"search"`
	Active   Set    `json:"active"`
	Pinned   Set    `json:"pinned"`
	Expanded Set    `json:"expanded"`
}

func NewState() State {
	return State{
		Active:   NewSet(),
		Pinned:   NewSet(),
		Expanded: NewSet(),
	}
}

func (s *State) ensure() {
	if s.Active == nil {
		s.Active = NewSet()
	}
	if s.Pinned == nil {
		s.Pinned = NewSet()
	}
	if s.Expanded == nil {
		s.Expanded = NewSet()
	}
}

func (s *State) SetSearch(term string) {
	s.Search = term
}

func (s *State) ToggleCategory(cat string) bool {
	s.ensure()
	return s.Active.Toggle(cat)
}

// TogglePin flips the pin of title. Recipes sharing a title share a pin.
func (s *State) TogglePin(title string) bool {
	s.ensure()
	return s.Pinned.Toggle(title)
}

// ToggleExpanded opens or closes the card for title. A card in a pair
// drags its partner to the same state.
func (s *State) ToggleExpanded(title string, d PinnedDisplay) bool {
	s.ensure()
	open := !s.Expanded.Has(title)
	s.Expanded.set(title, open)
	if partner, ok := d.Partner(title); ok {
		s.Expanded.set(partner, open)
	}
	return open
}

func (s State) IsExpanded(title string) bool {
	return s.Expanded.Has(title)
}

// ClearFilters drops the search term and every active category.
func (s *State) ClearFilters() {
	s.Search = ""
	s.Active = NewSet()
}

// Chip is one entry of the category strip.
type Chip struct {
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// Chips lists the vocabulary with active categories first. vocabulary is
// expected in collation order, which both groups keep.
func Chips(vocabulary []string, active Set) []Chip {
	out := make([]Chip, 0, len(vocabulary))
	for _, c := range vocabulary {
		if active.Has(c) {
			out = append(out, Chip{Label: c, Active: true})
		}
	}
	for _, c := range vocabulary {
		if !active.Has(c) {
			out = append(out, Chip{Label: c})
		}
	}
	return out
}

// View is everything a renderer needs for one frame.
type View struct {
	Main   []recipe.Recipe `json:"main"`
	Pinned PinnedDisplay   `json:"pinned"`
	Chips  []Chip          `json:"chips"`
	// Empty means the main list has nothing to show. A lone pinned
	// recipe keeps it non-empty even when the filter matched nothing.
	Empty bool `json:"empty"`
}

// Compute runs the full pipeline from the store and session state. It
// has no side effects; equal inputs give equal views.
func Compute(store *recipe.Store, st State, wide bool) View {
	if store == nil {
		store = &recipe.Store{}
	}
	filtered := Filter(store.Recipes, st.Search, st.Active, st.Pinned)
	pinned := ComputePinnedDisplay(store.Recipes, st.Pinned, wide)
	list := MainListExclusions(filtered, pinned)
	return View{
		Main:   list,
		Pinned: pinned,
		Chips:  Chips(store.Categories, st.Active),
		Empty:  len(list) == 0,
	}
}
