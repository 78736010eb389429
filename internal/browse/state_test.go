package browse

import (
	"reflect"
	"testing"

	"github.com/goccy/go-json"

	"koken/internal/recipe"
)

func sampleStore() *recipe.Store {
	rs := sampleRecipes()
	return &recipe.Store{
		Recipes:    rs,
		Categories: recipe.ExtractCategories(rs, recipe.Collation{}),
	}
}

func TestToggleExpandedPairSync(t *testing.T) {
	st := NewState()
	st.TogglePin("Tomatensoep")
	st.TogglePin("Pasta pesto")
	v := Compute(sampleStore(), st, true)

	if open := st.ToggleExpanded("Pasta pesto", v.Pinned); !open {
		t.Fatal("expected card to open")
	}
	if !st.IsExpanded("Pasta pesto") || !st.IsExpanded("Tomatensoep") {
		t.Errorf("both cards of the pair should be open, expanded = %q", st.Expanded.Sorted())
	}

	st.ToggleExpanded("Tomatensoep", v.Pinned)
	if st.IsExpanded("Pasta pesto") || st.IsExpanded("Tomatensoep") {
		t.Errorf("both cards of the pair should be closed, expanded = %q", st.Expanded.Sorted())
	}
}

func TestToggleExpandedPartnerFollowsToggledCard(t *testing.T) {
	st := NewState()
	st.TogglePin("Tomatensoep")
	st.TogglePin("Pasta pesto")
	v := Compute(sampleStore(), st, true)

	// partner already open from an earlier narrow-terminal session
	st.Expanded.set("Pasta pesto", true)

	st.ToggleExpanded("Tomatensoep", v.Pinned)
	if !st.IsExpanded("Tomatensoep") || !st.IsExpanded("Pasta pesto") {
		t.Errorf("expanded = %q, want both open", st.Expanded.Sorted())
	}
}

func TestToggleExpandedUnpaired(t *testing.T) {
	st := NewState()
	st.TogglePin("Tomatensoep")
	st.TogglePin("Pasta pesto")
	st.TogglePin("Brood")
	v := Compute(sampleStore(), st, true)

	st.ToggleExpanded("Bonensoep", v.Pinned)
	if got := st.Expanded.Sorted(); !reflect.DeepEqual(got, []string{"Bonensoep"}) {
		t.Errorf("expanded = %q, want only Bonensoep", got)
	}

	st.ToggleExpanded("Brood", v.Pinned)
	if got := st.Expanded.Sorted(); !reflect.DeepEqual(got, []string{"Bonensoep", "Brood"}) {
		t.Errorf("expanded = %q, want lone card to toggle alone", got)
	}
}

func TestToggleExpandedNarrowIsIndependent(t *testing.T) {
	st := NewState()
	st.TogglePin("Tomatensoep")
	st.TogglePin("Pasta pesto")
	v := Compute(sampleStore(), st, false)

	st.ToggleExpanded("Tomatensoep", v.Pinned)
	if st.IsExpanded("Pasta pesto") {
		t.Error("cards are not paired on a narrow terminal")
	}
}

func TestTogglePin(t *testing.T) {
	st := NewState()
	if !st.TogglePin("Brood") {
		t.Error("first toggle should pin")
	}
	if st.TogglePin("Brood") {
		t.Error("second toggle should unpin")
	}
	if st.Pinned.Len() != 0 {
		t.Errorf("pinned = %q, want empty", st.Pinned.Sorted())
	}

	var zero State
	if !zero.TogglePin("Brood") {
		t.Error("zero State should accept pins")
	}
}

func TestChipsKeepCollatedOrderForAccents(t *testing.T) {
	c, err := recipe.NewCollation(recipe.DefaultLocale)
	if err != nil {
		t.Fatal(err)
	}
	rs := []recipe.Recipe{
		rec("Stoofvlees", []string{"Vlees"}),
		rec("Ovenschotel", []string{"Éénpansgerecht"}),
		rec("Brood", []string{"Bakken"}),
		rec("Erwtensoep", []string{"Soep"}),
	}
	vocab := recipe.ExtractCategories(rs, c)

	var got []string
	for _, chip := range Chips(vocab, NewSet()) {
		got = append(got, chip.Label)
	}
	if want := []string{"Bakken", "Éénpansgerecht", "Soep", "Vlees"}; !reflect.DeepEqual(got, want) {
		t.Errorf("inactive chips = %q, want %q", got, want)
	}

	got = got[:0]
	for _, chip := range Chips(vocab, NewSet("Vlees", "Éénpansgerecht")) {
		got = append(got, chip.Label)
	}
	if want := []string{"Éénpansgerecht", "Vlees", "Bakken", "Soep"}; !reflect.DeepEqual(got, want) {
		t.Errorf("chips = %q, want %q", got, want)
	}
}

func TestChipsActiveFirst(t *testing.T) {
	vocab := []string{"Hoofdgerecht", "Onbekend", "Pasta", "Soep", "Vega"}
	got := Chips(vocab, NewSet("Vega", "Pasta"))
	want := []Chip{
		{Label: "Pasta", Active: true},
		{Label: "Vega", Active: true},
		{Label: "Hoofdgerecht"},
		{Label: "Onbekend"},
		{Label: "Soep"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Chips() = %+v, want %+v", got, want)
	}
}

func TestComputeNarrowIgnoresPins(t *testing.T) {
	store := sampleStore()
	plain := Compute(store, NewState(), false)

	st := NewState()
	st.TogglePin("Brood")
	st.TogglePin("Ovenschotel")
	st.TogglePin("Pasta pesto")
	v := Compute(store, st, false)

	if v.Pinned.Visible {
		t.Error("pinned strip must be hidden on a narrow terminal")
	}
	if want := Filter(store.Recipes, "", NewSet(), st.Pinned); !reflect.DeepEqual(v.Main, want) {
		t.Errorf("Main = %q, want filter output %q", titles(v.Main), titles(want))
	}
	if len(v.Main) != len(plain.Main) {
		t.Errorf("pins changed the main list length: %d vs %d", len(v.Main), len(plain.Main))
	}
}

func TestComputeEmpty(t *testing.T) {
	st := NewState()
	st.SetSearch("lasagne")
	v := Compute(sampleStore(), st, true)
	if !v.Empty {
		t.Error("expected empty view")
	}
	if len(v.Chips) == 0 {
		t.Error("chips should still be listed for an empty result")
	}

	v = Compute(nil, NewState(), true)
	if !v.Empty || len(v.Main) != 0 {
		t.Errorf("nil store should give an empty view, got %+v", v)
	}
}

func TestComputeLoneKeepsListNonEmpty(t *testing.T) {
	st := NewState()
	st.TogglePin("Tomatensoep")
	st.TogglePin("Bonensoep")
	st.TogglePin("Brood")
	st.SetSearch("lasagne")

	v := Compute(sampleStore(), st, true)
	if v.Empty {
		t.Error("view with a lone pinned recipe reported empty")
	}
	if want := []string{"Brood"}; !reflect.DeepEqual(titles(v.Main), want) {
		t.Errorf("Main = %q, want %q", titles(v.Main), want)
	}

	v = Compute(sampleStore(), st, false)
	if !v.Empty || len(v.Main) != 0 {
		t.Errorf("narrow view = %+v, want empty", v)
	}
}

func TestComputeIdempotent(t *testing.T) {
	store := sampleStore()
	st := NewState()
	st.SetSearch("o")
	st.ToggleCategory("Soep")
	st.ToggleCategory("Hoofdgerecht")
	st.TogglePin("Tomatensoep")
	st.TogglePin("Ovenschotel")
	st.TogglePin("Bonensoep")

	a, err := json.Marshal(Compute(store, st, true))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := json.Marshal(Compute(store, st, true))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(a) != string(b) {
		t.Errorf("Compute not idempotent:\n%s\n%s", a, b)
	}
}

func TestStateJSON(t *testing.T) {
	st := NewState()
	st.SetSearch("soep")
	st.ToggleCategory("Soep")
	st.TogglePin("Bonensoep")
	st.TogglePin("Tomatensoep")

	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"search":"soep","active":["Soep"],"pinned":["Bonensoep","Tomatensoep"],"expanded":[]}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}

	var back State
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Pinned.Has("Tomatensoep") || !back.Active.Has("Soep") || back.Search != "soep" {
		t.Errorf("unmarshalled state = %+v", back)
	}
}

func TestClearFilters(t *testing.T) {
	st := NewState()
	st.SetSearch("soep")
	st.ToggleCategory("Soep")
	st.TogglePin("Brood")
	st.ClearFilters()
	if st.Search != "" || st.Active.Len() != 0 {
		t.Errorf("filters not cleared: %+v", st)
	}
	if !st.Pinned.Has("Brood") {
		t.Error("clearing filters must keep pins")
	}
}
