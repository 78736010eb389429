package recipe

import (
	"reflect"
	"testing"

	"github.com/goccy/go-json"
)

func decode(t *testing.T, doc string) RawRecord {
	t.Helper()
	var r RawRecord
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		t.Fatalf("decode %s: %v", doc, err)
	}
	return r
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{"missing", `{"title":"Stamppot"}`, []string{DefaultCategory}},
		{"null", `{"title":"Stamppot","category":null}`, []string{DefaultCategory}},
		{"empty string", `{"title":"Stamppot","category":"  "}`, []string{DefaultCategory}},
		{"trailing space", `{"title":"Erwtensoep","category":"Soep "}`, []string{"Soep"}},
		{"list trimmed", `{"title":"Salade","category":[" Bijgerecht","Vega "]}`, []string{"Bijgerecht", "Vega"}},
		{"list drops blanks", `{"title":"Salade","category":["", "Vega"]}`, []string{"Vega"}},
		{"empty list", `{"title":"Salade","category":[]}`, []string{DefaultCategory}},
		{"number", `{"title":"Salade","category":42}`, []string{DefaultCategory}},
		{"mixed list", `{"title":"Salade","category":["Vega", 3]}`, []string{DefaultCategory}},
		{"object", `{"title":"Salade","category":{"a":"b"}}`, []string{DefaultCategory}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(decode(t, tt.doc))
			if !reflect.DeepEqual(got.Category, tt.want) {
				t.Errorf("category = %q, want %q", got.Category, tt.want)
			}
		})
	}
}

func TestNormalizeKeepsListsAndOrder(t *testing.T) {
	r := decode(t, `{
		"title": "Tomatensoep",
		"category": "Soep",
		"ingredients": ["tomaten", "ui", "bouillon"],
		"instructions": ["Snijd de ui.", "Kook alles."]
	}`)

	got := Normalize(r)
	want := Recipe{
		Title:        "Tomatensoep",
		Category:     []string{"Soep"},
		Ingredients:  []string{"tomaten", "ui", "bouillon"},
		Instructions: []string{"Snijd de ui.", "Kook alles."},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize() = %+v, want %+v", got, want)
	}
}

func TestNormalizeMissingLists(t *testing.T) {
	got := Normalize(decode(t, `{"title":"Leeg"}`))
	if got.Ingredients == nil || len(got.Ingredients) != 0 {
		t.Errorf("ingredients = %#v, want empty slice", got.Ingredients)
	}
	if got.Instructions == nil || len(got.Instructions) != 0 {
		t.Errorf("instructions = %#v, want empty slice", got.Instructions)
	}
}

func TestLoadPreservesOrder(t *testing.T) {
	raw := []RawRecord{
		decode(t, `{"title":"B"}`),
		decode(t, `{"title":"A"}`),
		decode(t, `{"title":"C"}`),
	}
	got := Load(raw)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, title := range []string{"B", "A", "C"} {
		if got[i].Title != title {
			t.Errorf("got[%d] = %q, want %q", i, got[i].Title, title)
		}
	}
}

func TestCategoryFieldMarshal(t *testing.T) {
	r := decode(t, `{"title":"Soep","category":"Soep"}`)
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back := decode(t, string(data))
	if !reflect.DeepEqual(back.Category.Values, []string{"Soep"}) {
		t.Errorf("category after marshal = %q", back.Category.Values)
	}

	data, err = json.Marshal(RawRecord{Title: "Leeg"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := Normalize(decode(t, string(data))).Category; !reflect.DeepEqual(got, []string{DefaultCategory}) {
		t.Errorf("category = %q, want default", got)
	}
}

func TestHasCategory(t *testing.T) {
	r := Recipe{Title: "Soep", Category: []string{"Soep", "Vega"}}
	if !r.HasCategory("Vega") {
		t.Error("expected Vega")
	}
	if r.HasCategory("vega") {
		t.Error("category match must be exact")
	}
}
