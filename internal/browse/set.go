package browse

import (
	"sort"

	"github.com/goccy/go-json"
)

// Set is a set of strings: category labels or recipe titles.
type Set map[string]struct{}

func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Toggle flips membership of v and reports whether v is now a member.
func (s Set) Toggle(v string) bool {
	if s.Has(v) {
		delete(s, v)
		return false
	}
	s[v] = struct{}{}
	return true
}

func (s Set) set(v string, on bool) {
	if on {
		s[v] = struct{}{}
		return
	}
	delete(s, v)
}

func (s Set) Len() int { return len(s) }

func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *Set) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = NewSet(items...)
	return nil
}
