package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"koken/internal/recipe"
)

// Dir loads recipes from the JSON documents directly inside Root, for
// working on a local checkout of the collection.
type Dir struct {
	Root      string
	Extension string
	Limit     int
}

func (d Dir) Name() string { return d.Root }

func (d Dir) Fetch(ctx context.Context) ([]recipe.RawRecord, error) {
	entries, err := os.ReadDir(d.Root)
	if err != nil {
		return nil, &LoadError{Op: "list", Ref: d.Root, Err: err}
	}

	var refs []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), d.Extension) {
			continue
		}
		refs = append(refs, filepath.Join(d.Root, e.Name()))
	}

	return fetchAll(ctx, refs, d.Limit, func(ctx context.Context, path string) (recipe.RawRecord, error) {
		if err := ctx.Err(); err != nil {
			return recipe.RawRecord{}, &LoadError{Op: "read", Ref: path, Err: err}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return recipe.RawRecord{}, &LoadError{Op: "read", Ref: path, Err: err}
		}
		var rec recipe.RawRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return recipe.RawRecord{}, &LoadError{Op: "read", Ref: path, Err: fmt.Errorf("decode: %w", err)}
		}
		return rec, nil
	})
}
