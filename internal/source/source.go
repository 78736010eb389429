// Package source fetches recipe documents. Every source loads all or
// nothing: a single failing document fails the whole load and no partial
// collection is returned.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"koken/internal/logging"
	"koken/internal/recipe"
	"koken/internal/storage"
)

// ErrLoad matches every load failure.
var ErrLoad = errors.New("load failed")

// LoadError reports which step of a load failed and for which reference.
type LoadError struct {
	Op  string
	Ref string
	Err error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Ref != "" {
		b.WriteString(" ")
		b.WriteString(e.Ref)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// Source yields the raw records of a recipe collection.
type Source interface {
	Fetch(ctx context.Context) ([]recipe.RawRecord, error)
	Name() string
}

// fetchAll runs get for every ref concurrently, at most limit at a time
// when limit > 0. The first error cancels the remaining fetches. Results
// keep the order of refs.
func fetchAll(ctx context.Context, refs []string, limit int, get func(context.Context, string) (recipe.RawRecord, error)) ([]recipe.RawRecord, error) {
	out := make([]recipe.RawRecord, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, ref := range refs {
		g.Go(func() error {
			r, err := get(gctx, ref)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Snapshot reads the collection saved by the last successful load.
type Snapshot struct {
	Store *storage.Store
}

func (s Snapshot) Name() string { return "snapshot" }

func (s Snapshot) Fetch(ctx context.Context) ([]recipe.RawRecord, error) {
	records, err := s.Store.LoadSnapshot(ctx)
	if err != nil {
		return nil, &LoadError{Op: "read snapshot", Err: err}
	}
	return records, nil
}

// Recording saves every successful load of Source to Store. A failed save
// is logged and does not fail the load.
type Recording struct {
	Source Source
	Store  *storage.Store
}

func (r Recording) Name() string { return r.Source.Name() }

func (r Recording) Fetch(ctx context.Context) ([]recipe.RawRecord, error) {
	records, err := r.Source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if r.Store == nil {
		return records, nil
	}
	if err := r.Store.SaveSnapshot(ctx, r.Source.Name(), records); err != nil {
		logging.Warn().Err(err).Str("source", r.Source.Name()).Msg("snapshot save failed")
		return records, nil
	}
	logging.Debug().Int("recipes", len(records)).Msg("snapshot saved")
	return records, nil
}

// Describe formats err for the single line shown in place of the list.
func Describe(err error) string {
	return fmt.Sprintf("failed to load recipes: %v", err)
}
