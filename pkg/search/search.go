// Package search implements the Search Coordinator: it lifts the Index
// Provider's identifier-level hits into typed results by loading and
// deserializing each hit's record, including the "aggregate file" case
// where a single identifier's payload is a sequence of values.
//
// Grounded on pkg/core/search/search_coordinator.go's role as the glue
// between index lookups and record materialization, reduced to this
// package's narrower two-phase dispatch (single value, then
// sequence-of-values) and generalized with Go generics in place of the
// teacher's privacy-specific result shapes.
package search

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/cabinetdb/cabinet/pkg/model"
	"github.com/cabinetdb/cabinet/pkg/store"
)

// Loader is the capability the Search Coordinator needs from the Record
// Store: index lookup and raw-plaintext per-hit loading.
type Loader interface {
	Find(ctx context.Context, query string) ([]model.SearchResult, error)
	LoadRaw(ctx context.Context, id string) ([]byte, bool, error)
	Serializer() store.Serializer
}

// Coordinator materializes typed search results from an untyped index
// query.
type Coordinator struct {
	loader Loader
	logger *zap.SugaredLogger
}

// New constructs a Coordinator over the given Loader (typically a
// *store.Store).
func New(loader Loader, logger *zap.SugaredLogger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Coordinator{loader: loader, logger: logger}
}

// FindTyped runs query against the Index Provider, then for every hit loads
// and deserializes its record: first as a single value of type T, falling
// back to a sequence of T on shape mismatch, emitting one result per
// element of the sequence. A hit that deserializes as neither shape is
// skipped silently. Loads for distinct hits proceed concurrently; the
// returned order is not required to preserve index ranking once aggregate
// hits are expanded.
func FindTyped[T any](ctx context.Context, c *Coordinator, query string) ([]model.TypedSearchResult[T], error) {
	hits, err := c.loader.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []model.TypedSearchResult[T]
	)

	for _, hit := range hits {
		wg.Add(1)
		go func(hit model.SearchResult) {
			defer wg.Done()
			materialized := materialize[T](ctx, c, hit)
			if len(materialized) == 0 {
				return
			}
			mu.Lock()
			results = append(results, materialized...)
			mu.Unlock()
		}(hit)
	}
	wg.Wait()

	return results, nil
}

// materialize implements the dual-deserialization dispatch for one hit:
// attempt a single T, then fall back to []T. It never returns an error; a
// double failure yields a nil slice so the caller drops the hit silently.
func materialize[T any](ctx context.Context, c *Coordinator, hit model.SearchResult) []model.TypedSearchResult[T] {
	plaintext, found, err := c.loader.LoadRaw(ctx, hit.ID)
	if err != nil || !found {
		if err != nil {
			c.logger.Debugw("search hit skipped: load failed", "id", hit.ID, "error", err)
		}
		return nil
	}

	var single T
	if err := c.loader.Serializer().Unmarshal(plaintext, &single); err == nil {
		return []model.TypedSearchResult[T]{{
			ID:     hit.ID,
			Score:  hit.Score,
			Header: hit.Header,
			Value:  single,
		}}
	}

	var sequence []T
	if err := c.loader.Serializer().Unmarshal(plaintext, &sequence); err == nil {
		results := make([]model.TypedSearchResult[T], 0, len(sequence))
		for _, v := range sequence {
			results = append(results, model.TypedSearchResult[T]{
				ID:     hit.ID,
				Score:  hit.Score,
				Header: hit.Header,
				Value:  v,
			})
		}
		return results
	}

	c.logger.Debugw("search hit skipped: deserialization failed for both single and sequence shapes", "id", hit.ID)
	return nil
}
