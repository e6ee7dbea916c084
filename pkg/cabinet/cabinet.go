// Package cabinet provides Engine, the top-level entry point that wires the
// Encryption Provider, Record Store, Index Provider, and Search Coordinator
// into the public API: Save, Load, Delete, Find, FindTyped.
//
// Grounded on pkg/ignite/ignite.go's Instance construction shape (a logger
// built once, default options overridden by functional OptionFuncs, an
// internal engine constructed from the merged config), adapted from
// ignite's key/value engine to this module's crypto+store+index+search
// pipeline.
package cabinet

import (
	"context"

	"go.uber.org/zap"

	"github.com/cabinetdb/cabinet/internal/diagnostics"
	"github.com/cabinetdb/cabinet/internal/watch"
	"github.com/cabinetdb/cabinet/pkg/crypto"
	cabinetErrors "github.com/cabinetdb/cabinet/pkg/errors"
	"github.com/cabinetdb/cabinet/pkg/model"
	"github.com/cabinetdb/cabinet/pkg/options"
	"github.com/cabinetdb/cabinet/pkg/search"
	"github.com/cabinetdb/cabinet/pkg/searchindex"
	"github.com/cabinetdb/cabinet/pkg/store"
)

// Engine is the embedded encrypted document store. Construct with Open.
type Engine struct {
	opts        options.Options
	provider    *crypto.Provider
	store       *store.Store
	index       *searchindex.Index
	coordinator *search.Coordinator
	reporter    *diagnostics.Reporter
	watcher     *watch.Watcher
	logger      *zap.SugaredLogger
}

// Open constructs an Engine rooted at root, encrypting every record with
// masterKey (exactly 32 bytes). Options customize logging, serialization,
// indexing, diagnostics, and the optional integrity watcher.
func Open(ctx context.Context, root string, masterKey []byte, opts ...options.OptionFunc) (*Engine, error) {
	cfg := options.NewDefaultOptions()
	cfg.RootDir = root
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.RootDir == "" {
		return nil, cabinetErrors.NewRequiredFieldError("root")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	provider, err := crypto.NewProvider(masterKey)
	if err != nil {
		return nil, err
	}

	reporter := diagnostics.NewReporter(cfg.DiagnosticsCapacity)

	var idx *searchindex.Index
	if cfg.IndexEnabled {
		idx, err = searchindex.New(searchindex.Config{
			Root:      cfg.RootDir + "/index",
			Encryptor: provider,
			Reporter:  reporter,
			Logger:    logger.Named("searchindex"),
		})
		if err != nil {
			return nil, err
		}
	}

	recordStore, err := store.Open(store.Config{
		Root:       cfg.RootDir,
		Encryptor:  provider,
		Index:      indexOrNil(idx),
		Serializer: cfg.Serializer,
		Reporter:   reporter,
		Logger:     logger.Named("store"),
	})
	if err != nil {
		return nil, err
	}

	coordinator := search.New(recordStore, logger.Named("search"))

	var watcher *watch.Watcher
	if cfg.IntegrityWatch {
		watcher, err = watch.New(ctx, cfg.RootDir, reporter, logger.Named("watch"))
		if err != nil {
			logger.Warnw("integrity watch could not be started", "error", err)
			watcher = nil
		}
	}

	logger.Infow("engine opened", "root", cfg.RootDir, "indexEnabled", cfg.IndexEnabled, "integrityWatch", cfg.IntegrityWatch)

	return &Engine{
		opts:        cfg,
		provider:    provider,
		store:       recordStore,
		index:       idx,
		coordinator: coordinator,
		reporter:    reporter,
		watcher:     watcher,
		logger:      logger,
	}, nil
}

// indexOrNil returns a nil store.Indexer when idx is nil; a typed-nil
// *searchindex.Index assigned directly to an interface would be non-nil,
// which would make store.Store believe indexing is enabled.
func indexOrNil(idx *searchindex.Index) store.Indexer {
	if idx == nil {
		return nil
	}
	return idx
}

// Save persists value under id, encrypting it and any attachments, and
// updates the search index if one is configured.
func (e *Engine) Save(ctx context.Context, id string, value any, attachments ...model.Attachment) error {
	return e.store.Save(ctx, id, value, attachments...)
}

// Load decrypts and deserializes the record stored under id into target.
// found is false when no record exists for id.
func (e *Engine) Load(ctx context.Context, id string, target any) (found bool, err error) {
	return e.store.Load(ctx, id, target)
}

// Delete removes the record and attachments stored under id. Its index
// entry, if any, is left in place (see DESIGN.md).
func (e *Engine) Delete(ctx context.Context, id string) error {
	return e.store.Delete(ctx, id)
}

// Find returns untyped search hits for query.
func (e *Engine) Find(ctx context.Context, query string) ([]model.SearchResult, error) {
	return e.store.Find(ctx, query)
}

// FindTyped returns typed search hits for query, expanding aggregate
// records (a single identifier whose payload is a sequence of values) into
// one result per element.
func FindTyped[T any](ctx context.Context, e *Engine, query string) ([]model.TypedSearchResult[T], error) {
	return search.FindTyped[T](ctx, e.coordinator, query)
}

// Diagnostics returns the channel on which recoverable anomalies - swallowed
// index corruption, out-of-band filesystem events when the integrity
// watcher is enabled - are reported. The channel is never closed while the
// Engine is open; a full channel drops the newest diagnostic rather than
// blocking the operation that triggered it.
func (e *Engine) Diagnostics() <-chan diagnostics.Diagnostic {
	return e.reporter.C()
}

// ClearIndex empties the search index and removes its on-disk file. A no-op
// if indexing is disabled.
func (e *Engine) ClearIndex(ctx context.Context) error {
	if e.index == nil {
		return nil
	}
	return e.index.Clear(ctx)
}

// Close releases the Engine's resources: the integrity watcher if running,
// the diagnostics reporter, and the master key material.
func (e *Engine) Close() error {
	var watchErr error
	if e.watcher != nil {
		watchErr = e.watcher.Close()
	}
	e.reporter.Close()
	e.provider.Close()
	e.logger.Infow("engine closed")
	return watchErr
}
