// Package searchindex implements the Index Provider: a persistent,
// encrypted inverted index mapping tokens to scored record identifiers,
// lazily loaded on first use and eagerly re-persisted on every mutation.
//
// Grounded on pkg/fuse/encrypted_index.go's lazy-load-under-lock pattern
// (an "initialized" flag checked and set under a mutex, falling back to an
// empty structure on load failure) and pkg/search/indexer.go's tokenize/
// score shape, adapted from bleve-backed indexing to this package's
// deterministic substring-occurrence scoring formula and single-ciphertext-
// file persistence, per DESIGN.md's decision not to adopt bleve.
package searchindex

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"go.uber.org/zap"

	"github.com/cabinetdb/cabinet/internal/diagnostics"
	"github.com/cabinetdb/cabinet/pkg/atomicfile"
	cabinetErrors "github.com/cabinetdb/cabinet/pkg/errors"
	"github.com/cabinetdb/cabinet/pkg/model"
)

const (
	indexFileName  = "search-index.dat"
	aadContext     = "search-index"
	minTokenLength = 2 // tokens of length <= 2 contribute nothing to scoring
	scoreWeight    = 10.0
	bloomFPRate    = 0.01
)

// Encryptor is the capability the Index Provider needs from the Encryption
// Provider.
type Encryptor interface {
	Encrypt(ctx context.Context, plaintext []byte, aadContext string) ([]byte, error)
	Decrypt(ctx context.Context, envelope []byte, aadContext string) ([]byte, error)
}

type state int

const (
	stateUninitialized state = iota
	stateReady
)

// Config configures an Index.
type Config struct {
	Root      string
	Encryptor Encryptor
	Reporter  *diagnostics.Reporter
	Logger    *zap.SugaredLogger
}

// Index is the Index Provider. The zero value is not usable; construct with
// New. All exported methods are safe for concurrent use: a single mutex
// serializes every index/query/clear call, per spec.
type Index struct {
	mu    sync.Mutex
	state state

	path   string
	enc    Encryptor
	writer *atomicfile.Writer

	entries map[string]model.IndexEntry
	filters map[string]*bloom.BloomFilter // per-entry trigram filter keyed by id, derived, never persisted

	reporter *diagnostics.Reporter
	logger   *zap.SugaredLogger
}

// New constructs an Index Provider rooted at cfg.Root. Construction only
// sweeps stale ".tmp" files under cfg.Root; the index file is not read until
// the first Index, Query, or Clear call (lazy load).
func New(cfg Config) (*Index, error) {
	if cfg.Root == "" {
		return nil, cabinetErrors.NewRequiredFieldError("root")
	}
	if cfg.Encryptor == nil {
		return nil, cabinetErrors.NewRequiredFieldError("encryptor")
	}

	writer, err := atomicfile.NewWriter(cfg.Root)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Index{
		path:     cfg.Root + "/" + indexFileName,
		enc:      cfg.Encryptor,
		writer:   writer,
		entries:  make(map[string]model.IndexEntry),
		reporter: cfg.Reporter,
		logger:   logger,
	}, nil
}

// ensureInitialized loads the on-disk image under the lock, exactly once.
// Must be called with mu held.
func (idx *Index) ensureInitialized(ctx context.Context) {
	if idx.state == stateReady {
		return
	}
	idx.load(ctx)
	idx.state = stateReady
}

func (idx *Index) load(ctx context.Context) {
	if !idx.writer.Exists(idx.path) {
		return
	}

	envelope, err := idx.writer.Read(idx.path)
	if err != nil {
		idx.reportCorruption("failed to read index file", err)
		return
	}

	plaintext, err := idx.enc.Decrypt(ctx, envelope, aadContext)
	if err != nil {
		idx.reportCorruption("failed to decrypt index file; starting with empty index", err)
		return
	}

	var entries []model.IndexEntry
	if err := json.Unmarshal(plaintext, &entries); err != nil {
		idx.reportCorruption("failed to parse index file; starting with empty index", err)
		return
	}

	for _, e := range entries {
		idx.entries[e.ID] = e
	}
	idx.rebuildFilters()
}

func (idx *Index) reportCorruption(message string, cause error) {
	idx.logger.Warnw(message, "error", cause, "path", idx.path)
	idx.reporter.Report(diagnostics.Diagnostic{
		Severity: diagnostics.SeverityError,
		Source:   "searchindex",
		Message:  message,
		Cause:    cause,
	})
}

// Index overwrites the entry for id with the given content and metadata,
// then immediately re-serializes the full entry list and atomically writes
// the new ciphertext. Persistence is eager; there is no batched flush.
func (idx *Index) Index(ctx context.Context, id, content string, metadata map[string]string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	select {
	case <-ctx.Done():
		return cabinetErrors.ErrCancelled
	default:
	}

	idx.ensureInitialized(ctx)

	idx.entries[id] = model.IndexEntry{
		ID:                id,
		NormalizedContent: strings.ToLower(content),
		Metadata:          metadata,
		CreatedAt:         time.Now().UTC(),
	}
	idx.rebuildFilters()

	return idx.persist(ctx)
}

// Query normalizes and tokenizes queryText, scores every entry against the
// resulting term set, and returns hits with a positive score ordered by
// score descending, ties ordered by identifier.
func (idx *Index) Query(ctx context.Context, queryText string) ([]model.SearchResult, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, cabinetErrors.ErrCancelled
	default:
	}

	idx.ensureInitialized(ctx)

	terms := tokenize(queryText)
	if len(terms) == 0 {
		return nil, nil
	}

	results := make([]model.SearchResult, 0, len(idx.entries))
	for id, entry := range idx.entries {
		score := idx.scoreEntry(id, entry, terms)
		if score > 0 {
			results = append(results, model.SearchResult{
				ID:    id,
				Score: score,
				Header: model.RecordHeader{
					ID:        entry.ID,
					CreatedAt: entry.CreatedAt,
					Metadata:  entry.Metadata,
				},
			})
		}
	}

	sortByScoreDescending(results)
	return results, nil
}

// scoreEntry computes score(entry) = sum over matching terms of
// 10*ln(1+occurrences). The bloom filter is consulted first as a pure
// performance fast path, using trigram containment: since a term can occur
// anywhere in the content (matching is not whitespace-bounded), the filter
// stores every 3-byte substring ("trigram") of the content rather than
// whole tokens. If any trigram of a term is absent from the filter, the
// term cannot occur in the content - a true negative - and the exact scan
// is skipped. A term whose every trigram is present still gets the exact
// substring count, so the filter can only produce false positives, never
// false negatives, and so can never change which entries score positively.
func (idx *Index) scoreEntry(id string, entry model.IndexEntry, terms []string) float64 {
	filter := idx.filters[id]
	var score float64
	for _, term := range terms {
		if filter != nil && !termMayOccur(filter, term) {
			continue
		}
		occurrences := countNonOverlapping(entry.NormalizedContent, term)
		if occurrences > 0 {
			score += scoreWeight * math.Log(1+float64(occurrences))
		}
	}
	return score
}

const trigramSize = 3

// termMayOccur reports whether every trigram of term is present in the
// filter. Terms shorter than trigramSize are always reported as possibly
// occurring, since they have no trigram of their own to test.
func termMayOccur(filter *bloom.BloomFilter, term string) bool {
	if len(term) < trigramSize {
		return true
	}
	for i := 0; i+trigramSize <= len(term); i++ {
		if !filter.Test([]byte(term[i : i+trigramSize])) {
			return false
		}
	}
	return true
}

// Clear empties the in-memory map, re-serializes (producing
// an empty list), then deletes the on-disk file. After Clear, Query returns
// empty until the next Index call.
func (idx *Index) Clear(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	select {
	case <-ctx.Done():
		return cabinetErrors.ErrCancelled
	default:
	}

	idx.ensureInitialized(ctx)

	idx.entries = make(map[string]model.IndexEntry)
	idx.filters = nil

	if err := idx.persist(ctx); err != nil {
		return err
	}

	return idx.writer.Remove(idx.path)
}

// persist re-serializes the full entry list and atomically writes the new
// ciphertext. Must be called with mu held.
func (idx *Index) persist(ctx context.Context) error {
	entries := make([]model.IndexEntry, 0, len(idx.entries))
	for _, e := range idx.entries {
		entries = append(entries, e)
	}

	plaintext, err := json.Marshal(entries)
	if err != nil {
		return cabinetErrors.NewSerializationError(err, "failed to serialize index entries").WithTargetType("[]model.IndexEntry")
	}

	select {
	case <-ctx.Done():
		return cabinetErrors.ErrCancelled
	default:
	}

	envelope, err := idx.enc.Encrypt(ctx, plaintext, aadContext)
	if err != nil {
		return err
	}

	return idx.writer.Write(idx.path, envelope)
}

func (idx *Index) rebuildFilters() {
	filters := make(map[string]*bloom.BloomFilter, len(idx.entries))
	for id, entry := range idx.entries {
		content := entry.NormalizedContent
		trigramCount := len(content) + 1
		filter := bloom.NewWithEstimates(uint(trigramCount), bloomFPRate)
		for i := 0; i+trigramSize <= len(content); i++ {
			filter.Add([]byte(content[i : i+trigramSize]))
		}
		filters[id] = filter
	}
	idx.filters = filters
}

func tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) <= minTokenLength {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

// countNonOverlapping counts non-overlapping occurrences of pattern in s,
// advancing past each hit by len(pattern) - this matches reference
// behaviour and is NOT whitespace-bounded word matching.
func countNonOverlapping(s, pattern string) int {
	if pattern == "" {
		return 0
	}
	count := 0
	for {
		i := strings.Index(s, pattern)
		if i < 0 {
			break
		}
		count++
		s = s[i+len(pattern):]
	}
	return count
}

func sortByScoreDescending(results []model.SearchResult) {
	// insertion sort is adequate at this scale (tens of thousands of
	// records at most, per spec's size ceiling). Ties are ordered by
	// identifier, so repeated queries return the same order even though
	// results are gathered from a map.
	for i := 1; i < len(results); i++ {
		j := i
		for j > 0 && (results[j-1].Score < results[j].Score ||
			(results[j-1].Score == results[j].Score && results[j-1].ID > results[j].ID)) {
			results[j-1], results[j] = results[j], results[j-1]
			j--
		}
	}
}
