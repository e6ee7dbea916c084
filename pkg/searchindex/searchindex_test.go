package searchindex_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cabinetdb/cabinet/pkg/crypto"
	"github.com/cabinetdb/cabinet/pkg/searchindex"
)

func newTestIndex(t *testing.T, root string) *searchindex.Index {
	t.Helper()
	key := bytes.Repeat([]byte{0x11}, crypto.KeySize)
	provider, err := crypto.NewProvider(key)
	require.NoError(t, err)

	idx, err := searchindex.New(searchindex.Config{Root: root, Encryptor: provider})
	require.NoError(t, err)
	return idx
}

func TestIndexAndQueryRoundTrip(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, t.TempDir())

	require.NoError(t, idx.Index(ctx, "lesson-2025-10-27", "Observed seagulls at the beach", nil))

	hits, err := idx.Query(ctx, "seagulls")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "lesson-2025-10-27", hits[0].ID)
	assert.Greater(t, hits[0].Score, 0.0)

	empty, err := idx.Query(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestQueryRanksByOccurrenceCount(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, t.TempDir())

	require.NoError(t, idx.Index(ctx, "one", "seagull", nil))
	require.NoError(t, idx.Index(ctx, "two", "seagull seagull", nil))
	require.NoError(t, idx.Index(ctx, "three", "seagull seagull seagull", nil))
	require.NoError(t, idx.Index(ctx, "four", "one seagull two seagull", nil))

	hits, err := idx.Query(ctx, "seagull")
	require.NoError(t, err)
	require.Len(t, hits, 4)

	scoreByID := make(map[string]float64, len(hits))
	for _, h := range hits {
		scoreByID[h.ID] = h.Score
	}

	assert.Greater(t, scoreByID["three"], scoreByID["two"])
	assert.Greater(t, scoreByID["two"], scoreByID["one"])
	assert.Greater(t, scoreByID["four"], scoreByID["one"])
	assert.Equal(t, scoreByID["one"], scoreByID["one"])

	// hits ordered score descending
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestShortTokensContributeNothing(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, t.TempDir())

	require.NoError(t, idx.Index(ctx, "a", "A seagull at the beach", nil))

	hits, err := idx.Query(ctx, "at to in")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndexPersistsAcrossFreshConstruction(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	key := bytes.Repeat([]byte{0x22}, crypto.KeySize)
	provider, err := crypto.NewProvider(key)
	require.NoError(t, err)

	idx1, err := searchindex.New(searchindex.Config{Root: root, Encryptor: provider})
	require.NoError(t, err)
	require.NoError(t, idx1.Index(ctx, "rec-1", "durable content about seagulls", nil))

	idx2, err := searchindex.New(searchindex.Config{Root: root, Encryptor: provider})
	require.NoError(t, err)

	hits1, err := idx1.Query(ctx, "seagulls")
	require.NoError(t, err)
	hits2, err := idx2.Query(ctx, "seagulls")
	require.NoError(t, err)

	require.Len(t, hits1, 1)
	require.Len(t, hits2, 1)
	assert.Equal(t, hits1[0].ID, hits2[0].ID)
	assert.Equal(t, hits1[0].Score, hits2[0].Score)
}

func TestClearEmptiesIndexAndRemovesFile(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	idx := newTestIndex(t, root)

	require.NoError(t, idx.Index(ctx, "rec-1", "seagull content", nil))
	require.NoError(t, idx.Clear(ctx))

	_, err := os.Stat(filepath.Join(root, "search-index.dat"))
	assert.True(t, os.IsNotExist(err))

	hits, err := idx.Query(ctx, "seagull")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestQueryIsDeterministicAcrossCalls(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, t.TempDir())

	require.NoError(t, idx.Index(ctx, "a", "seagull seagull", nil))
	require.NoError(t, idx.Index(ctx, "b", "seagull", nil))

	first, err := idx.Query(ctx, "seagull")
	require.NoError(t, err)
	second, err := idx.Query(ctx, "seagull")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
