package cabinet_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cabinetdb/cabinet/pkg/cabinet"
	"github.com/cabinetdb/cabinet/pkg/crypto"
)

type lesson struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, crypto.KeySize)
}

// Scenario A from spec.md §8.
func TestScenarioA_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	e, err := cabinet.Open(ctx, root, testKey(0xA1))
	require.NoError(t, err)
	defer e.Close()

	in := lesson{Subject: "Science", Description: "Observed seagulls at the beach"}
	require.NoError(t, e.Save(ctx, "lesson-2025-10-27", in))

	raw, err := os.ReadFile(filepath.Join(root, "records", "lesson-2025-10-27.dat"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Science")
	assert.NotContains(t, string(raw), "seagulls")

	var out lesson
	found, err := e.Load(ctx, "lesson-2025-10-27", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)
}

// Scenario B from spec.md §8.
func TestScenarioB_FindAfterSave(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	e, err := cabinet.Open(ctx, root, testKey(0xB1))
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.Save(ctx, "lesson-2025-10-27", lesson{Subject: "Science", Description: "Observed seagulls at the beach"}))

	hits, err := e.Find(ctx, "seagulls")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "lesson-2025-10-27", hits[0].ID)
	assert.Greater(t, hits[0].Score, 0.0)

	none, err := e.Find(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, none)
}

// Scenario E from spec.md §8.
func TestScenarioE_KeyIsolationAcrossConstructions(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	e1, err := cabinet.Open(ctx, root, testKey(0xE1))
	require.NoError(t, err)
	require.NoError(t, e1.Save(ctx, "rec-1", lesson{Subject: "secret"}))
	require.NoError(t, e1.Close())

	e2, err := cabinet.Open(ctx, root, testKey(0xE2))
	require.NoError(t, err)
	defer e2.Close()

	var out lesson
	_, err = e2.Load(ctx, "rec-1", &out)
	require.Error(t, err)
}

// Scenario F from spec.md §8: an aggregate record holding a sequence of
// values, where the query matches content shared across the whole file.
func TestScenarioF_AggregateSearch(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	e, err := cabinet.Open(ctx, root, testKey(0xF1))
	require.NoError(t, err)
	defer e.Close()

	type named struct {
		Name string `json:"name"`
	}
	bundle := []named{{Name: "A-bundle-content"}, {Name: "B-bundle-content"}, {Name: "C-bundle-content"}}
	require.NoError(t, e.Save(ctx, "bundle", bundle))

	results, err := cabinet.FindTyped[named](ctx, e, "bundle-content")
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, "bundle", r.ID)
	}
}

func TestDeleteThenLoadReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	e, err := cabinet.Open(ctx, root, testKey(0xD1))
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.Save(ctx, "rec-1", lesson{Subject: "x"}))
	require.NoError(t, e.Delete(ctx, "rec-1"))

	var out lesson
	found, err := e.Load(ctx, "rec-1", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	e, err := cabinet.Open(ctx, root, testKey(0xD2))
	require.NoError(t, err)
	defer e.Close()

	assert.NoError(t, e.Delete(ctx, "never-existed"))
}

func TestClearIndexEmptiesSearchResults(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	e, err := cabinet.Open(ctx, root, testKey(0xC1))
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.Save(ctx, "rec-1", lesson{Subject: "Science", Description: "seagull content"}))
	require.NoError(t, e.ClearIndex(ctx))

	hits, err := e.Find(ctx, "seagull")
	require.NoError(t, err)
	assert.Empty(t, hits)
}
