package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cabinetdb/cabinet/internal/diagnostics"
	"github.com/cabinetdb/cabinet/internal/watch"
)

func TestWatcherReportsFileWrite(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	reporter := diagnostics.NewReporter(8)

	w, err := watch.New(ctx, dir, reporter, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "probe.dat"), []byte("data"), 0o600))

	select {
	case d := <-reporter.C():
		require.Equal(t, "watch", d.Source)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a diagnostic for the out-of-band write")
	}
}

func TestWatcherCloseStopsReporting(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	reporter := diagnostics.NewReporter(8)

	w, err := watch.New(ctx, dir, reporter, nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	// A write after Close must not panic the now-stopped watch loop.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "probe.dat"), []byte("data"), 0o600))
	time.Sleep(50 * time.Millisecond)
}

func TestNewRejectsMissingDirectory(t *testing.T) {
	ctx := context.Background()
	_, err := watch.New(ctx, filepath.Join(t.TempDir(), "does-not-exist"), nil, nil)
	require.Error(t, err)
}
