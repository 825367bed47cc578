package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func copyFixture(t *testing.T, name, dst string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dst, data, 0o644))
}

func TestStoreCachesSnapshot(t *testing.T) {
	dir := t.TempDir()
	dailyPath := filepath.Join(dir, "day.csv")
	hourlyPath := filepath.Join(dir, "hour.csv")
	copyFixture(t, "day.csv", dailyPath)
	copyFixture(t, "hour.csv", hourlyPath)

	store := NewStore(NewLoader(nil), dailyPath, hourlyPath, nil)

	first, err := store.Snapshot(context.Background())
	require.NoError(t, err)

	second, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second, "unchanged files should hit the cache")
}

func TestStoreReloadsOnModTimeChange(t *testing.T) {
	dir := t.TempDir()
	dailyPath := filepath.Join(dir, "day.csv")
	hourlyPath := filepath.Join(dir, "hour.csv")
	copyFixture(t, "day.csv", dailyPath)
	copyFixture(t, "hour.csv", hourlyPath)

	store := NewStore(NewLoader(nil), dailyPath, hourlyPath, nil)

	first, err := store.Snapshot(context.Background())
	require.NoError(t, err)

	// Bump the mtime well past filesystem timestamp granularity
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(dailyPath, future, future))

	second, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, second, "changed mtime should trigger a reload")
	assert.Len(t, second.Daily, len(first.Daily))
}

func TestStoreInvalidate(t *testing.T) {
	dir := t.TempDir()
	dailyPath := filepath.Join(dir, "day.csv")
	hourlyPath := filepath.Join(dir, "hour.csv")
	copyFixture(t, "day.csv", dailyPath)
	copyFixture(t, "hour.csv", hourlyPath)

	store := NewStore(NewLoader(nil), dailyPath, hourlyPath, nil)

	_, err := store.Snapshot(context.Background())
	require.NoError(t, err)

	store.Invalidate()

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap)
}

func TestStoreMissingFile(t *testing.T) {
	store := NewStore(NewLoader(nil), "nope/day.csv", "nope/hour.csv", nil)

	_, err := store.Snapshot(context.Background())
	require.Error(t, err)
}
