package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/chronorag/core"
	"github.com/poiesic/chronorag/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "nested", "db")
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	defer backend.Close()

	info, err := os.Stat(tmpDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_NotADirectory(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(tmpFile, []byte("x"), 0o644))

	_, err := OpenBackend(tmpFile, false)
	assert.Error(t, err)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	err = NewCache(backend).Set(context.Background(), "k", []byte("v"), 0)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func sampleSnapshot() *storage.Snapshot {
	tx := core.MakeWindow(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	return &storage.Snapshot{
		Documents: []*core.DocumentRecord{
			{DocID: "d1", Metadata: map[string]string{"uri": "a"}, ChunkIDs: []string{"c2", "c1"}},
		},
		Chunks: []*core.ChunkRecord{
			{ChunkID: "c2", DocID: "d1", Text: "second id, first ingested", ValidWindow: core.YearWindow(2020, 2021), ExternalID: "e1"},
			{ChunkID: "c1", DocID: "d1", Text: "later", ValidWindow: core.YearWindow(2021, 2022), TxWindow: &tx, ExternalID: "e1"},
		},
		ExternalIndex: map[string]string{"e1": "c1"},
	}
}

func TestSnapshotStore_RoundTrip(t *testing.T) {
	snaps, _, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	_, err = snaps.LoadSnapshot(ctx)
	assert.ErrorIs(t, err, storage.ErrSnapshotNotFound)

	fixed := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	snaps.now = func() time.Time { return fixed }

	in := sampleSnapshot()
	require.NoError(t, snaps.SaveSnapshot(ctx, in))
	assert.Equal(t, fixed, in.SavedAt)

	out, err := snaps.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, out.Chunks, 2)
	assert.Equal(t, "c2", out.Chunks[0].ChunkID)
	assert.Equal(t, "c1", out.Chunks[1].ChunkID)
	require.NotNil(t, out.Chunks[1].TxWindow)
	require.Len(t, out.Documents, 1)
	assert.Equal(t, []string{"c2", "c1"}, out.Documents[0].ChunkIDs)
	assert.Equal(t, map[string]string{"e1": "c1"}, out.ExternalIndex)
	assert.Equal(t, fixed, out.SavedAt)
}

func TestSnapshotStore_ReplacesStaleKeys(t *testing.T) {
	snaps, _, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	require.NoError(t, snaps.SaveSnapshot(ctx, sampleSnapshot()))
	require.NoError(t, snaps.SaveSnapshot(ctx, &storage.Snapshot{}))

	out, err := snaps.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, out.Chunks)
	assert.Empty(t, out.Documents)
	assert.Empty(t, out.ExternalIndex)
}

func TestCache(t *testing.T) {
	_, cache, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	_, err = cache.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, cache.Set(ctx, "freshness:GDP", []byte(`{"epoch":1}`), time.Hour))
	v, err := cache.Get(ctx, "freshness:GDP")
	require.NoError(t, err)
	assert.Equal(t, `{"epoch":1}`, string(v))

	require.NoError(t, cache.Clear(ctx))
	_, err = cache.Get(ctx, "freshness:GDP")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCache_ClearKeepsSnapshot(t *testing.T) {
	snaps, cache, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	require.NoError(t, snaps.SaveSnapshot(ctx, sampleSnapshot()))
	require.NoError(t, cache.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, cache.Clear(ctx))

	out, err := snaps.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, out.Chunks, 2)
}
