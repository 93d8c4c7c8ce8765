package storage

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/chronorag/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalChunk(t *testing.T) {
	tx := core.MakeWindow(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	record := &core.ChunkRecord{
		ChunkID:     "c1",
		DocID:       "d1",
		Text:        "Revenue rose.",
		URI:         "sec/10-k",
		Authority:   1,
		ValidWindow: core.YearWindow(2023, 2024),
		TxWindow:    &tx,
		Facets:      map[string]string{"domain": "finance"},
		Units:       []string{"percent"},
		Vector:      []float32{0.5, 0.5},
	}

	decoded, err := UnmarshalChunk(MarshalChunk(record))
	require.NoError(t, err)
	assert.Equal(t, record.ChunkID, decoded.ChunkID)
	assert.Equal(t, record.Text, decoded.Text)
	assert.Equal(t, record.Facets, decoded.Facets)
	assert.Equal(t, record.Units, decoded.Units)
	assert.Equal(t, record.Vector, decoded.Vector)
	require.NotNil(t, decoded.TxWindow)
	assert.True(t, tx.Start.Equal(decoded.TxWindow.Start))
	assert.True(t, record.ValidWindow.End.Equal(decoded.ValidWindow.End))
}

func TestMarshalUnmarshalDocument(t *testing.T) {
	doc := &core.DocumentRecord{DocID: "d1", Metadata: map[string]string{"uri": "x"}, ChunkIDs: []string{"a", "b"}}

	decoded, err := UnmarshalDocument(MarshalDocument(doc))
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

func TestUnmarshal_Invalid(t *testing.T) {
	_, err := UnmarshalChunk([]byte{0xff})
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalDocument(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalSnapshotMeta(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestSnapshotMeta(t *testing.T) {
	meta := SnapshotMeta{
		SavedAt:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		ChunkOrder: []string{"c2", "c1"},
	}
	decoded, err := UnmarshalSnapshotMeta(MarshalSnapshotMeta(meta))
	require.NoError(t, err)
	assert.Equal(t, meta, decoded)
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewMemoryCache()
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, cache.Set(ctx, "b", []byte("2"), 0))

	v, err := cache.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	now = now.Add(2 * time.Minute)
	_, err = cache.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	v, err = cache.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)

	require.NoError(t, cache.Clear(ctx))
	assert.Equal(t, 0, cache.Len())
	_, err = cache.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound)
}
