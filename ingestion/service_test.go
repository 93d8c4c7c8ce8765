package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/chronorag/ai/mock"
	"github.com/poiesic/chronorag/core"
	"github.com/poiesic/chronorag/index"
	"github.com/poiesic/chronorag/policy"
	"github.com/poiesic/chronorag/pvdb"
	"github.com/poiesic/chronorag/storage"
)

type fixture struct {
	store   *pvdb.Store
	index   *index.Index
	cache   *storage.MemoryCache
	service *Service
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	ix := index.New(mock.NewMockEmbedder())
	store := pvdb.New(ix)
	policies, err := policy.NewManager(nil)
	require.NoError(t, err)
	cache := storage.NewMemoryCache()

	opts = append([]Option{WithCache(cache), WithPoolSize(2)}, opts...)
	svc, err := New(store, policies, opts...)
	require.NoError(t, err)
	t.Cleanup(svc.Release)

	return &fixture{store: store, index: ix, cache: cache, service: svc}
}

func jsonl(t *testing.T, rows ...map[string]any) string {
	t.Helper()
	lines := make([]string, len(rows))
	for i, r := range rows {
		b, err := json.Marshal(r)
		require.NoError(t, err)
		lines[i] = string(b)
	}
	return strings.Join(lines, "\n")
}

func TestNewRequiresCollaborators(t *testing.T) {
	policies, err := policy.NewManager(nil)
	require.NoError(t, err)

	_, err = New(nil, policies)
	assert.ErrorIs(t, err, ErrStoreRequired)

	_, err = New(pvdb.New(index.New(mock.NewMockEmbedder())), nil)
	assert.ErrorIs(t, err, ErrPolicyRequired)

	_, err = New(pvdb.New(index.New(mock.NewMockEmbedder())), policies, WithRetry(0, time.Millisecond))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func TestIngestWorldEconomyRow(t *testing.T) {
	f := newFixture(t)
	payload := jsonl(t, map[string]any{
		"text":        "GDP per capita in Western Europe reached 1,232 (1990 international dollars).",
		"tags":        []string{"world-economy"},
		"year":        1870,
		"external_id": "we:weu:1870",
		"section":     "Population and GDP",
		"provenance":  map[string]any{"uri": "https://oecd.org/maddison/table-1"},
	})

	ids, err := f.service.Ingest(context.Background(), Request{Texts: []string{payload}})
	require.NoError(t, err)
	require.Len(t, ids, 1)

	chunk, err := f.store.Chunk(ids[0])
	require.NoError(t, err)

	assert.Equal(t, WorldEconomyDocID, chunk.DocID)
	assert.Equal(t, "https://oecd.org/maddison/table-1", chunk.URI)
	assert.Equal(t, core.YearWindow(1870, 1871), chunk.ValidWindow)
	assert.Nil(t, chunk.TxWindow)
	assert.Equal(t, "year", chunk.TimeGranularity)
	require.NotNil(t, chunk.TimeSigmaDays)
	assert.Equal(t, 90, *chunk.TimeSigmaDays)
	assert.Equal(t, 0.2, chunk.Authority)

	assert.Equal(t, core.DomainWorldEconomy, chunk.Facets["domain"])
	assert.Equal(t, "lab", chunk.Facets["tenant"])
	assert.Equal(t, "oecd-maddison", chunk.Facets["source"])

	for _, e := range []string{"GDP_PC", "GDP", "Population", "Region:Western Europe", "Region:Europe", "Dataset:OECD_MADDISON"} {
		assert.Contains(t, chunk.Entities, e)
	}
	assert.Equal(t, []string{UnitIntl1990USD, UnitRatio}, chunk.Units)
	assert.Equal(t, "Europe", chunk.Region())

	doc, err := f.store.Document(WorldEconomyDocID)
	require.NoError(t, err)
	assert.Equal(t, `{"uri":"https://oecd.org/maddison/table-1"}`, doc.Metadata["provenance"])
	assert.Equal(t, "we:weu:1870", doc.Metadata["external_id"])
}

func TestIngestStructuredDetails(t *testing.T) {
	t.Run("explicit windows and facets win", func(t *testing.T) {
		f := newFixture(t)
		payload := jsonl(t, map[string]any{
			"text":   "Acme appointed a new CEO.",
			"doc_id": "acme-roles",
			"uri":    "https://company.example/officers",
			"facets": map[string]any{"domain": "roles", "headcount": 12},
			"valid":  map[string]any{"from": "2019-04-01", "to": "2023-06-30", "sigma_days": 30},
			"tx":     map[string]any{"start": "2019-04-02", "revision_id": 7},
			"status": "final",
		})
		ids, err := f.service.Ingest(context.Background(), Request{Texts: []string{payload}})
		require.NoError(t, err)
		require.Len(t, ids, 1)

		chunk, err := f.store.Chunk(ids[0])
		require.NoError(t, err)
		assert.Equal(t, "acme-roles", chunk.DocID)
		assert.Equal(t, 0.8, chunk.Authority)
		assert.Equal(t, core.MakeWindow(core.ParseDate("2019-04-01"), core.ParseDate("2023-06-30")), chunk.ValidWindow)
		require.NotNil(t, chunk.TxWindow)
		assert.Equal(t, core.ParseDate("2019-04-02"), chunk.TxWindow.Start)
		assert.Equal(t, core.OpenEnd, chunk.TxWindow.End)
		assert.Equal(t, "7", chunk.VersionID)
		assert.Equal(t, "12", chunk.Facets["headcount"])
		assert.NotContains(t, chunk.Facets, "tenant")
		require.NotNil(t, chunk.TimeSigmaDays)
		assert.Equal(t, 30, *chunk.TimeSigmaDays)
		assert.Equal(t, []string{UnitUnknown}, chunk.Units)
		assert.Equal(t, "final", chunk.Extra["status"])
	})

	t.Run("row without dates is open from epoch", func(t *testing.T) {
		f := newFixture(t)
		ids, err := f.service.Ingest(context.Background(), Request{
			Texts: []string{jsonl(t, map[string]any{"text": "undated note"})},
		})
		require.NoError(t, err)
		chunk, err := f.store.Chunk(ids[0])
		require.NoError(t, err)
		assert.Equal(t, core.MakeWindow(core.EpochFallback, core.OpenEnd), chunk.ValidWindow)
		assert.Equal(t, "inline:0", chunk.URI)
		assert.Equal(t, core.DocIDFromURI("inline:0"), chunk.DocID)
	})

	t.Run("tx start falls back to valid start", func(t *testing.T) {
		f := newFixture(t)
		ids, err := f.service.Ingest(context.Background(), Request{
			Texts: []string{jsonl(t, map[string]any{
				"text":  "restated figures",
				"valid": map[string]any{"from": "2020-01-01"},
				"tx":    map[string]any{"end": "2021-01-01"},
			})},
		})
		require.NoError(t, err)
		chunk, err := f.store.Chunk(ids[0])
		require.NoError(t, err)
		require.NotNil(t, chunk.TxWindow)
		assert.Equal(t, core.YearWindow(2020, 2021), *chunk.TxWindow)
	})

	t.Run("revisions close lineage in order", func(t *testing.T) {
		f := newFixture(t)
		payload := jsonl(t,
			map[string]any{"text": "Q1 revenue 10", "external_id": "acme:q1", "tx": map[string]any{"start": "2024-04-01"}, "revision_id": "r1"},
			map[string]any{"text": "Q1 revenue 11 restated", "external_id": "acme:q1", "tx": map[string]any{"start": "2024-07-01"}, "revision_id": "r2"},
		)
		ids, err := f.service.Ingest(context.Background(), Request{Texts: []string{payload}})
		require.NoError(t, err)
		require.Len(t, ids, 2)

		first, err := f.store.Chunk(ids[0])
		require.NoError(t, err)
		require.NotNil(t, first.TxWindow)
		assert.Equal(t, core.ParseDate("2024-07-01"), first.TxWindow.End)
		assert.Equal(t, "r1", first.VersionID)
	})

	t.Run("ledger rows update document metadata", func(t *testing.T) {
		f := newFixture(t)
		payload := jsonl(t,
			map[string]any{"page_title": "The World Economy", "revision_id": 42, "sections": []string{"Intro", "Tables"}},
			map[string]any{"doc_id": "custom", "page_url": "https://example.org/p"},
			map[string]any{"unrelated": true},
		)
		ids, err := f.service.Ingest(context.Background(), Request{Texts: []string{payload}})
		require.NoError(t, err)
		assert.Empty(t, ids)

		doc, err := f.store.Document(WorldEconomyDocID)
		require.NoError(t, err)
		assert.Equal(t, "The World Economy", doc.Metadata["page_title"])
		assert.Equal(t, "42", doc.Metadata["revision_id"])
		assert.Equal(t, `["Intro","Tables"]`, doc.Metadata["sections"])

		custom, err := f.store.Document("custom")
		require.NoError(t, err)
		assert.Equal(t, "https://example.org/p", custom.Metadata["page_url"])
	})
}

func TestIngestUnstructured(t *testing.T) {
	f := newFixture(t)
	ids, err := f.service.Ingest(context.Background(), Request{
		Texts:      []string{"Press release dated 2021-03-04: revenue up 5%.\n{not json}"},
		Provenance: "press-wire",
	})
	require.NoError(t, err)
	require.Len(t, ids, 1)

	chunk, err := f.store.Chunk(ids[0])
	require.NoError(t, err)
	day := core.ParseDate("2021-03-04")
	assert.Equal(t, core.MakeWindow(day, core.OpenEnd), chunk.ValidWindow)
	require.NotNil(t, chunk.TxWindow)
	assert.Equal(t, core.MakeWindow(day, day.AddDate(0, 0, 1)), *chunk.TxWindow)
	assert.Equal(t, 0.6, chunk.Authority)
	assert.Equal(t, []string{UnitPercent}, chunk.Units)
	assert.Empty(t, chunk.Entities)
	assert.Equal(t, "press-wire", chunk.Extra["uri"])
}

func TestIngestPaths(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "maddison.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(jsonl(t,
		map[string]any{"text": "World population 1,041 million", "year": 1820},
	)+"\n\n"), 0o600))

	ids, err := f.service.Ingest(context.Background(), Request{
		Paths: []string{filepath.Join(dir, "absent.jsonl"), path},
		Texts: []string{"", "Blog post about the 1990s"},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	fromFile, err := f.store.Chunk(ids[0])
	require.NoError(t, err)
	assert.Equal(t, "maddison.jsonl", fromFile.URI)
	assert.Contains(t, fromFile.Entities, "Region:World")

	inline, err := f.store.Chunk(ids[1])
	require.NoError(t, err)
	assert.Equal(t, "inline:1", inline.URI)
	assert.False(t, f.store.Dirty(), "ingest should flush")
}

func TestFreshnessMarkers(t *testing.T) {
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	_, err := f.service.Ingest(ctx, Request{
		Texts:      []string{jsonl(t, map[string]any{"text": "U.S. GDP revised in annual filing"})},
		Provenance: "https://www.sec.gov/Archives/10-K",
	})
	require.NoError(t, err)

	raw, err := f.cache.Get(ctx, FreshnessKey("GDP"))
	require.NoError(t, err)
	var marker freshnessMarker
	require.NoError(t, json.Unmarshal(raw, &marker))
	assert.Equal(t, float64(clock.Unix()), marker.Epoch)
	assert.Equal(t, "https://www.sec.gov/Archives/10-K", marker.Trigger)

	_, err = f.cache.Get(ctx, FreshnessKey("Country:USA"))
	assert.NoError(t, err)

	t.Run("untriggered source writes nothing", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Ingest(ctx, Request{
			Texts:      []string{jsonl(t, map[string]any{"text": "GDP in France"})},
			Provenance: "https://example.org/wiki",
		})
		require.NoError(t, err)
		_, err = f.cache.Get(ctx, FreshnessKey("GDP"))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

type recordingEncoder struct {
	mu      sync.Mutex
	batches []int
	fail    error
}

func (r *recordingEncoder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	r.mu.Lock()
	r.batches = append(r.batches, len(texts))
	r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = index.Normalize(mock.DeterministicVector(text, mock.DefaultDimension))
	}
	return out, nil
}

func TestEmbeddingPrefetch(t *testing.T) {
	texts := []string{"one", "two", "three", "four", "five"}

	t.Run("batches on the pool", func(t *testing.T) {
		enc := &recordingEncoder{}
		f := newFixture(t, WithEncoder(enc), WithBatchSize(2))
		ids, err := f.service.Ingest(context.Background(), Request{Texts: texts})
		require.NoError(t, err)
		require.Len(t, ids, 5)

		slices.Sort(enc.batches)
		assert.Equal(t, []int{1, 2, 2}, enc.batches)
		for _, id := range ids {
			chunk, err := f.store.Chunk(id)
			require.NoError(t, err)
			assert.NotEmpty(t, chunk.Vector)
		}
		assert.Equal(t, 5, f.index.Len())
	})

	t.Run("failed batches fall back to the store", func(t *testing.T) {
		enc := &recordingEncoder{fail: errors.New("embedding host down")}
		f := newFixture(t, WithEncoder(enc), WithBatchSize(10), WithRetry(2, time.Millisecond))
		ids, err := f.service.Ingest(context.Background(), Request{Texts: texts})
		require.NoError(t, err)
		require.Len(t, ids, 5)
		assert.Equal(t, []int{5, 5}, enc.batches)
		assert.Equal(t, 5, f.index.Len())
	})
}

func TestDeriveEntities(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		sections     []string
		worldEconomy bool
		want         []string
	}{
		{
			name: "countries and indicators",
			text: "Per capita GDP in the United States and Japan",
			want: []string{"Country:JPN", "Country:USA", "GDP", "GDP_PC"},
		},
		{
			name:     "sections contribute",
			text:     "Table 3",
			sections: []string{"Population of Asia"},
			want:     []string{"Population", "Region:Asia"},
		},
		{
			name: "short codes need word boundaries",
			text: "Ukraine grain exports",
			want: nil,
		},
		{
			name:         "dataset tag",
			text:         "Post-war recovery",
			worldEconomy: true,
			want:         []string{"Dataset:OECD_MADDISON", "Region:Post-war"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveEntities(tt.text, tt.sections, tt.worldEconomy)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectUnits(t *testing.T) {
	assert.Equal(t, []string{UnitIntl1990USD}, DetectUnits("measured in 1990   International Dollars", false))
	assert.Equal(t, []string{UnitIntl1990USD}, DetectUnits("1990 intl. USD", false))
	assert.Equal(t, []string{UnitPercent, UnitRatio}, DetectUnits("debt ratio up 3 percent", false))
	assert.Equal(t, []string{UnitUnknown}, DetectUnits("GDP per-capita", false))
	assert.Equal(t, []string{UnitIntl1990USD, UnitRatio}, DetectUnits("GDP per-capita", true))
}

func TestAuthorityFromURI(t *testing.T) {
	tests := map[string]float64{
		"https://www.sec.gov/10-K":   1.0,
		"annual-FILING.pdf":          1.0,
		"https://regulator.example":  0.9,
		"official-statistics":        0.8,
		"company-site":               0.8,
		"https://news.example/story": 0.6,
		"personal-blog":              0.3,
		"inline:0":                   0.2,
	}
	for uri, want := range tests {
		assert.Equal(t, want, AuthorityFromURI(uri), uri)
	}
}
