package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkRecordMUS(t *testing.T) {
	tx := MakeWindow(ParseDate("2006-01-01"), ParseDate("2007-03-01"))
	sigma := 90
	chunk := ChunkRecord{
		ChunkID:         "abc",
		DocID:           "oecd-maddison:world_economy:v2006",
		Text:            "Western Europe GDP per capita reached 1,974 1990 international dollars in 1870.",
		URI:             "https://oecd.org/maddison",
		Authority:       0.8,
		ValidWindow:     YearWindow(1870, 1871),
		TxWindow:        &tx,
		ExternalID:      "we:1870:weu",
		VersionID:       "rev-7",
		Facets:          map[string]string{"domain": DomainWorldEconomy, "locale": "en"},
		Entities:        []string{"GDP", "Region:Western Europe"},
		Tags:            []string{"world-economy"},
		Units:           []string{"intl_1990_usd", "ratio"},
		TimeGranularity: "year",
		TimeSigmaDays:   &sigma,
		Vector:          []float32{0.5, -0.25, 0.125},
		Extra:           map[string]string{"status": "final"},
	}

	buf := make([]byte, ChunkRecordMUS.Size(chunk))
	n := ChunkRecordMUS.Marshal(chunk, buf)
	assert.Equal(t, len(buf), n)

	got, read, err := ChunkRecordMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, n, read)
	assert.Equal(t, chunk.ChunkID, got.ChunkID)
	assert.Equal(t, chunk.Text, got.Text)
	assert.True(t, chunk.ValidWindow.Start.Equal(got.ValidWindow.Start))
	assert.True(t, chunk.ValidWindow.End.Equal(got.ValidWindow.End))
	require.NotNil(t, got.TxWindow)
	assert.True(t, tx.End.Equal(got.TxWindow.End))
	require.NotNil(t, got.TimeSigmaDays)
	assert.Equal(t, 90, *got.TimeSigmaDays)
	assert.Equal(t, chunk.Facets, got.Facets)
	assert.Equal(t, chunk.Units, got.Units)
	assert.Equal(t, chunk.Vector, got.Vector)

	t.Run("absent optionals stay absent", func(t *testing.T) {
		bare := ChunkRecord{ChunkID: "x", DocID: "d", Text: "t", ValidWindow: YearWindow(1, 2100)}
		buf := make([]byte, ChunkRecordMUS.Size(bare))
		ChunkRecordMUS.Marshal(bare, buf)
		got, _, err := ChunkRecordMUS.Unmarshal(buf)
		require.NoError(t, err)
		assert.Nil(t, got.TxWindow)
		assert.Nil(t, got.TimeSigmaDays)
		assert.True(t, got.ValidWindow.Start.Equal(bare.ValidWindow.Start))
	})

	t.Run("decoded times are utc", func(t *testing.T) {
		assert.Equal(t, time.UTC, got.ValidWindow.Start.Location())
		assert.Equal(t, time.UTC, got.TxWindow.End.Location())
	})

	t.Run("skip consumes the whole record", func(t *testing.T) {
		skipped, err := ChunkRecordMUS.Skip(buf)
		require.NoError(t, err)
		assert.Equal(t, n, skipped)
	})

	t.Run("truncated input errors", func(t *testing.T) {
		_, _, err := ChunkRecordMUS.Unmarshal(buf[:len(buf)/2])
		assert.Error(t, err)
	})
}

func TestDocumentRecordMUS(t *testing.T) {
	doc := DocumentRecord{
		DocID:    "d1",
		Metadata: map[string]string{"page_title": "Maddison"},
		ChunkIDs: []string{"c1", "c2"},
	}
	buf := make([]byte, DocumentRecordMUS.Size(doc))
	DocumentRecordMUS.Marshal(doc, buf)
	got, _, err := DocumentRecordMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}
