package pvdb

import "github.com/poiesic/chronorag/core"

// ChunkInput carries everything needed to create a chunk.
type ChunkInput struct {
	Text        string
	URI         string
	ValidWindow core.TimeWindow
	TxWindow    *core.TimeWindow
	Authority   float64

	// Metadata is merged into the owning document and kept on the chunk as Extra.
	Metadata map[string]string

	// DocID defaults to a hash of URI.
	DocID      string
	ExternalID string
	VersionID  string

	Facets          map[string]string
	Entities        []string
	Tags            []string
	Units           []string
	TimeGranularity string
	TimeSigmaDays   *int

	// Vector skips embedding when set.
	Vector []float32
}

// ScoredChunk is a chunk with a similarity score.
type ScoredChunk struct {
	Chunk *core.ChunkRecord
	Score float64
}

// WeightedChunk is a chunk that survived temporal filtering, with its time weight.
type WeightedChunk struct {
	Chunk  *core.ChunkRecord
	Weight float64
}
