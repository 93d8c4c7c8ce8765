package chrono

import (
	"github.com/poiesic/chronorag/core"
	"github.com/poiesic/chronorag/retrieval"
)

// Passage is a retrieved chunk with the fields needed for chronological checks.
type Passage struct {
	ChunkID     string            `json:"chunk_id"`
	DocID       string            `json:"doc_id"`
	Text        string            `json:"text"`
	URI         string            `json:"uri"`
	ValidWindow core.TimeWindow   `json:"valid_window"`
	Authority   float64           `json:"authority"`
	Score       float64           `json:"score"`
	Facets      map[string]string `json:"facets,omitempty"`
	Entities    []string          `json:"entities,omitempty"`
	Units       []string          `json:"units,omitempty"`
	Region      string            `json:"region,omitempty"`
}

// PassagesFromResults adapts retrieval results, using the final score.
func PassagesFromResults(results []retrieval.Result) []Passage {
	out := make([]Passage, len(results))
	for i, r := range results {
		out[i] = Passage{
			ChunkID:     r.ChunkID,
			DocID:       r.DocID,
			Text:        r.Text,
			URI:         r.URI,
			ValidWindow: r.ValidWindow,
			Authority:   r.Authority,
			Score:       r.FinalScore,
			Facets:      r.Facets,
			Entities:    r.Entities,
			Units:       r.Units,
			Region:      r.Region,
		}
	}
	return out
}
