package heuristic

import (
	"context"
	"strings"

	"github.com/poiesic/chronorag/ai"
)

// OverlapCrossEncoder scores a passage by how many of its whitespace tokens
// also appear in the query, at 0.1 per token and capped at 1.
type OverlapCrossEncoder struct{}

// NewOverlapCrossEncoder returns the token-overlap reranker.
func NewOverlapCrossEncoder() ai.CrossEncoder {
	return OverlapCrossEncoder{}
}

func (OverlapCrossEncoder) Name() string { return "overlap-cross-encoder" }

func (OverlapCrossEncoder) Ready(context.Context) error { return nil }

// Rerank counts repeated passage tokens once per occurrence.
func (OverlapCrossEncoder) Rerank(_ context.Context, query string, passages []string) ([]ai.RerankScore, error) {
	terms := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		terms[tok] = struct{}{}
	}
	scores := make([]ai.RerankScore, len(passages))
	for i, passage := range passages {
		overlap := 0
		for _, tok := range strings.Fields(strings.ToLower(passage)) {
			if _, ok := terms[tok]; ok {
				overlap++
			}
		}
		scores[i] = ai.RerankScore{Index: i, Score: min(1.0, 0.1*float64(overlap))}
	}
	return scores, nil
}
