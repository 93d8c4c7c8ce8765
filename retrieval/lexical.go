package retrieval

import (
	"cmp"
	"context"
	"slices"

	"github.com/hupe1980/vecgo/lexical/bm25"
	"github.com/hupe1980/vecgo/model"

	"github.com/poiesic/chronorag/core"
)

type lexicalHit struct {
	pos   int
	score float64
}

// lexicalSearch scores corpus against query with BM25 and returns the k best
// positions. Ties keep corpus order and zero-score chunks fill the result
// when fewer than k match.
func lexicalSearch(ctx context.Context, corpus []*core.ChunkRecord, query string, k int) ([]lexicalHit, error) {
	if len(corpus) == 0 || k <= 0 {
		return nil, nil
	}
	idx := bm25.New()
	defer idx.Close()
	for i, chunk := range corpus {
		if err := idx.Add(model.ID(i), chunk.Text); err != nil {
			return nil, err
		}
	}
	matches, err := idx.Search(ctx, query, len(corpus))
	if err != nil {
		return nil, err
	}

	hits := make([]lexicalHit, len(corpus))
	for i := range corpus {
		hits[i].pos = i
	}
	for _, m := range matches {
		hits[m.ID].score = float64(m.Score)
	}
	slices.SortStableFunc(hits, func(a, b lexicalHit) int {
		return cmp.Compare(b.score, a.score)
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}
