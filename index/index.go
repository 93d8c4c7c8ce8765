// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package index

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/poiesic/chronorag/ai"
)

// Hit is a single search result.
type Hit struct {
	ID    string
	Score float64
	Meta  map[string]string
}

type entry struct {
	vector []float32
	meta   map[string]string
}

// Index is an exhaustive cosine-similarity index. It is safe for concurrent use.
type Index struct {
	embedder ai.Embedder
	logger   *slog.Logger

	mu      sync.RWMutex
	entries map[string]entry
	dim     int
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used by the index.
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) {
		if logger != nil {
			ix.logger = logger
		}
	}
}

// New creates an empty index backed by embedder.
func New(embedder ai.Embedder, opts ...Option) *Index {
	ix := &Index{
		embedder: embedder,
		logger:   slog.Default(),
		entries:  make(map[string]entry),
	}
	for _, opt := range opts {
		opt(ix)
	}
	ix.logger = ix.logger.With("component", "index")
	return ix
}

// Embedder returns the embedder backing the index.
func (ix *Index) Embedder() ai.Embedder {
	return ix.embedder
}

// Encode embeds and normalizes texts.
func (ix *Index) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := ix.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("index: embedder returned %d vectors for %d texts", len(vecs), len(texts))
	}
	for i, v := range vecs {
		vecs[i] = Normalize(v)
	}
	return vecs, nil
}

// Add embeds text and stores it under id, replacing any previous entry.
// The stored vector is returned.
func (ix *Index) Add(ctx context.Context, id, text string, meta map[string]string) ([]float32, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	vecs, err := ix.Encode(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if err := ix.AddVector(id, vecs[0], meta); err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// AddVector stores a precomputed vector. The first vector fixes the index
// dimension; later vectors of a different length are rejected.
func (ix *Index) AddVector(id string, vec []float32, meta map[string]string) error {
	if id == "" {
		return ErrEmptyID
	}
	vec = Normalize(vec)

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.dim == 0 {
		ix.dim = len(vec)
	} else if len(vec) != ix.dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), ix.dim)
	}
	ix.entries[id] = entry{vector: vec, meta: maps.Clone(meta)}
	return nil
}

// Search returns up to k entries ordered by cosine similarity, highest first.
// Ties break on id so results are deterministic.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if k <= 0 || ix.Len() == 0 {
		return nil, nil
	}
	vecs, err := ix.Encode(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	q := vecs[0]

	ix.mu.RLock()
	hits := make([]Hit, 0, len(ix.entries))
	for id, e := range ix.entries {
		hits = append(hits, Hit{ID: id, Score: dotProduct(q, e.vector), Meta: e.meta})
	}
	ix.mu.RUnlock()

	slices.SortFunc(hits, func(a, b Hit) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Remove deletes id from the index. Unknown ids are ignored.
func (ix *Index) Remove(id string) {
	ix.mu.Lock()
	delete(ix.entries, id)
	ix.mu.Unlock()
}

// Reset drops every entry and forgets the dimension.
func (ix *Index) Reset() {
	ix.mu.Lock()
	ix.entries = make(map[string]entry)
	ix.dim = 0
	ix.mu.Unlock()
	ix.logger.Debug("index reset")
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}
