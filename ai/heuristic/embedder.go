package heuristic

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"math/rand/v2"

	"github.com/poiesic/chronorag/ai"
)

// DefaultDimension is the vector size produced by NewHashEmbedder(0).
const DefaultDimension = 16

// HashEmbedder derives a unit vector from the SHA-256 digest of the text.
// Identical text always maps to the identical vector.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder returns a hash embedder producing vectors of size dim.
// A non-positive dim selects DefaultDimension.
func NewHashEmbedder(dim int) ai.Embedder {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &HashEmbedder{dim: dim}
}

func (e *HashEmbedder) Name() string { return "hash-embedder" }

func (e *HashEmbedder) Ready(context.Context) error { return nil }

// EmbedText never fails.
func (e *HashEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	return hashVector(text, e.dim), nil
}

// EmbedTexts never fails.
func (e *HashEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = hashVector(text, e.dim)
	}
	return out, nil
}

func hashVector(text string, dim int) []float32 {
	digest := sha256.Sum256([]byte(text))
	seed := binary.BigEndian.Uint64(digest[:8])
	rng := rand.New(rand.NewPCG(seed, binary.BigEndian.Uint64(digest[8:16])))

	raw := make([]float64, dim)
	var sum float64
	for i := range raw {
		raw[i] = rng.NormFloat64()
		sum += raw[i] * raw[i]
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		norm = 1
	}
	vec := make([]float32, dim)
	for i, v := range raw {
		vec[i] = float32(v / norm)
	}
	return vec
}
