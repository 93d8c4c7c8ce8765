package index

import "github.com/hupe1980/vecgo/distance"

// Normalize returns a unit-length copy of v.
// A zero vector normalizes to a zero vector of the same length.
func Normalize(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}
	if unit, ok := distance.NormalizeL2Copy(v); ok {
		return unit
	}
	return make([]float32, len(v))
}

// dotProduct calculates the dot product over the shorter of the two vectors.
func dotProduct(a, b []float32) float64 {
	n := min(len(a), len(b))
	return float64(distance.Dot(a[:n], b[:n]))
}
