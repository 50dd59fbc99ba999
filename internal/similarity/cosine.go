// Package similarity scores embeddings against each other.
package similarity

import (
	"errors"
	"math"
)

var (
	ErrEmptyVector       = errors.New("empty vector")
	ErrDimensionMismatch = errors.New("vector dimensions differ")
	ErrZeroNorm          = errors.New("zero-norm vector")
	ErrNoCandidates      = errors.New("no candidates to rank")
)

// Cosine returns dot(a,b) / (norm(a) * norm(b)), clamped to [-1, 1].
// Accumulation happens in float64 so that Cosine(a, a) is 1 within rounding.
func Cosine(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, ErrEmptyVector
	}
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, ErrZeroNorm
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, sim)), nil
}

// Norm returns the L2 norm of v
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Normalize returns a unit-length copy of v. Zero vectors are returned as a
// zero copy.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	n := Norm(v)
	if n == 0 {
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out
}
