package similarity

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

const eps = 1e-9

func randomVector(r *rand.Rand, dims int) []float32 {
	v := make([]float32, dims)
	for i := range v {
		v[i] = r.Float32()*2 - 1
	}
	return v
}

func TestCosine_Symmetric(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		a := randomVector(r, 16)
		b := randomVector(r, 16)

		ab, err := Cosine(a, b)
		if err != nil {
			t.Fatalf("Cosine(a, b): %v", err)
		}
		ba, err := Cosine(b, a)
		if err != nil {
			t.Fatalf("Cosine(b, a): %v", err)
		}
		if math.Abs(ab-ba) > eps {
			t.Errorf("Cosine not symmetric: %v vs %v", ab, ba)
		}
		if ab < -1 || ab > 1 {
			t.Errorf("Cosine out of range: %v", ab)
		}
	}
}

func TestCosine_SelfIsOne(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		a := randomVector(r, 32)
		sim, err := Cosine(a, a)
		if err != nil {
			t.Fatalf("Cosine(a, a): %v", err)
		}
		if math.Abs(sim-1) > eps {
			t.Errorf("Cosine(a, a) = %v, want 1", sim)
		}
	}
}

func TestCosine_KnownValues(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 2}, []float32{-1, -2}, -1},
		{"scaled", []float32{1, 1}, []float32{3, 3}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cosine(tt.a, tt.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > eps {
				t.Errorf("Cosine = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosine_Degenerate(t *testing.T) {
	if _, err := Cosine([]float32{0, 0}, []float32{1, 0}); !errors.Is(err, ErrZeroNorm) {
		t.Errorf("expected ErrZeroNorm, got %v", err)
	}
	if _, err := Cosine(nil, []float32{1}); !errors.Is(err, ErrEmptyVector) {
		t.Errorf("expected ErrEmptyVector, got %v", err)
	}
	if _, err := Cosine([]float32{1}, []float32{1, 2}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	if math.Abs(Norm(v)-1) > 1e-6 {
		t.Errorf("normalized norm = %v", Norm(v))
	}
	if z := Normalize([]float32{0, 0}); Norm(z) != 0 {
		t.Errorf("expected zero vector, got %v", z)
	}
}

func TestTopK_OrderAndTies(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{
		{0, 1},  // 0.0
		{1, 0},  // 1.0
		{1, 1},  // 0.707
		{2, 0},  // 1.0, tie with index 1
		{-1, 0}, // -1.0
	}

	r, err := TopK(query, candidates, 3)
	if err != nil {
		t.Fatalf("TopK: %v", err)
	}

	wantIdx := []int{1, 3, 2}
	if len(r.Indices) != len(wantIdx) {
		t.Fatalf("got %d indices, want %d", len(r.Indices), len(wantIdx))
	}
	for i := range wantIdx {
		if r.Indices[i] != wantIdx[i] {
			t.Errorf("rank %d = index %d, want %d", i, r.Indices[i], wantIdx[i])
		}
	}
	for i := 1; i < len(r.Similarities); i++ {
		if r.Similarities[i] > r.Similarities[i-1] {
			t.Errorf("similarities not descending: %v", r.Similarities)
		}
	}

	idx, sim, ok := r.Best()
	if !ok || idx != 1 || math.Abs(sim-1) > eps {
		t.Errorf("Best() = %d, %v, %v", idx, sim, ok)
	}
}

func TestTopK_FewerThanK(t *testing.T) {
	r, err := TopK([]float32{1, 0}, [][]float32{{1, 0}, {0, 1}}, 3)
	if err != nil {
		t.Fatalf("TopK: %v", err)
	}
	if len(r.Indices) != 2 {
		t.Errorf("expected 2 results, got %d", len(r.Indices))
	}
}

func TestTopK_Degenerate(t *testing.T) {
	if _, err := TopK([]float32{1}, nil, 3); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("expected ErrNoCandidates, got %v", err)
	}
	if _, err := TopK([]float32{0, 0}, [][]float32{{1, 0}}, 3); !errors.Is(err, ErrZeroNorm) {
		t.Errorf("expected ErrZeroNorm for zero query, got %v", err)
	}

	// zero-norm candidates are skipped, not ranked
	r, err := TopK([]float32{1, 0}, [][]float32{{0, 0}, {0, 1}}, 3)
	if err != nil {
		t.Fatalf("TopK: %v", err)
	}
	if len(r.Indices) != 1 || r.Indices[0] != 1 {
		t.Errorf("expected only candidate 1, got %v", r.Indices)
	}

	if _, err := TopK([]float32{1, 0}, [][]float32{{0, 0}}, 3); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("expected ErrNoCandidates when all candidates are zero, got %v", err)
	}
}
