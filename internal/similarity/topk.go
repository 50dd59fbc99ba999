package similarity

import (
	"errors"
	"sort"
)

// DefaultK is the number of candidates kept per granularity
const DefaultK = 3

// Ranking holds candidate indices ordered by descending similarity
type Ranking struct {
	Indices      []int
	Similarities []float64
}

// Best returns the top candidate. ok is false for an empty ranking.
func (r Ranking) Best() (index int, similarity float64, ok bool) {
	if len(r.Indices) == 0 {
		return 0, 0, false
	}
	return r.Indices[0], r.Similarities[0], true
}

// TopK ranks candidates against query and returns the first k. Ties keep the
// original candidate order. Zero-norm candidates are skipped; a zero-norm or
// mismatched query is an error.
func TopK(query []float32, candidates [][]float32, k int) (Ranking, error) {
	if len(candidates) == 0 {
		return Ranking{}, ErrNoCandidates
	}
	if Norm(query) == 0 {
		return Ranking{}, ErrZeroNorm
	}
	if k <= 0 {
		k = DefaultK
	}

	type scored struct {
		index int
		sim   float64
	}

	ranked := make([]scored, 0, len(candidates))
	for i, c := range candidates {
		sim, err := Cosine(query, c)
		if err != nil {
			if errors.Is(err, ErrZeroNorm) || errors.Is(err, ErrEmptyVector) {
				continue
			}
			return Ranking{}, err
		}
		ranked = append(ranked, scored{index: i, sim: sim})
	}
	if len(ranked) == 0 {
		return Ranking{}, ErrNoCandidates
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].sim > ranked[j].sim
	})

	if k > len(ranked) {
		k = len(ranked)
	}

	r := Ranking{
		Indices:      make([]int, k),
		Similarities: make([]float64, k),
	}
	for i := 0; i < k; i++ {
		r.Indices[i] = ranked[i].index
		r.Similarities[i] = ranked[i].sim
	}
	return r, nil
}
