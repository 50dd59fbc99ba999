package grounding

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/groundcheck/internal/embed"
	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/segment"
)

// DefaultIndexConcurrency bounds parallel embedding calls while indexing
const DefaultIndexConcurrency = 4

// Index holds a transcript's text units and their embeddings. For every
// granularity the unit and embedding sequences are index-aligned.
type Index struct {
	Sentences  []model.TextUnit
	Paragraphs []model.TextUnit
	Chunks     []model.TextUnit

	embeddings map[model.Granularity][][]float32
}

// Units returns the units of one granularity
func (ix *Index) Units(g model.Granularity) []model.TextUnit {
	switch g {
	case model.GranularitySentence:
		return ix.Sentences
	case model.GranularityParagraph:
		return ix.Paragraphs
	case model.GranularityChunk:
		return ix.Chunks
	}
	return nil
}

// Embeddings returns the embeddings of one granularity, aligned with Units(g)
func (ix *Index) Embeddings(g model.Granularity) [][]float32 {
	return ix.embeddings[g]
}

// NewIndex assembles an index from precomputed embeddings
func NewIndex(seg segment.Segmentation, embeddings map[model.Granularity][][]float32) (*Index, error) {
	ix := &Index{
		Sentences:  seg.Units(model.GranularitySentence),
		Paragraphs: seg.Units(model.GranularityParagraph),
		Chunks:     seg.Units(model.GranularityChunk),
		embeddings: make(map[model.Granularity][][]float32, len(model.Granularities)),
	}

	for _, g := range model.Granularities {
		units, embs := ix.Units(g), embeddings[g]
		if len(units) != len(embs) {
			return nil, fmt.Errorf("%s index misaligned: %d units, %d embeddings", g, len(units), len(embs))
		}
		ix.embeddings[g] = embs
	}
	return ix, nil
}

// BuildIndex embeds every unit of seg once, at most concurrency calls at a
// time. Each embedding is written to its unit's slot, so alignment does not
// depend on completion order.
func BuildIndex(ctx context.Context, embedder embed.Provider, seg segment.Segmentation, concurrency int) (*Index, error) {
	if concurrency <= 0 {
		concurrency = DefaultIndexConcurrency
	}

	ctx, span := startSpan(ctx, "grounding.build_index")
	defer span.End()

	slots := make(map[model.Granularity][][]float32, len(model.Granularities))
	for _, g := range model.Granularities {
		slots[g] = make([][]float32, seg.Len(g))
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	for _, g := range model.Granularities {
		g := g
		out := slots[g]
		for _, unit := range seg.Units(g) {
			unit := unit
			eg.Go(func() error {
				v, err := embedder.Embed(egCtx, unit.Text)
				if err != nil {
					return embeddingError(fmt.Sprintf("embed %s %d", g, unit.Index), err)
				}
				out[unit.Index] = v
				return nil
			})
		}
	}

	if err := eg.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	ix, err := NewIndex(seg, slots)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "transcript indexed",
		"sentences", len(ix.Sentences),
		"paragraphs", len(ix.Paragraphs),
		"chunks", len(ix.Chunks))

	return ix, nil
}
