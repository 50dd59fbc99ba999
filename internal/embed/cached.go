package embed

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"

	"github.com/ppiankov/groundcheck/internal/cache"
)

// Cached memoizes embeddings by exact text. Keys include the model name so
// switching models never serves stale vectors.
type Cached struct {
	next      Provider
	cache     cache.Cache
	namespace string
}

// NewCached wraps a provider with a memo cache
func NewCached(next Provider, c cache.Cache, modelName string) *Cached {
	return &Cached{
		next:      next,
		cache:     c,
		namespace: next.Name() + ":" + modelName,
	}
}

// Name returns the wrapped provider name
func (c *Cached) Name() string {
	return c.next.Name()
}

// Embed returns the cached vector when present, otherwise computes and stores it
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.Key(c.namespace, text)

	if data, ok := c.cache.Get(key); ok {
		if v, err := decodeVector(data); err == nil {
			return v, nil
		}
		slog.WarnContext(ctx, "discarding corrupt cached embedding", "key", key)
		_ = c.cache.Delete(key)
	}

	v, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(key, encodeVector(v), 0); err != nil {
		slog.WarnContext(ctx, "failed to cache embedding", "error", err)
	}
	return v, nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("embedding payload length %d is not a multiple of 4", len(data))
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return v, nil
}
