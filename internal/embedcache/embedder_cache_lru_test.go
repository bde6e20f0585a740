package embedcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
	dim   int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	c.calls++
	out := make([]float32, c.dim)
	for i := range out {
		out[i] = float32(len(text))
	}
	return out, nil
}

func (c *countingEmbedder) ModelName() string {
	return "test-model"
}

func TestEmbedCacheHit(t *testing.T) {
	inner := &countingEmbedder{dim: 3}
	e := WrapLruCacheToEmbedder(inner, 10, time.Minute)

	first, err := e.Embed(context.Background(), "fee structure", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Len(t, first, 3)
	require.Equal(t, 1, inner.calls)

	second, err := e.Embed(context.Background(), "fee structure", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, inner.calls)
}

func TestEmbedCacheKeyIncludesTaskType(t *testing.T) {
	inner := &countingEmbedder{dim: 3}
	e := WrapLruCacheToEmbedder(inner, 10, time.Minute)

	_, err := e.Embed(context.Background(), "fee structure", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), "fee structure", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)
}

func TestEmbedCacheReturnsCopies(t *testing.T) {
	inner := &countingEmbedder{dim: 2}
	e := WrapLruCacheToEmbedder(inner, 10, time.Minute)

	first, err := e.Embed(context.Background(), "text", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	first[0] = -999

	second, err := e.Embed(context.Background(), "text", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.NotEqual(t, float32(-999), second[0])
}

func TestWrapDisabledPassesThrough(t *testing.T) {
	inner := &countingEmbedder{dim: 2}
	require.Equal(t, inner, WrapLruCacheToEmbedder(inner, 0, time.Minute))
	require.Nil(t, WrapLruCacheToEmbedder(nil, 10, time.Minute))
}
