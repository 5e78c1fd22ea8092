package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreUpsertAndQuery(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	err := store.Upsert(ctx, []Chunk{
		{ID: "a", Text: "north", Embedding: []float64{1, 0}},
		{ID: "b", Text: "east", Embedding: []float64{0, 1}},
		{ID: "c", Text: "northeast", Embedding: []float64{1, 1}},
	})
	require.NoError(t, err)

	results, err := store.Query(ctx, []float64{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Chunk.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, "c", results[1].Chunk.ID)
}

func TestInMemoryStoreUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	require.NoError(t, store.Upsert(ctx, []Chunk{{ID: "a", Text: "old", Embedding: []float64{1, 0}}}))
	require.NoError(t, store.Upsert(ctx, []Chunk{{ID: "a", Text: "new", Embedding: []float64{1, 0}}}))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	results, err := store.Query(ctx, []float64{1, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, "new", results[0].Chunk.Text)
}

func TestInMemoryStoreRejectsMissingEmbedding(t *testing.T) {
	store := NewInMemoryStore()
	err := store.Upsert(context.Background(), []Chunk{{ID: "a", Text: "x"}})
	assert.Error(t, err)
}

func TestInMemoryStoreQueryValidation(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.Query(context.Background(), nil, 3)
	assert.Error(t, err)
}

func TestInMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	require.NoError(t, store.Upsert(ctx, []Chunk{
		{ID: "a", Embedding: []float64{1}},
		{ID: "b", Embedding: []float64{1}},
	}))
	require.NoError(t, store.Delete(ctx, []string{"a", "missing"}))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float64{1, 2}, []float64{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float64{1}, []float64{1, 2}))
	assert.Equal(t, 0.0, cosineSimilarity([]float64{0, 0}, []float64{1, 1}))
}
