package retrieval

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder maps each text to a deterministic 2-dim vector so similarity
// is predictable without a network call.
type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	f.calls++
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if strings.Contains(text, "cat") {
			out[i] = []float64{1, 0}
		} else {
			out[i] = []float64{0, 1}
		}
	}
	return out, nil
}

func TestPipelineIngestAndSearch(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	p := NewPipeline(&fakeEmbedder{}, store, func(o *PipelineOptions) {
		o.ChunkSize = 5
		o.ChunkOverlap = 0
		o.Semantic = false
	})

	n, err := p.Ingest(ctx, []Document{
		{ID: "pets", Text: "the cat sat on the mat"},
		{ID: "infra", Text: "servers hum in the datacenter"},
	})
	require.NoError(t, err)
	assert.Greater(t, n, 1)

	stored, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, stored)

	results, err := p.Search(ctx, "cat", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "pets", results[0].Chunk.DocumentID)
}

// wordCounter stands in for the tiktoken Tokenizer so tests stay offline.
type wordCounter struct{}

func (wordCounter) CountTokens(text string) (int, error) {
	return len(strings.Fields(text)), nil
}

func TestPipelineIngestAttachesTokenCounts(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	p := NewPipeline(&fakeEmbedder{}, store, func(o *PipelineOptions) {
		o.ChunkSize = 4
		o.ChunkOverlap = 0
		o.Semantic = false
		o.TokenCounter = wordCounter{}
	})

	n, err := p.Ingest(ctx, []Document{
		{ID: "pets", Text: "the cat sat on the mat today"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	results, err := p.Search(ctx, "cat", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, r.Chunk.EndWord-r.Chunk.StartWord, r.Chunk.TokenCount)
		assert.Positive(t, r.Chunk.TokenCount)
	}
}

func TestPipelineIngestWithoutCounterLeavesZero(t *testing.T) {
	store := NewInMemoryStore()
	p := NewPipeline(&fakeEmbedder{}, store, func(o *PipelineOptions) {
		o.ChunkSize = 5
		o.ChunkOverlap = 0
		o.Semantic = false
	})

	_, err := p.Ingest(context.Background(), []Document{{ID: "pets", Text: "the cat sat"}})
	require.NoError(t, err)

	results, err := p.Search(context.Background(), "cat", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Zero(t, results[0].Chunk.TokenCount)
}

func TestPipelineIngestEmpty(t *testing.T) {
	emb := &fakeEmbedder{}
	p := NewPipeline(emb, NewInMemoryStore())

	n, err := p.Ingest(context.Background(), []Document{{ID: "empty", Text: "   "}})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, emb.calls)
}

func TestPipelineIngestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("the cat naps. The dog barks."), 0o644))

	store := NewInMemoryStore()
	p := NewPipeline(&fakeEmbedder{}, store)

	n, err := p.IngestFile(context.Background(), path)
	require.NoError(t, err)
	assert.Greater(t, n, 0)
}

func TestPipelineIngestFileUnsupported(t *testing.T) {
	p := NewPipeline(&fakeEmbedder{}, NewInMemoryStore())
	_, err := p.IngestFile(context.Background(), "report.pdf")
	assert.ErrorContains(t, err, "unsupported document format")
}
