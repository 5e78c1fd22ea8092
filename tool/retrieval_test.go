package tool

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-ai/relay/retrieval"
)

// keywordEmbedder maps texts containing "cat" to one axis and everything
// else to the other, so similarity is deterministic.
type keywordEmbedder struct{}

func (keywordEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
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

func searchPipeline(t *testing.T) *retrieval.Pipeline {
	t.Helper()

	p := retrieval.NewPipeline(keywordEmbedder{}, retrieval.NewInMemoryStore())
	_, err := p.Ingest(context.Background(), []retrieval.Document{
		{ID: "pets", Text: "The cat sat on the mat."},
		{ID: "go", Text: "Go compiles quickly."},
	})
	require.NoError(t, err)
	return p
}

func TestDocumentSearchTool(t *testing.T) {
	dst := NewDocumentSearchTool(searchPipeline(t))

	out, err := dst.Call(context.Background(), map[string]any{"query": "cat", "top_k": 1.0})
	require.NoError(t, err)

	text, ok := out.(string)
	require.True(t, ok)
	assert.Contains(t, text, "[1]")
	assert.Contains(t, text, "source pets")
	assert.Contains(t, text, "The cat sat on the mat.")
	assert.NotContains(t, text, "[2]")
}

func TestDocumentSearchToolNoMatches(t *testing.T) {
	p := retrieval.NewPipeline(keywordEmbedder{}, retrieval.NewInMemoryStore())
	dst := NewDocumentSearchTool(p)

	out, err := dst.Call(context.Background(), map[string]any{"query": "anything"})
	require.NoError(t, err)
	assert.Equal(t, "No matching passages found.", out)
}

func TestDocumentSearchToolRequiresQuery(t *testing.T) {
	dst := NewDocumentSearchTool(searchPipeline(t))

	_, err := dst.Call(context.Background(), map[string]any{})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidation, toolErr.Code)
}
