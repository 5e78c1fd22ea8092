package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/relabs-ai/relay/retrieval"
)

// NewDocumentSearchTool exposes the retrieval pipeline as a tool: the model
// submits a query, the pipeline embeds it and returns the most similar
// stored chunks as a numbered context block.
func NewDocumentSearchTool(p *retrieval.Pipeline) *FunctionTool {
	return NewFunctionTool(
		"search_documents",
		"Search the ingested document store for passages relevant to a query. Returns the best matching excerpts with similarity scores.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Natural language search query",
				},
				"top_k": map[string]any{
					"type":        "integer",
					"description": "Number of passages to return, default 5",
				},
			},
			"required": []string{"query"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			query, _ := args["query"].(string)
			topK := 5
			if f, ok := args["top_k"].(float64); ok && f > 0 {
				topK = int(f)
			}

			results, err := p.Search(ctx, query, topK)
			if err != nil {
				return nil, err
			}
			if len(results) == 0 {
				return "No matching passages found.", nil
			}

			var b strings.Builder
			for i, r := range results {
				fmt.Fprintf(&b, "[%d] (score %.3f, source %s)\n%s\n\n",
					i+1, r.Score, r.Chunk.DocumentID, r.Chunk.Text)
			}
			return strings.TrimSpace(b.String()), nil
		},
	)
}
