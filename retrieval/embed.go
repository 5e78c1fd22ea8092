package retrieval

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
)

// Embedder turns texts into embedding vectors.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// EmbedderOptions configure the OpenAI embedder.
type EmbedderOptions struct {
	// Model is the embedding model id.
	Model string
	// BatchSize caps how many texts go into a single API request.
	BatchSize int
}

// OpenAIEmbedder generates embeddings with the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	opts   EmbedderOptions
}

// NewOpenAIEmbedder creates an embedder using the default client (API key
// from env).
func NewOpenAIEmbedder(optFns ...func(o *EmbedderOptions)) *OpenAIEmbedder {
	client := openai.NewClient()
	return NewOpenAIEmbedderFromClient(&client, optFns...)
}

// NewOpenAIEmbedderFromClient creates an embedder from an existing client.
func NewOpenAIEmbedderFromClient(client *openai.Client, optFns ...func(o *EmbedderOptions)) *OpenAIEmbedder {
	opts := EmbedderOptions{
		Model:     openai.EmbeddingModelTextEmbedding3Large,
		BatchSize: 128,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &OpenAIEmbedder{client: client, opts: opts}
}

// Embed implements Embedder. Inputs are sent in batches of at most
// BatchSize texts.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float64, 0, len(texts))
	for i := 0; i < len(texts); i += e.opts.BatchSize {
		end := i + e.opts.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[i:end]

		resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Model: e.opts.Model,
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: batch,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("openai embeddings api error: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("embeddings returned %d vectors for %d inputs", len(resp.Data), len(batch))
		}
		for _, item := range resp.Data {
			out = append(out, item.Embedding)
		}
	}
	return out, nil
}

// EmbedOne embeds a single text.
func (e *OpenAIEmbedder) EmbedOne(ctx context.Context, text string) ([]float64, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
