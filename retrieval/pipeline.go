package retrieval

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/relabs-ai/relay/logging"
)

// PipelineOptions configure a Pipeline.
type PipelineOptions struct {
	// ChunkSize is the number of words per chunk.
	ChunkSize int
	// ChunkOverlap is the word overlap between consecutive chunks.
	ChunkOverlap int
	// Semantic selects sentence-aware chunking instead of plain word
	// windows.
	Semantic bool
	// TokenCounter attaches token counts to ingested chunks. Nil skips
	// counting.
	TokenCounter TokenCounter
	Logger       logging.Logger
}

// Pipeline chunks documents, embeds the chunks and upserts them into a
// vector store, and answers text queries against the stored corpus.
type Pipeline struct {
	embedder Embedder
	store    VectorStore
	opts     PipelineOptions
}

// NewPipeline wires an embedder and a store into an ingestion pipeline.
func NewPipeline(embedder Embedder, store VectorStore, optFns ...func(o *PipelineOptions)) *Pipeline {
	opts := PipelineOptions{
		ChunkSize:    300,
		ChunkOverlap: 50,
		Semantic:     true,
		Logger:       logging.NewNoOpLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Pipeline{embedder: embedder, store: store, opts: opts}
}

// Ingest chunks and embeds docs, then upserts the chunks. It returns the
// number of chunks stored.
func (p *Pipeline) Ingest(ctx context.Context, docs []Document) (int, error) {
	chunkFn := ChunkDocuments
	if p.opts.Semantic {
		chunkFn = SemanticChunkDocuments
	}

	chunks, err := chunkFn(docs, func(o *ChunkOptions) {
		o.Size = p.opts.ChunkSize
		o.Overlap = p.opts.ChunkOverlap
	})
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	var totalTokens int
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
		if p.opts.TokenCounter != nil {
			n, err := p.opts.TokenCounter.CountTokens(c.Text)
			if err != nil {
				return 0, fmt.Errorf("count tokens: %w", err)
			}
			chunks[i].TokenCount = n
			totalTokens += n
		}
	}

	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	if err := p.store.Upsert(ctx, chunks); err != nil {
		return 0, fmt.Errorf("upsert chunks: %w", err)
	}

	p.opts.Logger.Info("documents ingested",
		"documents", len(docs),
		"chunks", len(chunks),
		"tokens", totalTokens,
	)
	return len(chunks), nil
}

// IngestFile reads a UTF-8 text file and ingests it as a single document
// keyed by its path.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (int, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".txt" && ext != ".md" {
		return 0, fmt.Errorf("unsupported document format %q, only .txt and .md are supported", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read document: %w", err)
	}

	return p.Ingest(ctx, []Document{{
		ID:   path,
		Text: string(data),
		Meta: map[string]any{"source": path},
	}})
}

// Search embeds the query text and returns the topK most similar chunks.
func (p *Pipeline) Search(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	vectors, err := p.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return p.store.Query(ctx, vectors[0], topK)
}
