// Package retrieval implements the document ingestion and lookup pipeline:
// word-window and sentence-aware chunking, embedding generation, and a
// vector store for similarity search over the embedded chunks.
package retrieval

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/relabs-ai/relay/internal/util"
)

// Document is an ingestable source text with optional metadata.
type Document struct {
	ID   string         `json:"id"`
	Text string         `json:"text"`
	Meta map[string]any `json:"meta,omitempty"`
}

// Chunk is a contiguous word range cut from a document. StartWord and
// EndWord index into the whitespace-normalized word sequence, EndWord
// exclusive.
type Chunk struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"document_id,omitempty"`
	Text       string         `json:"text"`
	StartWord  int            `json:"start_word"`
	EndWord    int            `json:"end_word"`
	TokenCount int            `json:"token_count,omitempty"` // set during ingestion when a TokenCounter is configured
	Meta       map[string]any `json:"meta,omitempty"`
	Embedding  []float64      `json:"embedding,omitempty"`
}

// ChunkOptions configure the chunkers.
type ChunkOptions struct {
	// Size is the number of words per chunk.
	Size int
	// Overlap is the number of words shared by consecutive chunks.
	// Must be smaller than Size.
	Overlap int
	// IDPrefix, when set, prefixes every generated chunk id.
	IDPrefix string
}

func defaultChunkOptions(optFns []func(o *ChunkOptions)) (ChunkOptions, error) {
	opts := ChunkOptions{Size: 200, Overlap: 20}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Size <= 0 {
		return opts, fmt.Errorf("chunk size must be > 0, got %d", opts.Size)
	}
	if opts.Overlap < 0 {
		return opts, fmt.Errorf("chunk overlap must be >= 0, got %d", opts.Overlap)
	}
	if opts.Overlap >= opts.Size {
		return opts, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", opts.Overlap, opts.Size)
	}
	return opts, nil
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// normalizeWhitespace collapses whitespace runs to single spaces and trims.
func normalizeWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

func chunkID(prefix string) string {
	if prefix != "" {
		return prefix + "-" + util.NewID()
	}
	return util.NewID()
}

// ChunkText splits text into overlapping word-window chunks. Consecutive
// chunks share exactly Overlap words, except possibly the final chunk, and
// the chunk ranges together cover every word of the normalized text.
func ChunkText(text string, optFns ...func(o *ChunkOptions)) ([]Chunk, error) {
	opts, err := defaultChunkOptions(optFns)
	if err != nil {
		return nil, err
	}

	normalized := normalizeWhitespace(text)
	if normalized == "" {
		return nil, nil
	}

	words := strings.Split(normalized, " ")
	total := len(words)
	step := opts.Size - opts.Overlap

	var chunks []Chunk
	for i := 0; i < total; i += step {
		end := i + opts.Size
		if end > total {
			end = total
		}
		chunks = append(chunks, Chunk{
			ID:        chunkID(opts.IDPrefix),
			Text:      strings.Join(words[i:end], " "),
			StartWord: i,
			EndWord:   end,
		})
		if end >= total {
			break
		}
	}
	return chunks, nil
}

// ChunkDocuments applies ChunkText to each document, propagating the
// document id and metadata onto every produced chunk.
func ChunkDocuments(docs []Document, optFns ...func(o *ChunkOptions)) ([]Chunk, error) {
	return chunkAll(docs, ChunkText, optFns)
}

// SemanticChunkDocuments applies SemanticChunkText to each document,
// propagating the document id and metadata onto every produced chunk.
func SemanticChunkDocuments(docs []Document, optFns ...func(o *ChunkOptions)) ([]Chunk, error) {
	return chunkAll(docs, SemanticChunkText, optFns)
}

func chunkAll(
	docs []Document,
	chunker func(string, ...func(o *ChunkOptions)) ([]Chunk, error),
	optFns []func(o *ChunkOptions),
) ([]Chunk, error) {
	var out []Chunk
	for _, doc := range docs {
		prefix := doc.ID
		if prefix == "" {
			prefix = "doc"
		}
		withPrefix := append(optFns, func(o *ChunkOptions) { o.IDPrefix = prefix })
		chunks, err := chunker(doc.Text, withPrefix...)
		if err != nil {
			return nil, fmt.Errorf("chunk document %q: %w", doc.ID, err)
		}
		for _, c := range chunks {
			c.DocumentID = doc.ID
			c.Meta = doc.Meta
			out = append(out, c)
		}
	}
	return out, nil
}

// sentence holds a sentence's words plus its word-index range in the
// source text.
type sentence struct {
	words []string
	start int
	end   int
}

var (
	paragraphRe   = regexp.MustCompile(`\n{2,}`)
	sentenceEndRe = regexp.MustCompile(`(?s)(.*?[.!?])\s+`)
)

func splitParagraphs(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	var out []string
	for _, p := range paragraphRe.Split(normalized, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSentences is a punctuation heuristic, not a full tokenizer. It keeps
// the terminating punctuation attached to its sentence.
func splitSentences(paragraph string) []string {
	var out []string
	rest := paragraph
	for {
		loc := sentenceEndRe.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}
		s := strings.TrimSpace(rest[loc[2]:loc[3]])
		if s != "" {
			out = append(out, s)
		}
		rest = rest[loc[1]:]
	}
	if rest = strings.TrimSpace(rest); rest != "" {
		out = append(out, rest)
	}
	return out
}

func collectSentences(text string) []sentence {
	var sentences []sentence
	wordIndex := 0
	for _, para := range splitParagraphs(text) {
		normalized := normalizeWhitespace(para)
		if normalized == "" {
			continue
		}
		for _, s := range splitSentences(normalized) {
			words := strings.Fields(s)
			if len(words) == 0 {
				continue
			}
			sentences = append(sentences, sentence{
				words: words,
				start: wordIndex,
				end:   wordIndex + len(words),
			})
			wordIndex += len(words)
		}
	}
	return sentences
}

// SemanticChunkText chunks text preferring sentence and paragraph
// boundaries: sentences are packed whole into chunks up to Size words, with
// the last Overlap words of each chunk carried into the next. Sentences
// longer than Size fall back to plain word windowing.
func SemanticChunkText(text string, optFns ...func(o *ChunkOptions)) ([]Chunk, error) {
	opts, err := defaultChunkOptions(optFns)
	if err != nil {
		return nil, err
	}

	sentences := collectSentences(text)
	if len(sentences) == 0 {
		return ChunkText(text, optFns...)
	}

	var (
		chunks   []Chunk
		current  []string
		start    = -1
		overlapW []string // tail of the previous chunk
		overlapS int
	)

	flush := func() {
		if len(current) == 0 {
			return
		}
		end := start + len(current)
		chunks = append(chunks, Chunk{
			ID:        chunkID(opts.IDPrefix),
			Text:      strings.Join(current, " "),
			StartWord: start,
			EndWord:   end,
		})
		if opts.Overlap > 0 {
			tail := opts.Overlap
			if tail > len(current) {
				tail = len(current)
			}
			overlapW = append([]string(nil), current[len(current)-tail:]...)
			overlapS = end - tail
		}
		current, start = nil, -1
	}

	seed := func() {
		if start == -1 {
			if len(overlapW) > 0 {
				current = append([]string(nil), overlapW...)
				start = overlapS
				overlapW = nil
			}
		}
	}

	for _, s := range sentences {
		if len(s.words) > opts.Size {
			flush()
			sub, err := ChunkText(strings.Join(s.words, " "), func(o *ChunkOptions) {
				o.Size = opts.Size
				o.Overlap = opts.Overlap
				o.IDPrefix = opts.IDPrefix
			})
			if err != nil {
				return nil, err
			}
			for _, c := range sub {
				c.StartWord += s.start
				c.EndWord += s.start
				chunks = append(chunks, c)
			}
			if opts.Overlap > 0 && len(sub) > 0 {
				last := sub[len(sub)-1]
				words := strings.Fields(last.Text)
				tail := opts.Overlap
				if tail > len(words) {
					tail = len(words)
				}
				overlapW = words[len(words)-tail:]
				overlapS = s.start + last.EndWord - tail
			}
			continue
		}

		if len(current) > 0 && len(current)+len(s.words) > opts.Size {
			flush()
		}
		seed()
		if start == -1 {
			start = s.start
		}
		current = append(current, s.words...)
	}
	flush()

	return chunks, nil
}
