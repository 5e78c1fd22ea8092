package retrieval

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding matches the tokenizer of the OpenAI embedding models.
const DefaultEncoding = "cl100k_base"

// TokenCounter reports how many tokens a text encodes to. Tokenizer is the
// production implementation.
type TokenCounter interface {
	CountTokens(text string) (int, error)
}

var _ TokenCounter = (*Tokenizer)(nil)

// Tokenizer counts and splits tokens using a tiktoken BPE encoding. It is
// safe for concurrent use.
type Tokenizer struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error

	encoding string
}

// NewTokenizer creates a Tokenizer for the named encoding, defaulting to
// cl100k_base. The BPE tables load lazily on first use.
func NewTokenizer(encoding string) *Tokenizer {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return &Tokenizer{encoding: encoding}
}

func (t *Tokenizer) load() (*tiktoken.Tiktoken, error) {
	t.once.Do(func() {
		t.enc, t.err = tiktoken.GetEncoding(t.encoding)
	})
	if t.err != nil {
		return nil, fmt.Errorf("load encoding %q: %w", t.encoding, t.err)
	}
	return t.enc, nil
}

// CountTokens returns the number of BPE tokens in text.
func (t *Tokenizer) CountTokens(text string) (int, error) {
	enc, err := t.load()
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// Truncate returns text cut to at most maxTokens tokens.
func (t *Tokenizer) Truncate(text string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		return "", nil
	}
	enc, err := t.load()
	if err != nil {
		return "", err
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text, nil
	}
	return enc.Decode(tokens[:maxTokens]), nil
}
