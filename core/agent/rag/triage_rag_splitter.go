package rag

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCodec encodes text to tokens and back. The production codec is
// tiktoken's cl100k_base; tests substitute a cheap word codec.
type TokenCodec interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

type tiktokenCodec struct {
	enc *tiktoken.Tiktoken
}

func (c *tiktokenCodec) Encode(text string) []int {
	return c.enc.Encode(text, nil, nil)
}

func (c *tiktokenCodec) Decode(tokens []int) string {
	return c.enc.Decode(tokens)
}

// NewTiktokenCodec loads the cl100k_base encoding used by the embedding
// model family.
func NewTiktokenCodec() (TokenCodec, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	return &tiktokenCodec{enc: enc}, nil
}

// TokenSplitter cuts text into chunks of at most budget tokens, no
// overlap. Splitting is deterministic: the same text and budget always
// produce the same chunks.
type TokenSplitter struct {
	codec  TokenCodec
	budget int
}

const DefaultChunkTokenLimit = 800

func NewTokenSplitter(codec TokenCodec, budget int) *TokenSplitter {
	if budget <= 0 {
		budget = DefaultChunkTokenLimit
	}
	return &TokenSplitter{codec: codec, budget: budget}
}

// Split returns the token-bounded chunks of text in order. Empty and
// whitespace-only chunks are dropped.
func (s *TokenSplitter) Split(text string) []string {
	tokens := s.codec.Encode(text)
	if len(tokens) == 0 {
		return nil
	}

	chunks := make([]string, 0, len(tokens)/s.budget+1)
	for start := 0; start < len(tokens); start += s.budget {
		end := start + s.budget
		if end > len(tokens) {
			end = len(tokens)
		}
		chunk := strings.TrimSpace(s.codec.Decode(tokens[start:end]))
		if chunk == "" {
			continue
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}
