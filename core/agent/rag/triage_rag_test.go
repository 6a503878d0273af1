package rag

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"mailtriage/core/domain"
)

// wordCodec tokenizes by whitespace. Good enough to exercise the budget
// arithmetic without loading a real encoding.
type wordCodec struct{}

func (wordCodec) Encode(text string) []int {
	words := strings.Fields(text)
	tokens := make([]int, len(words))
	for i := range words {
		tokens[i] = i
	}
	wordsByToken = words
	return tokens
}

func (wordCodec) Decode(tokens []int) string {
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		parts = append(parts, wordsByToken[tok])
	}
	return strings.Join(parts, " ")
}

var wordsByToken []string

func TestSplitRespectsBudget(t *testing.T) {
	splitter := NewTokenSplitter(wordCodec{}, 2)

	got := splitter.Split("one two three four five")
	want := []string{"one two", "three four", "five"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSplitSingleChunk(t *testing.T) {
	splitter := NewTokenSplitter(wordCodec{}, 100)

	got := splitter.Split("short text")
	if len(got) != 1 || got[0] != "short text" {
		t.Errorf("got %v, want one chunk with full text", got)
	}
}

func TestSplitEmptyText(t *testing.T) {
	splitter := NewTokenSplitter(wordCodec{}, 10)

	if got := splitter.Split(""); got != nil {
		t.Errorf("got %v, want nil for empty text", got)
	}
	if got := splitter.Split("   "); got != nil {
		t.Errorf("got %v, want nil for whitespace-only text", got)
	}
}

func TestSplitDeterministic(t *testing.T) {
	splitter := NewTokenSplitter(wordCodec{}, 3)
	text := "a b c d e f g"

	first := splitter.Split(text)
	second := splitter.Split(text)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("splitting is not deterministic: %v vs %v", first, second)
	}
}

func TestNewTokenSplitterDefaultBudget(t *testing.T) {
	splitter := NewTokenSplitter(wordCodec{}, 0)
	if splitter.budget != DefaultChunkTokenLimit {
		t.Errorf("got budget %d, want %d", splitter.budget, DefaultChunkTokenLimit)
	}
}

type stubEmbedder struct {
	vector []float32
	err    error

	gotText string
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.gotText = text
	return s.vector, s.err
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("not used")
}

type stubStore struct {
	chunks []*domain.RetrievedChunk
	err    error

	gotEmbedding []float32
	gotTopK      int
}

func (s *stubStore) Add(ctx context.Context, chunks []*domain.DocumentChunk) error {
	return errors.New("not used")
}

func (s *stubStore) Search(ctx context.Context, embedding []float32, topK int) ([]*domain.RetrievedChunk, error) {
	s.gotEmbedding = embedding
	s.gotTopK = topK
	return s.chunks, s.err
}

func TestRetrieverTopK(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{0.1, 0.2}}
	store := &stubStore{chunks: []*domain.RetrievedChunk{
		{Content: "claims are processed within 5 business days", Score: 0.92},
	}}

	r := NewRetriever(embedder, store)
	got, err := r.TopK(context.Background(), "claim status", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if embedder.gotText != "claim status" {
		t.Errorf("embedded query %q, want claim status", embedder.gotText)
	}
	if !reflect.DeepEqual(store.gotEmbedding, []float32{0.1, 0.2}) {
		t.Errorf("searched with embedding %v", store.gotEmbedding)
	}
	if store.gotTopK != 3 {
		t.Errorf("searched with topK %d, want 3", store.gotTopK)
	}
	if len(got) != 1 || got[0].Content != "claims are processed within 5 business days" {
		t.Errorf("got chunks %v", got)
	}
}

func TestRetrieverEmbedFailure(t *testing.T) {
	r := NewRetriever(&stubEmbedder{err: errors.New("rate limited")}, &stubStore{})
	if _, err := r.TopK(context.Background(), "claim status", 3); err == nil {
		t.Fatal("expected error when embedding fails")
	}
}

func TestPgVector(t *testing.T) {
	tests := []struct {
		name     string
		input    []float32
		expected string
	}{
		{
			name:     "empty",
			input:    []float32{},
			expected: "[0]",
		},
		{
			name:     "single value",
			input:    []float32{1.5},
			expected: "[1.500000]",
		},
		{
			name:     "multiple values",
			input:    []float32{1.0, 2.5, 3.0},
			expected: "[1.000000,2.500000,3.000000]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pgVector(tt.input)
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}
