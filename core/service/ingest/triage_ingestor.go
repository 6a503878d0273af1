// Package ingest loads the grounding corpus at startup: read, split,
// embed, and insert into the similarity index before the first polling
// run is allowed to process a message.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"mailtriage/core/domain"
	"mailtriage/core/port/out"
)

// Splitter cuts a document into token-bounded chunks.
type Splitter interface {
	Split(text string) []string
}

type Ingestor struct {
	splitter     Splitter
	embedder     out.Embedder
	store        out.VectorStore
	corpusPath   string
	contactEmail string
	log          zerolog.Logger
}

func NewIngestor(splitter Splitter, embedder out.Embedder, store out.VectorStore, corpusPath, contactEmail string, log zerolog.Logger) *Ingestor {
	return &Ingestor{
		splitter:     splitter,
		embedder:     embedder,
		store:        store,
		corpusPath:   corpusPath,
		contactEmail: contactEmail,
		log:          log.With().Str("component", "ingestor").Logger(),
	}
}

// Run ingests the configured corpus. Chunks are keyed by content hash,
// so running this on every startup does not grow the index.
func (i *Ingestor) Run(ctx context.Context) error {
	data, err := os.ReadFile(i.corpusPath)
	if err != nil {
		return fmt.Errorf("load corpus %s: %w", i.corpusPath, err)
	}

	doc := &domain.Document{
		Source:  i.corpusPath,
		Content: string(data),
		Metadata: map[string]string{
			"email":  i.contactEmail,
			"source": i.corpusPath,
		},
	}

	chunks, err := i.chunk(ctx, doc)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		i.log.Warn().Str("corpus", i.corpusPath).Msg("corpus produced no chunks")
		return nil
	}

	if err := i.store.Add(ctx, chunks); err != nil {
		return fmt.Errorf("index corpus chunks: %w", err)
	}

	i.log.Info().
		Str("corpus", i.corpusPath).
		Int("chunks", len(chunks)).
		Msg("corpus ingested")
	return nil
}

func (i *Ingestor) chunk(ctx context.Context, doc *domain.Document) ([]*domain.DocumentChunk, error) {
	texts := i.splitter.Split(doc.Content)
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings, err := i.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed corpus chunks: %w", err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: %d texts, %d vectors", len(texts), len(embeddings))
	}

	chunks := make([]*domain.DocumentChunk, len(texts))
	for idx, text := range texts {
		meta := make(map[string]string, len(doc.Metadata))
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		chunks[idx] = &domain.DocumentChunk{
			Hash:      contentHash(text),
			Content:   text,
			Embedding: embeddings[idx],
			Metadata:  meta,
		}
	}
	return chunks, nil
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
