package rag

import (
	"context"

	"mailtriage/core/domain"
	"mailtriage/core/port/out"
)

// Retriever embeds a query and pulls the most similar corpus chunks from
// the vector store for reply grounding.
type Retriever struct {
	embedder out.Embedder
	store    out.VectorStore
}

func NewRetriever(embedder out.Embedder, store out.VectorStore) *Retriever {
	return &Retriever{
		embedder: embedder,
		store:    store,
	}
}

func (r *Retriever) TopK(ctx context.Context, query string, k int) ([]*domain.RetrievedChunk, error) {
	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.store.Search(ctx, embedding, k)
}
