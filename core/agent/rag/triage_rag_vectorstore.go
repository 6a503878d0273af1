package rag

import (
	"context"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"

	"mailtriage/core/domain"
)

// VectorStore keeps embedded corpus chunks in the document_chunks table
// (pgvector column). Chunks are keyed by content hash, so ingestion is
// idempotent across restarts. The table is append-only after startup,
// which is why concurrent reads need no locking.
type VectorStore struct {
	db *pgxpool.Pool
}

func NewVectorStore(db *pgxpool.Pool) *VectorStore {
	return &VectorStore{db: db}
}

// Add inserts chunks, skipping any whose content hash is already stored.
func (s *VectorStore) Add(ctx context.Context, chunks []*domain.DocumentChunk) error {
	query := `
		INSERT INTO document_chunks (content_hash, content, embedding, metadata)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (content_hash) DO NOTHING
	`

	for _, chunk := range chunks {
		meta, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return err
		}
		_, err = s.db.Exec(ctx, query,
			chunk.Hash,
			chunk.Content,
			pgVector(chunk.Embedding),
			meta,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Search returns the topK most similar chunks by cosine distance.
func (s *VectorStore) Search(ctx context.Context, embedding []float32, topK int) ([]*domain.RetrievedChunk, error) {
	if topK <= 0 {
		topK = 5
	}

	query := `
		SELECT content, 1 - (embedding <=> $1) AS score, metadata
		FROM document_chunks
		ORDER BY embedding <=> $1
		LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, pgVector(embedding), topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.RetrievedChunk
	for rows.Next() {
		var (
			r    domain.RetrievedChunk
			meta []byte
		)
		if err := rows.Scan(&r.Content, &r.Score, &meta); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &r.Metadata); err != nil {
				return nil, err
			}
		}
		results = append(results, &r)
	}

	return results, rows.Err()
}

// pgVector converts float32 slice to pgvector format string
func pgVector(v []float32) string {
	if len(v) == 0 {
		return "[0]"
	}

	buf := make([]byte, 0, len(v)*13+2)
	buf = append(buf, '[')

	for i, f := range v {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendFloat(buf, float64(f), 'f', 6, 32)
	}

	buf = append(buf, ']')
	return string(buf)
}
