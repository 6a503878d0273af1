package domain

// Document is one source text loaded by the corpus ingestor before
// splitting. Metadata is copied onto every chunk derived from it.
type Document struct {
	Source   string
	Content  string
	Metadata map[string]string
}

// DocumentChunk is a token-bounded slice of a Document together with its
// embedding. Chunks are keyed by a content hash so re-running ingestion on
// startup does not accumulate duplicates.
type DocumentChunk struct {
	Hash      string
	Content   string
	Embedding []float32
	Metadata  map[string]string
}

// RetrievedChunk is a similarity-search hit used to ground reply
// generation.
type RetrievedChunk struct {
	Content  string
	Score    float64
	Metadata map[string]string
}
