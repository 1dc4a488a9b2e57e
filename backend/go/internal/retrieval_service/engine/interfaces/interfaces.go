package interfaces

import (
	"context"

	"Minerva_AI/backend/go/internal/models"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/schema"
)

// Loader is the interface for turning an external source (e.g. a file)
// into a SourceDocument ready for indexing.
type Loader interface {
	Load(ctx context.Context, path string) (*schema.SourceDocument, error)
}

// EmbeddingModel is the interface for a text embedding model.
type EmbeddingModel interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore is the interface for storing and querying chunk vectors.
// Collection is an explicit parameter on every call; implementations must
// not keep a mutable "current collection".
type VectorStore interface {
	// Upsert inserts or replaces records keyed by (collection, chunk id),
	// so forced re-indexing is safe to re-run.
	Upsert(ctx context.Context, collection string, records []*schema.EmbeddingRecord) error

	// Exists reports whether a chunk id is present in the collection.
	Exists(ctx context.Context, collection, chunkID string) (bool, error)

	// Query returns up to topK hits ordered by ascending distance, with
	// optional metadata equality filters (e.g. tenant scoping).
	Query(ctx context.Context, collection string, embedding []float32, topK int, filters map[string]interface{}) ([]*schema.RankedHit, error)

	// Delete removes every chunk of a document from the collection.
	Delete(ctx context.Context, collection, documentID string) error
}

// LexicalSearcher is the interface for the keyword/full-text retrieval
// modality. A full BM25 engine is out of scope; the engine only requires
// ranked keyword search per collection.
type LexicalSearcher interface {
	Search(ctx context.Context, collection, query string, topK int, filters map[string]interface{}) ([]*schema.RankedHit, error)
}

// LexicalIndexer is the write side of the lexical backend. Implemented
// alongside LexicalSearcher; the indexing pipeline treats it as optional.
type LexicalIndexer interface {
	// EnsureIndex creates the full-text index for a collection if missing.
	EnsureIndex(ctx context.Context, collection string) error

	// Index inserts or replaces the raw text of the given chunks.
	Index(ctx context.Context, chunks []*schema.Chunk) error
}

// ChunkStore is the interface for the document of record holding raw
// chunk text, retrievable independently of the embedded representation.
type ChunkStore interface {
	Add(ctx context.Context, chunks []*schema.Chunk) error
	Get(ctx context.Context, ids []string) (map[string]*schema.Chunk, error)
	Delete(ctx context.Context, documentID string) error
}

// CrossEncoder is the interface for an external relevance model scoring
// (query, passage) pairs jointly, in one batched call.
type CrossEncoder interface {
	Score(ctx context.Context, query string, passages []string) ([]float32, error)
}

// LLM is the interface for a generative model used for the chunk-context
// hook, batched relevance scoring and graph fact extraction.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GraphStore is the interface for the optional graph database. Calls are
// best-effort from the engine's perspective.
type GraphStore interface {
	UpsertFacts(ctx context.Context, facts []*models.Fact) error
}

// FactPublisher decouples graph fact emission from the indexing path so
// graph latency or failure cannot affect indexing throughput.
type FactPublisher interface {
	Publish(ctx context.Context, event *models.FactEvent) error
}
