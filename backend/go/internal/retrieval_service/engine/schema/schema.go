package schema

const (
	// MetadataKeyFileName is the key for the source file name or title.
	MetadataKeyFileName = "file_name"
	// MetadataKeySourceType is the key for the kind of source (e.g. "note", "document", "log").
	MetadataKeySourceType = "source_type"
	// MetadataKeyCreatedAt is the key for the creation timestamp, stored as RFC3339 or time.Time.
	MetadataKeyCreatedAt = "created_at"
	// MetadataKeyIndexedAt is the key for the indexing timestamp, used as a recency fallback.
	MetadataKeyIndexedAt = "indexed_at"
	// MetadataKeyIsVerified is the key marking an item as verified/official.
	MetadataKeyIsVerified = "is_verified"
	// MetadataKeySummary is the key for an item summary or description.
	MetadataKeySummary = "summary"
	// MetadataKeyUserID is the key for the opaque tenant scoping attribute.
	MetadataKeyUserID = "user_id"
)

const (
	// ModalityDense marks hits produced by embedding similarity search.
	ModalityDense = "dense"
	// ModalityLexical marks hits produced by the lexical/full-text backend.
	ModalityLexical = "lexical"
)

// SourceDocument is a raw document handed to the indexing pipeline by the
// caller. It is immutable once submitted.
type SourceDocument struct {
	// SourceID is the stable identity of the source (a path or external id).
	// The document hash is derived from it, so re-submitting the same source
	// yields the same chunk identities.
	SourceID string

	// Text is the full raw text of the document.
	Text string

	// Collection names the vector store partition the document belongs to.
	Collection string

	// SourceType describes the kind of source (e.g. "note", "document").
	SourceType string

	// Metadata holds arbitrary data carried onto every chunk.
	Metadata map[string]interface{}
}

// Chunk is a bounded, overlapping window of a source document. It is the
// unit of embedding, retrieval and display.
//
// RawText and ContextualText are deliberately distinct fields: only
// ContextualText is ever sent to the embedding provider, and only RawText
// is ever surfaced to a caller for display. Collapsing them is how
// provenance headers end up polluting user-visible content.
type Chunk struct {
	// ID is the deterministic chunk identity: "<documentID>_chunk_<index>".
	ID string

	// DocumentID is the deterministic hash of the source identity.
	DocumentID string

	// Collection names the vector store partition the chunk belongs to.
	Collection string

	// Index is the zero-based position of the chunk within the document.
	Index int

	// Total is the number of chunks produced from the document.
	Total int

	// RawText is the unmodified window text, used for display.
	RawText string

	// ContextualText is the window text prefixed with provenance context,
	// used only as embedding input.
	ContextualText string

	// Metadata holds arbitrary data about the chunk.
	Metadata map[string]interface{}
}

// EmbeddingRecord is the persisted form of a chunk inside the vector
// store. Its lifetime is tied to the chunk.
type EmbeddingRecord struct {
	ChunkID    string
	Content    string
	Vector     []float32
	Collection string
	Metadata   map[string]interface{}
}

// RankedHit is one result of a single (collection, modality) retrieval
// request. Transient, produced fresh per query.
type RankedHit struct {
	ChunkID string
	Content string
	// Score is the backend-native score. For the dense modality this is a
	// distance (lower is better); fusion only relies on rank order.
	Score      float64
	Metadata   map[string]interface{}
	Modality   string
	Collection string
}

// FusedHit is a RankedHit with its reciprocal-rank-fusion score.
type FusedHit struct {
	RankedHit
	// FusedScore is the summed RRF contribution; higher is better.
	FusedScore float64
}

// RerankedHit is the final output unit: a fused hit with the component
// scores and the blended score it was ordered by.
type RerankedHit struct {
	FusedHit
	OriginalScore     float64
	CrossEncoderScore float64
	MetadataScore     float64
	LLMScore          float64
	CombinedScore     float64
}
