package models

import "time"

// Fact represents one entity relationship extracted from indexed content,
// destined for the graph database.
type Fact struct {
	Source  string `json:"source"`   // source entity name
	Target  string `json:"target"`   // target entity name
	Type    string `json:"type"`     // relationship type (general, timeless form)
	UserID  string `json:"user_id"`  // opaque tenant scoping attribute
	ChunkID string `json:"chunk_id"` // chunk the fact was extracted from
}

// FactChunk is the slice of indexed content a fact event carries for
// extraction on the consumer side.
type FactChunk struct {
	ChunkID string `json:"chunk_id"`
	Text    string `json:"text"`
}

// FactEvent is the message published after a successful index upsert. The
// graph consumer extracts facts from it asynchronously; the indexing path
// never waits on it.
type FactEvent struct {
	EventID    string       `json:"event_id"`
	DocumentID string       `json:"document_id"`
	Collection string       `json:"collection"`
	UserID     string       `json:"user_id"`
	Chunks     []*FactChunk `json:"chunks"`
	EmittedAt  time.Time    `json:"emitted_at"`
}
