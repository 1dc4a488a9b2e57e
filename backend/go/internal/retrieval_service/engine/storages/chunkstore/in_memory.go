package chunkstore

import (
	"context"
	"sync"

	"Minerva_AI/backend/go/internal/retrieval_service/engine/interfaces"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/schema"
)

// InMemoryChunkStore is a thread-safe, in-memory implementation of the
// ChunkStore interface, used for local mode and tests.
type InMemoryChunkStore struct {
	mu     sync.RWMutex
	chunks map[string]*schema.Chunk
}

// NewInMemoryChunkStore creates a new instance of InMemoryChunkStore.
func NewInMemoryChunkStore() *InMemoryChunkStore {
	return &InMemoryChunkStore{
		chunks: make(map[string]*schema.Chunk),
	}
}

// Add inserts or replaces chunks keyed by chunk id.
func (s *InMemoryChunkStore) Add(ctx context.Context, chunks []*schema.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		s.chunks[chunk.ID] = chunk
	}
	return nil
}

// Get retrieves chunks by id. Missing ids are absent from the map.
func (s *InMemoryChunkStore) Get(ctx context.Context, ids []string) (map[string]*schema.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*schema.Chunk)
	for _, id := range ids {
		if chunk, ok := s.chunks[id]; ok {
			result[id] = chunk
		}
	}
	return result, nil
}

// Delete removes every chunk of a document.
func (s *InMemoryChunkStore) Delete(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, chunk := range s.chunks {
		if chunk.DocumentID == documentID {
			delete(s.chunks, id)
		}
	}
	return nil
}

// compile-time check to ensure InMemoryChunkStore implements the ChunkStore interface
var _ interfaces.ChunkStore = (*InMemoryChunkStore)(nil)
