package vectorstore

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"Minerva_AI/backend/go/internal/retrieval_service/engine/interfaces"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/schema"
)

// InMemoryVectorStore is a thread-safe, in-memory implementation of the
// VectorStore interface, used for local mode and tests. Queries rank by
// L2 distance like the Milvus-backed store.
type InMemoryVectorStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]*schema.EmbeddingRecord
}

// NewInMemoryVectorStore creates a new instance of InMemoryVectorStore.
func NewInMemoryVectorStore() *InMemoryVectorStore {
	return &InMemoryVectorStore{
		collections: make(map[string]map[string]*schema.EmbeddingRecord),
	}
}

// Upsert inserts or replaces records keyed by chunk id.
func (s *InMemoryVectorStore) Upsert(ctx context.Context, collection string, records []*schema.EmbeddingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		coll = make(map[string]*schema.EmbeddingRecord)
		s.collections[collection] = coll
	}
	for _, record := range records {
		coll[record.ChunkID] = record
	}
	return nil
}

// Exists reports whether a chunk id is present in the collection.
func (s *InMemoryVectorStore) Exists(ctx context.Context, collection, chunkID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return false, nil
	}
	_, ok = coll[chunkID]
	return ok, nil
}

// Query returns up to topK hits ordered by ascending L2 distance.
func (s *InMemoryVectorStore) Query(ctx context.Context, collection string, embedding []float32, topK int, filters map[string]interface{}) ([]*schema.RankedHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil, nil
	}

	var hits []*schema.RankedHit
	for _, record := range coll {
		if !matchesFilters(record.Metadata, filters) {
			continue
		}
		hits = append(hits, &schema.RankedHit{
			ChunkID:    record.ChunkID,
			Content:    record.Content,
			Score:      l2Distance(embedding, record.Vector),
			Metadata:   record.Metadata,
			Modality:   schema.ModalityDense,
			Collection: collection,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score < hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Delete removes every chunk of a document from the collection.
func (s *InMemoryVectorStore) Delete(ctx context.Context, collection, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil
	}
	for id := range coll {
		if strings.HasPrefix(id, documentID+"_chunk_") {
			delete(coll, id)
		}
	}
	return nil
}

func matchesFilters(metadata map[string]interface{}, filters map[string]interface{}) bool {
	for key, want := range filters {
		wantStr, ok := want.(string)
		if !ok {
			continue
		}
		got, ok := metadata[key].(string)
		if !ok || got != wantStr {
			return false
		}
	}
	return true
}

func l2Distance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	// Dimension mismatch counts the missing components in full.
	for i := n; i < len(a); i++ {
		sum += float64(a[i]) * float64(a[i])
	}
	for i := n; i < len(b); i++ {
		sum += float64(b[i]) * float64(b[i])
	}
	return math.Sqrt(sum)
}

// compile-time check to ensure InMemoryVectorStore implements the VectorStore interface
var _ interfaces.VectorStore = (*InMemoryVectorStore)(nil)
