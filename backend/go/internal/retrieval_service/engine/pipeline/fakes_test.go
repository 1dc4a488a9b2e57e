package pipeline

import (
	"context"
	"sync"

	"Minerva_AI/backend/go/internal/models"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/interfaces"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/schema"
	"Minerva_AI/backend/go/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New("test", "", "")
}

// stubEmbedder returns a mapped vector per known text and a shared
// fallback for everything else, counting calls for idempotency checks.
type stubEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	err      error
	calls    int
}

func newStubEmbedder() *stubEmbedder {
	return &stubEmbedder{fallback: []float32{1, 0, 0}}
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := s.vectors[text]; ok {
			out[i] = v
		} else {
			out[i] = s.fallback
		}
	}
	return out, nil
}

func (s *stubEmbedder) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// faultyVectorStore wraps a VectorStore and fails selected operations.
type faultyVectorStore struct {
	interfaces.VectorStore
	existsErr     error
	queryFailsFor string
	queryErr      error
	blockQueryOn  <-chan struct{}
}

func (f *faultyVectorStore) Exists(ctx context.Context, collection, chunkID string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.VectorStore.Exists(ctx, collection, chunkID)
}

func (f *faultyVectorStore) Query(ctx context.Context, collection string, embedding []float32, topK int, filters map[string]interface{}) ([]*schema.RankedHit, error) {
	if f.blockQueryOn != nil {
		select {
		case <-f.blockQueryOn:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.queryFailsFor != "" && collection == f.queryFailsFor {
		return nil, f.queryErr
	}
	return f.VectorStore.Query(ctx, collection, embedding, topK, filters)
}

// stubLexical serves canned hits per collection.
type stubLexical struct {
	hits map[string][]*schema.RankedHit
	err  error
}

func (s *stubLexical) Search(ctx context.Context, collection, query string, topK int, filters map[string]interface{}) ([]*schema.RankedHit, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.hits[collection], nil
}

// recordingLexicalIndexer captures the chunks handed to the write side.
type recordingLexicalIndexer struct {
	mu      sync.Mutex
	indexed []*schema.Chunk
	err     error
}

func (r *recordingLexicalIndexer) EnsureIndex(ctx context.Context, collection string) error {
	return nil
}

func (r *recordingLexicalIndexer) Index(ctx context.Context, chunks []*schema.Chunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.indexed = append(r.indexed, chunks...)
	return nil
}

// recordingPublisher captures fact events, optionally failing.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*models.FactEvent
	err    error
}

func (r *recordingPublisher) Publish(ctx context.Context, event *models.FactEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}
