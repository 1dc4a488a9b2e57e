package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Minerva_AI/backend/go/internal/retrieval_service/engine/schema"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/storages/vectorstore"
)

func seedVectorStore(t *testing.T, store *vectorstore.InMemoryVectorStore, collection string, ids ...string) {
	t.Helper()
	records := make([]*schema.EmbeddingRecord, len(ids))
	for i, id := range ids {
		records[i] = &schema.EmbeddingRecord{
			ChunkID:    id,
			Content:    "content of " + id,
			Vector:     []float32{1, float32(i) * 0.1, 0},
			Collection: collection,
			Metadata:   map[string]interface{}{schema.MetadataKeyUserID: "user-1"},
		}
	}
	require.NoError(t, store.Upsert(context.Background(), collection, records))
}

func TestFanOutSearchLabelsModalities(t *testing.T) {
	store := vectorstore.NewInMemoryVectorStore()
	seedVectorStore(t, store, "notes", "doc1_chunk_0", "doc1_chunk_1")

	lexical := &stubLexical{hits: map[string][]*schema.RankedHit{
		"notes": {{ChunkID: "doc1_chunk_1", Content: "content of doc1_chunk_1", Score: 2.0}},
	}}
	r := NewFanOutRetriever(newStubEmbedder(), store, lexical, []string{"notes"}, time.Second, testLogger())

	results := r.Search(context.Background(), "roadmap", nil, 5, nil)
	require.Contains(t, results, "notes")

	require.NotEmpty(t, results["notes"].Dense)
	for _, hit := range results["notes"].Dense {
		assert.Equal(t, schema.ModalityDense, hit.Modality)
		assert.Equal(t, "notes", hit.Collection)
	}
	require.Len(t, results["notes"].Lexical, 1)
	assert.Equal(t, schema.ModalityLexical, results["notes"].Lexical[0].Modality)
	assert.Equal(t, "notes", results["notes"].Lexical[0].Collection)
}

func TestFanOutSearchUsesDefaultCollections(t *testing.T) {
	store := vectorstore.NewInMemoryVectorStore()
	seedVectorStore(t, store, "notes", "a_chunk_0")
	seedVectorStore(t, store, "journal", "b_chunk_0")

	r := NewFanOutRetriever(newStubEmbedder(), store, nil, []string{"notes", "journal"}, time.Second, testLogger())

	results := r.Search(context.Background(), "query", nil, 5, nil)
	assert.Len(t, results, 2)
	assert.Contains(t, results, "notes")
	assert.Contains(t, results, "journal")
}

func TestFanOutSearchIsolatesFailingCollection(t *testing.T) {
	store := vectorstore.NewInMemoryVectorStore()
	seedVectorStore(t, store, "notes", "a_chunk_0")
	seedVectorStore(t, store, "journal", "b_chunk_0")
	faulty := &faultyVectorStore{
		VectorStore:   store,
		queryFailsFor: "journal",
		queryErr:      errors.New("partition offline"),
	}

	r := NewFanOutRetriever(newStubEmbedder(), faulty, nil, nil, time.Second, testLogger())

	results := r.Search(context.Background(), "query", []string{"notes", "journal"}, 5, nil)
	require.Contains(t, results, "journal")

	assert.Empty(t, results["journal"].Dense, "a failing branch degrades to an empty list")
	assert.NotEmpty(t, results["notes"].Dense, "healthy collections are unaffected")
}

func TestFanOutSearchDegradesLexicalToDense(t *testing.T) {
	store := vectorstore.NewInMemoryVectorStore()
	seedVectorStore(t, store, "notes", "a_chunk_0")

	r := NewFanOutRetriever(newStubEmbedder(), store, nil, []string{"notes"}, time.Second, testLogger())

	results := r.Search(context.Background(), "query", nil, 5, nil)
	require.NotEmpty(t, results["notes"].Lexical)
	// Without a lexical backend the second pass is dense and says so.
	assert.Equal(t, schema.ModalityDense, results["notes"].Lexical[0].Modality)
	assert.Equal(t, results["notes"].Dense[0].ChunkID, results["notes"].Lexical[0].ChunkID)
}

func TestFanOutSearchToleratesEmbeddingFailure(t *testing.T) {
	store := vectorstore.NewInMemoryVectorStore()
	seedVectorStore(t, store, "notes", "a_chunk_0")
	embedder := newStubEmbedder()
	embedder.err = errors.New("provider down")

	lexical := &stubLexical{hits: map[string][]*schema.RankedHit{
		"notes": {{ChunkID: "a_chunk_0", Content: "content of a_chunk_0", Score: 1.5}},
	}}
	r := NewFanOutRetriever(embedder, store, lexical, []string{"notes"}, time.Second, testLogger())

	results := r.Search(context.Background(), "query", nil, 5, nil)
	assert.Empty(t, results["notes"].Dense, "no query vector means no dense hits")
	assert.NotEmpty(t, results["notes"].Lexical, "lexical retrieval still answers")
}

func TestFanOutSearchReturnsPartialOnDeadline(t *testing.T) {
	store := vectorstore.NewInMemoryVectorStore()
	seedVectorStore(t, store, "notes", "a_chunk_0")
	// Dense branches block until their context expires.
	blocked := &faultyVectorStore{VectorStore: store, blockQueryOn: make(chan struct{})}

	r := NewFanOutRetriever(newStubEmbedder(), blocked, nil, []string{"notes"}, time.Second, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan map[string]*CollectionResults, 1)
	go func() { done <- r.Search(ctx, "query", nil, 5, nil) }()

	select {
	case results := <-done:
		require.Contains(t, results, "notes")
		assert.Empty(t, results["notes"].Dense)
	case <-time.After(2 * time.Second):
		t.Fatal("Search did not return after the deadline expired")
	}
}

func TestFanOutFilterScoping(t *testing.T) {
	store := vectorstore.NewInMemoryVectorStore()
	require.NoError(t, store.Upsert(context.Background(), "notes", []*schema.EmbeddingRecord{
		{
			ChunkID:  "mine_chunk_0",
			Content:  "my note",
			Vector:   []float32{1, 0, 0},
			Metadata: map[string]interface{}{schema.MetadataKeyUserID: "user-1"},
		},
		{
			ChunkID:  "theirs_chunk_0",
			Content:  "someone else's note",
			Vector:   []float32{1, 0, 0},
			Metadata: map[string]interface{}{schema.MetadataKeyUserID: "user-2"},
		},
	}))

	r := NewFanOutRetriever(newStubEmbedder(), store, nil, []string{"notes"}, time.Second, testLogger())

	results := r.Search(context.Background(), "query", nil, 5, map[string]interface{}{
		schema.MetadataKeyUserID: "user-1",
	})
	require.Len(t, results["notes"].Dense, 1)
	assert.Equal(t, "mine_chunk_0", results["notes"].Dense[0].ChunkID)
}
