package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Minerva_AI/backend/go/internal/retrieval_service/engine/rerankers"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/schema"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/storages/chunkstore"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/storages/vectorstore"
)

type retrievalFixture struct {
	pipeline    *RetrievalPipeline
	embedder    *stubEmbedder
	vectorStore *vectorstore.InMemoryVectorStore
	chunkStore  *chunkstore.InMemoryChunkStore
	lexical     *stubLexical
}

func newRetrievalFixture() *retrievalFixture {
	f := &retrievalFixture{
		embedder:    newStubEmbedder(),
		vectorStore: vectorstore.NewInMemoryVectorStore(),
		chunkStore:  chunkstore.NewInMemoryChunkStore(),
		lexical:     &stubLexical{hits: map[string][]*schema.RankedHit{}},
	}
	log := testLogger()
	fanout := NewFanOutRetriever(f.embedder, f.vectorStore, f.lexical, []string{"notes"}, time.Second, log)
	reranker := rerankers.NewWeightedReranker(nil, nil, rerankers.Weights{
		Original: 0.3, CrossEncoder: 0.4, Metadata: 0.2, LLM: 0.1,
	}, 10, log)
	f.pipeline = NewRetrievalPipeline(fanout, f.chunkStore, reranker, 60, 0.7, 20, log)
	return f
}

// seed stores one chunk whose vector store content carries an embedded
// provenance header while the chunk store holds the clean raw text.
func (f *retrievalFixture) seed(t *testing.T, collection, chunkID, rawText string, vector []float32) {
	t.Helper()
	require.NoError(t, f.vectorStore.Upsert(context.Background(), collection, []*schema.EmbeddingRecord{{
		ChunkID:    chunkID,
		Content:    "[source: note | name: x | chunk 1 of 1]\n\n" + rawText,
		Vector:     vector,
		Collection: collection,
		Metadata:   map[string]interface{}{},
	}}))
	require.NoError(t, f.chunkStore.Add(context.Background(), []*schema.Chunk{{
		ID:         chunkID,
		DocumentID: "doc",
		Collection: collection,
		RawText:    rawText,
	}}))
}

func TestRunEmptyQueryShortCircuits(t *testing.T) {
	f := newRetrievalFixture()

	hits, err := f.pipeline.Run(context.Background(), "   ", nil, nil, 5, rerankers.Options{})
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
	assert.Equal(t, 0, f.embedder.callCount(), "an empty query never reaches the retrievers")
}

func TestRunNoResults(t *testing.T) {
	f := newRetrievalFixture()

	hits, err := f.pipeline.Run(context.Background(), "anything", nil, nil, 5, rerankers.Options{})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRunHydratesRawText(t *testing.T) {
	f := newRetrievalFixture()
	f.seed(t, "notes", "doc_chunk_0", "The roadmap shifts to Q4.", []float32{1, 0, 0})

	hits, err := f.pipeline.Run(context.Background(), "roadmap", nil, nil, 5, rerankers.Options{})
	require.NoError(t, err)
	require.Len(t, hits, 1)

	assert.Equal(t, "The roadmap shifts to Q4.", hits[0].Content, "callers see raw text, never embedding input")
	assert.NotContains(t, hits[0].Content, "[source:")
}

func TestRunServesStoredContentWhenHydrationMisses(t *testing.T) {
	f := newRetrievalFixture()
	// Vector store entry without a chunk store counterpart.
	require.NoError(t, f.vectorStore.Upsert(context.Background(), "notes", []*schema.EmbeddingRecord{{
		ChunkID:    "ghost_chunk_0",
		Content:    "stored content",
		Vector:     []float32{1, 0, 0},
		Collection: "notes",
		Metadata:   map[string]interface{}{},
	}}))

	hits, err := f.pipeline.Run(context.Background(), "anything", nil, nil, 5, rerankers.Options{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "stored content", hits[0].Content)
}

func TestRunMergesModalitiesAcrossCollections(t *testing.T) {
	f := newRetrievalFixture()
	f.seed(t, "notes", "a_chunk_0", "alpha text", []float32{1, 0, 0})
	f.seed(t, "notes", "b_chunk_0", "beta text", []float32{0.9, 0.5, 0})
	f.seed(t, "journal", "c_chunk_0", "gamma text", []float32{1, 0.1, 0})
	// "b" also answers lexically, so it collects contributions from both
	// modalities and outranks the purely dense "a".
	f.lexical.hits["notes"] = []*schema.RankedHit{
		{ChunkID: "b_chunk_0", Content: "beta text", Score: 3.0},
	}

	hits, err := f.pipeline.Run(context.Background(), "query", []string{"notes", "journal"}, nil, 10, rerankers.Options{})
	require.NoError(t, err)
	require.Len(t, hits, 3)

	ids := []string{hits[0].ChunkID, hits[1].ChunkID, hits[2].ChunkID}
	assert.Contains(t, ids, "c_chunk_0", "every collection contributes candidates")
	assert.Less(t, indexOf(ids, "b_chunk_0"), indexOf(ids, "a_chunk_0"),
		"dual-modality presence outranks a single dense hit")
}

func indexOf(list []string, value string) int {
	for i, item := range list {
		if item == value {
			return i
		}
	}
	return len(list)
}

func TestRunRespectsTopK(t *testing.T) {
	f := newRetrievalFixture()
	for i, id := range []string{"a_chunk_0", "b_chunk_0", "c_chunk_0", "d_chunk_0"} {
		f.seed(t, "notes", id, "text "+id, []float32{1, float32(i) * 0.1, 0})
	}

	hits, err := f.pipeline.Run(context.Background(), "query", nil, nil, 2, rerankers.Options{})
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestRunIsDeterministic(t *testing.T) {
	f := newRetrievalFixture()
	f.seed(t, "notes", "a_chunk_0", "alpha", []float32{1, 0, 0})
	f.seed(t, "notes", "b_chunk_0", "beta", []float32{1, 0, 0})
	f.seed(t, "journal", "c_chunk_0", "gamma", []float32{1, 0, 0})

	first, err := f.pipeline.Run(context.Background(), "query", []string{"notes", "journal"}, nil, 10, rerankers.Options{})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := f.pipeline.Run(context.Background(), "query", []string{"notes", "journal"}, nil, 10, rerankers.Options{})
		require.NoError(t, err)
		require.Equal(t, len(first), len(again))
		for j := range first {
			assert.Equal(t, first[j].ChunkID, again[j].ChunkID, "identical inputs must rank identically")
		}
	}
}
