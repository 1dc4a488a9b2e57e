package rerankers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Minerva_AI/backend/go/internal/retrieval_service/engine/schema"
	"Minerva_AI/backend/go/pkg/logger"
)

var testWeights = Weights{Original: 0.3, CrossEncoder: 0.4, Metadata: 0.2, LLM: 0.1}

type fakeCrossEncoder struct {
	scores []float32
	err    error
}

func (f *fakeCrossEncoder) Score(ctx context.Context, query string, passages []string) ([]float32, error) {
	return f.scores, f.err
}

type fakeLLM struct {
	answer string
	err    error
	calls  int
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.answer, f.err
}

func candidate(id string, fusedScore float64, metadata map[string]interface{}) *schema.FusedHit {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return &schema.FusedHit{
		RankedHit: schema.RankedHit{
			ChunkID:    id,
			Content:    "content of " + id,
			Metadata:   metadata,
			Modality:   schema.ModalityDense,
			Collection: "notes",
		},
		FusedScore: fusedScore,
	}
}

func newTestReranker(ce *fakeCrossEncoder, llm *fakeLLM) *WeightedReranker {
	r := NewWeightedReranker(nil, nil, testWeights, 10, logger.New("test", "", ""))
	if ce != nil {
		r.crossEncoder = ce
	}
	if llm != nil {
		r.relevanceLLM = llm
	}
	// Frozen clock keeps the recency boost deterministic.
	r.now = func() time.Time { return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) }
	return r
}

func TestRerankEmptyInput(t *testing.T) {
	r := newTestReranker(nil, nil)
	assert.Nil(t, r.Rerank(context.Background(), "query", nil, 5, Options{}))
}

func TestRerankOrdersByCombinedScoreAndTruncates(t *testing.T) {
	r := newTestReranker(nil, nil)
	candidates := []*schema.FusedHit{
		candidate("low", 0.01, nil),
		candidate("high", 0.05, nil),
		candidate("mid", 0.03, nil),
	}

	hits := r.Rerank(context.Background(), "query", candidates, 2, Options{})
	require.Len(t, hits, 2)

	assert.Equal(t, "high", hits[0].ChunkID)
	assert.Equal(t, "mid", hits[1].ChunkID)
	assert.Greater(t, hits[0].CombinedScore, hits[1].CombinedScore)
	assert.Equal(t, 1.0, hits[0].OriginalScore, "best fused score rescales to 1")
	assert.Equal(t, neutralScore, hits[0].CrossEncoderScore, "missing provider stays neutral")
	assert.Equal(t, neutralScore, hits[0].LLMScore)
}

func TestRerankNeutralOnAllProviderFailures(t *testing.T) {
	ce := &fakeCrossEncoder{err: errors.New("rerank endpoint down")}
	llm := &fakeLLM{err: errors.New("model offline")}
	r := newTestReranker(ce, llm)

	hits := r.Rerank(context.Background(), "query", []*schema.FusedHit{candidate("a", 0.02, nil)}, 5, Options{})
	require.Len(t, hits, 1)

	assert.Equal(t, neutralScore, hits[0].CrossEncoderScore)
	assert.Equal(t, neutralScore, hits[0].LLMScore)
}

func TestRerankCrossEncoderScoresClamped(t *testing.T) {
	ce := &fakeCrossEncoder{scores: []float32{1.7, -0.5}}
	r := newTestReranker(ce, nil)

	hits := r.Rerank(context.Background(), "query", []*schema.FusedHit{
		candidate("a", 0.02, nil),
		candidate("b", 0.01, nil),
	}, 5, Options{})
	require.Len(t, hits, 2)

	byID := map[string]*schema.RerankedHit{hits[0].ChunkID: hits[0], hits[1].ChunkID: hits[1]}
	assert.Equal(t, 1.0, byID["a"].CrossEncoderScore)
	assert.Equal(t, 0.0, byID["b"].CrossEncoderScore)
}

func TestRerankLLMScoreParsing(t *testing.T) {
	llm := &fakeLLM{answer: "Document 1: 9\nDocument 2: 2.5\nnonsense line"}
	r := newTestReranker(nil, llm)

	hits := r.Rerank(context.Background(), "query", []*schema.FusedHit{
		candidate("a", 0.03, nil),
		candidate("b", 0.02, nil),
		candidate("c", 0.01, nil),
	}, 5, Options{})
	require.Len(t, hits, 3)

	byID := map[string]*schema.RerankedHit{}
	for _, h := range hits {
		byID[h.ChunkID] = h
	}
	assert.InDelta(t, 0.9, byID["a"].LLMScore, 1e-9)
	assert.InDelta(t, 0.25, byID["b"].LLMScore, 1e-9)
	assert.InDelta(t, 0.5, byID["c"].LLMScore, 1e-9, "unscored document keeps the midpoint")
	assert.Equal(t, 1, llm.calls, "relevance scoring is one batched call")
}

func TestRerankLLMSkipsBeyondLimit(t *testing.T) {
	llm := &fakeLLM{answer: "Document 1: 10"}
	r := newTestReranker(nil, llm)
	r.llmLimit = 2

	candidates := []*schema.FusedHit{
		candidate("a", 0.03, nil),
		candidate("b", 0.02, nil),
		candidate("c", 0.01, nil),
	}
	hits := r.Rerank(context.Background(), "query", candidates, 5, Options{})
	require.Len(t, hits, 3)

	assert.Equal(t, 0, llm.calls, "over-limit batches skip the LLM signal entirely")
	for _, h := range hits {
		assert.Equal(t, neutralScore, h.LLMScore)
	}
}

func TestRerankMetadataBoosts(t *testing.T) {
	r := newTestReranker(nil, nil)

	verifiedRecent := candidate("fresh", 0.02, map[string]interface{}{
		schema.MetadataKeyCreatedAt:  "2026-07-30T00:00:00Z",
		schema.MetadataKeyIsVerified: true,
		schema.MetadataKeySourceType: "note",
	})
	staleUnverified := candidate("stale", 0.02, map[string]interface{}{
		schema.MetadataKeyCreatedAt: "2020-01-01T00:00:00Z",
	})

	hits := r.Rerank(context.Background(), "query", []*schema.FusedHit{staleUnverified, verifiedRecent}, 5, Options{
		PreferredSourceTypes: []string{"note"},
	})
	require.Len(t, hits, 2)

	assert.Equal(t, "fresh", hits[0].ChunkID)
	assert.Greater(t, hits[0].MetadataScore, hits[1].MetadataScore)
	assert.LessOrEqual(t, hits[0].MetadataScore, 1.0, "metadata component stays clamped")
}

func TestRerankPreferredCollectionBoost(t *testing.T) {
	r := newTestReranker(nil, nil)

	inPreferred := candidate("a", 0.02, nil)
	inPreferred.Collection = "journal"
	other := candidate("b", 0.02, nil)

	hits := r.Rerank(context.Background(), "query", []*schema.FusedHit{other, inPreferred}, 5, Options{
		PreferredCollections: []string{"Journal"},
	})
	require.Len(t, hits, 2)

	assert.Equal(t, "a", hits[0].ChunkID, "collection preference matches case-insensitively")
}

func TestRescaleFusedAllEqual(t *testing.T) {
	scores := rescaleFused([]*schema.FusedHit{
		candidate("a", 0.02, nil),
		candidate("b", 0.02, nil),
	})
	assert.Equal(t, []float64{1.0, 1.0}, scores)
}

func TestRecencyBoostDecay(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	assert.InDelta(t, 0.2, recencyBoost(now, now), 1e-9)
	assert.InDelta(t, 0.1, recencyBoost(now.AddDate(0, 0, -182), now), 0.01)
	assert.Equal(t, 0.0, recencyBoost(now.AddDate(-2, 0, 0), now))
	assert.InDelta(t, 0.2, recencyBoost(now.AddDate(0, 0, 10), now), 1e-9, "future timestamps count as fresh")
}
