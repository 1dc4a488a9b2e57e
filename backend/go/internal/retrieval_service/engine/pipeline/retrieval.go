package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"Minerva_AI/backend/go/internal/retrieval_service/engine/fusion"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/interfaces"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/rerankers"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/schema"
	"Minerva_AI/backend/go/pkg/logger"
	"Minerva_AI/backend/go/pkg/util"
)

// hydrationCacheSize bounds the raw-chunk cache in front of the chunk
// store; hot chunks resurface across consecutive queries.
const hydrationCacheSize = 2048

// hydrationCacheTTL bounds staleness after a forced re-index.
const hydrationCacheTTL = 5 * time.Minute

// RetrievalPipeline orchestrates a query end to end: fan-out across
// collections and modalities, two-stage reciprocal rank fusion, raw-text
// hydration and multi-signal reranking. Each call is stateless.
type RetrievalPipeline struct {
	fanout         *FanOutRetriever
	chunkStore     interfaces.ChunkStore
	chunkCache     *util.LRUCache[string, *schema.Chunk]
	reranker       *rerankers.WeightedReranker
	rrfK           int
	alpha          float64
	candidateLimit int
	log            *logger.Logger
}

// NewRetrievalPipeline creates a RetrievalPipeline. chunkStore is
// optional; without it, hits surface the vector store's content column.
// alpha is the dense weight of the per-collection fusion stage,
// candidateLimit caps the fused candidates handed to the reranker.
func NewRetrievalPipeline(
	fanout *FanOutRetriever,
	chunkStore interfaces.ChunkStore,
	reranker *rerankers.WeightedReranker,
	rrfK int,
	alpha float64,
	candidateLimit int,
	log *logger.Logger,
) *RetrievalPipeline {
	if rrfK <= 0 {
		rrfK = fusion.DefaultK
	}
	if alpha <= 0 || alpha > 1 {
		alpha = 0.7
	}
	if candidateLimit <= 0 {
		candidateLimit = 20
	}
	chunkCache, _ := util.NewLRUCache[string, *schema.Chunk](util.CacheConfig{
		Capacity: hydrationCacheSize,
		TTL:      hydrationCacheTTL,
	})
	return &RetrievalPipeline{
		fanout:         fanout,
		chunkStore:     chunkStore,
		chunkCache:     chunkCache,
		reranker:       reranker,
		rrfK:           rrfK,
		alpha:          alpha,
		candidateLimit: candidateLimit,
		log:            log,
	}
}

// Run executes the query and returns at most topK reranked hits. An empty
// query short-circuits to an empty result; provider failures along the
// way degrade rather than error, so the returned slice may be partial but
// the error is reserved for programming mistakes.
func (p *RetrievalPipeline) Run(ctx context.Context, query string, collections []string, filters map[string]interface{}, topK int, opts rerankers.Options) ([]*schema.RerankedHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*schema.RerankedHit{}, nil
	}
	if topK <= 0 {
		topK = 10
	}

	fetchK := topK
	if p.candidateLimit > fetchK {
		fetchK = p.candidateLimit
	}

	perCollection := p.fanout.Search(ctx, query, collections, fetchK, filters)

	// Stage one: merge dense and lexical within each collection. Sorted
	// iteration keeps the pipeline deterministic for identical inputs.
	names := make([]string, 0, len(perCollection))
	for name := range perCollection {
		names = append(names, name)
	}
	sort.Strings(names)

	collectionLists := make([][]*schema.RankedHit, 0, len(names))
	for _, name := range names {
		results := perCollection[name]
		fusedCollection := fusion.Fuse(
			[][]*schema.RankedHit{results.Dense, results.Lexical},
			[]float64{p.alpha, 1 - p.alpha},
			p.rrfK, 0,
		)
		if len(fusedCollection) > 0 {
			collectionLists = append(collectionLists, fusion.AsRankedHits(fusedCollection))
		}
	}

	// Stage two: merge across collections with uniform weights.
	candidates := fusion.Fuse(collectionLists, nil, p.rrfK, p.candidateLimit)
	if len(candidates) == 0 {
		return []*schema.RerankedHit{}, nil
	}

	p.hydrate(ctx, candidates)

	return p.reranker.Rerank(ctx, query, candidates, topK, opts), nil
}

// hydrate replaces candidate content with the raw chunk text from the
// document of record, so callers never see embedded provenance headers.
// A failed lookup leaves the vector store content in place.
func (p *RetrievalPipeline) hydrate(ctx context.Context, candidates []*schema.FusedHit) {
	if p.chunkStore == nil {
		return
	}

	hydrated := make(map[string]*schema.Chunk, len(candidates))
	var missing []string
	for _, candidate := range candidates {
		if chunk, ok := p.chunkCache.Get(candidate.ChunkID); ok {
			hydrated[candidate.ChunkID] = chunk
		} else {
			missing = append(missing, candidate.ChunkID)
		}
	}

	if len(missing) > 0 {
		chunks, err := p.chunkStore.Get(ctx, missing)
		if err != nil {
			p.log.Warn(fmt.Sprintf("Raw chunk hydration failed, serving stored content: %v", err))
			chunks = nil
		}
		for id, chunk := range chunks {
			hydrated[id] = chunk
			p.chunkCache.Put(id, chunk)
		}
	}

	for _, candidate := range candidates {
		if chunk, ok := hydrated[candidate.ChunkID]; ok {
			candidate.Content = chunk.RawText
		}
	}
}
