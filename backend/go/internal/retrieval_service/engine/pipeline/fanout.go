package pipeline

import (
	"context"
	"fmt"
	"time"

	"Minerva_AI/backend/go/internal/retrieval_service/engine/interfaces"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/schema"
	"Minerva_AI/backend/go/pkg/logger"
)

// CollectionResults holds the two per-modality ranked lists one
// collection contributed to a query.
type CollectionResults struct {
	Dense   []*schema.RankedHit
	Lexical []*schema.RankedHit
}

// branchResult carries one finished (collection, modality) request back
// to the collector. Branches own their result exclusively until it is
// received; no shared state is mutated concurrently.
type branchResult struct {
	collection string
	modality   string
	hits       []*schema.RankedHit
}

// FanOutRetriever issues one dense and one lexical request per collection
// concurrently. Every branch carries its own timeout; a slow or failing
// branch degrades to an empty list with a warning instead of failing the
// query, and an expired top-level deadline returns whatever branches
// completed in time.
type FanOutRetriever struct {
	embedder           interfaces.EmbeddingModel
	vectorStore        interfaces.VectorStore
	lexical            interfaces.LexicalSearcher
	defaultCollections []string
	branchTimeout      time.Duration
	log                *logger.Logger
}

// NewFanOutRetriever creates a FanOutRetriever. lexical may be nil; the
// lexical modality then degrades to a second dense pass so fusion always
// receives two lists per collection.
func NewFanOutRetriever(
	embedder interfaces.EmbeddingModel,
	vectorStore interfaces.VectorStore,
	lexical interfaces.LexicalSearcher,
	defaultCollections []string,
	branchTimeout time.Duration,
	log *logger.Logger,
) *FanOutRetriever {
	if branchTimeout <= 0 {
		branchTimeout = 3 * time.Second
	}
	return &FanOutRetriever{
		embedder:           embedder,
		vectorStore:        vectorStore,
		lexical:            lexical,
		defaultCollections: defaultCollections,
		branchTimeout:      branchTimeout,
		log:                log,
	}
}

// Search fans the query out across the given collections (the configured
// default set when none are named) and returns the per-collection ranked
// lists. Each branch fetches up to 2k candidates so fusion has headroom.
func (r *FanOutRetriever) Search(ctx context.Context, query string, collections []string, k int, filters map[string]interface{}) map[string]*CollectionResults {
	if len(collections) == 0 {
		collections = r.defaultCollections
	}
	fetch := 2 * k
	if fetch <= 0 {
		fetch = 20
	}

	// The query is embedded exactly once, shared by every dense branch.
	queryVector := r.embedQuery(ctx, query)

	resultCh := make(chan branchResult, 2*len(collections))
	for _, collection := range collections {
		go func(collection string) {
			resultCh <- branchResult{
				collection: collection,
				modality:   schema.ModalityDense,
				hits:       r.denseBranch(ctx, collection, queryVector, fetch, filters),
			}
		}(collection)
		go func(collection string) {
			resultCh <- branchResult{
				collection: collection,
				modality:   schema.ModalityLexical,
				hits:       r.lexicalBranch(ctx, collection, query, queryVector, fetch, filters),
			}
		}(collection)
	}

	results := make(map[string]*CollectionResults, len(collections))
	for _, collection := range collections {
		results[collection] = &CollectionResults{}
	}

	pending := 2 * len(collections)
	for pending > 0 {
		select {
		case res := <-resultCh:
			pending--
			if res.modality == schema.ModalityDense {
				results[res.collection].Dense = res.hits
			} else {
				results[res.collection].Lexical = res.hits
			}
		case <-ctx.Done():
			// Deadline exceeded: return the partial result assembled so
			// far. Outstanding branches are bounded by their own timeouts
			// and drain into the buffered channel.
			r.log.Warn(fmt.Sprintf("Search deadline exceeded with %d branches outstanding, returning partial results", pending))
			return results
		}
	}
	return results
}

// embedQuery returns the query vector, or nil when the embedding provider
// is unavailable. A nil vector empties the dense branches; the query as a
// whole still proceeds.
func (r *FanOutRetriever) embedQuery(ctx context.Context, query string) []float32 {
	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil || len(vectors) == 0 {
		r.log.Warn(fmt.Sprintf("Failed to embed query, dense retrieval degraded: %v", err))
		return nil
	}
	return vectors[0]
}

// denseBranch runs one similarity request against one collection under
// the branch timeout.
func (r *FanOutRetriever) denseBranch(ctx context.Context, collection string, queryVector []float32, fetch int, filters map[string]interface{}) []*schema.RankedHit {
	if queryVector == nil {
		return nil
	}
	branchCtx, cancel := context.WithTimeout(ctx, r.branchTimeout)
	defer cancel()

	hits, err := r.vectorStore.Query(branchCtx, collection, queryVector, fetch, filters)
	if err != nil {
		r.log.Warn(fmt.Sprintf("Dense search failed for collection %s: %v", collection, err))
		return nil
	}
	for _, hit := range hits {
		hit.Modality = schema.ModalityDense
		hit.Collection = collection
	}
	return hits
}

// lexicalBranch runs one lexical request against one collection. Without
// a configured lexical backend the branch re-runs the dense query — the
// documented degradation keeps fusion well-defined, and the hits retain
// the dense modality label so provenance shows which backend actually
// answered.
func (r *FanOutRetriever) lexicalBranch(ctx context.Context, collection, query string, queryVector []float32, fetch int, filters map[string]interface{}) []*schema.RankedHit {
	if r.lexical == nil {
		return r.denseBranch(ctx, collection, queryVector, fetch, filters)
	}

	branchCtx, cancel := context.WithTimeout(ctx, r.branchTimeout)
	defer cancel()

	hits, err := r.lexical.Search(branchCtx, collection, query, fetch, filters)
	if err != nil {
		r.log.Warn(fmt.Sprintf("Lexical search failed for collection %s: %v", collection, err))
		return nil
	}
	for _, hit := range hits {
		hit.Modality = schema.ModalityLexical
		hit.Collection = collection
	}
	return hits
}
