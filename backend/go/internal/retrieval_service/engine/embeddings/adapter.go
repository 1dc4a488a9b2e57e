package embeddings

import (
	"context"
	"fmt"

	"Minerva_AI/backend/go/internal/embedding"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/interfaces"
)

// ProviderAdapter bridges the shared provider-agnostic embedding clients
// to the engine's EmbeddingModel interface.
type ProviderAdapter struct {
	model embedding.Embedding
}

// NewProviderAdapter wraps an embedding client for use by the engine.
func NewProviderAdapter(model embedding.Embedding) (*ProviderAdapter, error) {
	if model == nil {
		return nil, fmt.Errorf("embedding model is nil")
	}
	return &ProviderAdapter{model: model}, nil
}

// Embed generates index-aligned vectors for the given texts.
func (a *ProviderAdapter) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := a.model.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding provider call failed: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding provider returned %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}

// compile-time check to ensure ProviderAdapter implements the EmbeddingModel interface
var _ interfaces.EmbeddingModel = (*ProviderAdapter)(nil)
