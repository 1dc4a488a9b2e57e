package embedding

import "context"

// Embedding is the interface every embedding model client implements.
type Embedding interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embedding vectors for a batch of texts. The
	// result is index-aligned with the input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ModelType identifies an embedding provider.
type ModelType string

const (
	OpenAI ModelType = "openai"
	Gemini ModelType = "gemini"
	Ollama ModelType = "ollama"
)
