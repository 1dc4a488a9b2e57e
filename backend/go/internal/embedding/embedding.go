package embedding

import (
	"fmt"
)

// NewEmdModel creates an Embedding model instance for the given provider.
//
// Parameters:
//
//	provider: the embedding provider ("gemini", "openai", "ollama").
//	model: the model name to use.
//	apiKey: the provider API key (unused for ollama).
//	baseURL: the provider base URL (only used by ollama).
//
// Returns an error when the provider is unsupported or the client cannot
// be initialized.
func NewEmdModel(provider, model, apiKey, baseURL string) (Embedding, error) {
	switch ModelType(provider) {
	case Gemini:
		return NewGoogleModel(apiKey, model)
	case OpenAI:
		return NewOpenAIModel(apiKey, model)
	case Ollama:
		return NewOllamaModel(model, baseURL)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}
