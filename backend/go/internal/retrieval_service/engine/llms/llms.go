package llms

import (
	"fmt"

	"Minerva_AI/backend/go/internal/config"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/interfaces"
)

// NewLLM creates an LLM client for the configured provider.
func NewLLM(cfg *config.LLMConfig) (interfaces.LLM, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiLLM(cfg.Gemini.APIKey, cfg.Gemini.Model)
	case "ollama":
		return NewOllamaLLM(cfg.Ollama.Model, cfg.Ollama.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
