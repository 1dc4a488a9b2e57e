package llms

import (
	"context"
	"fmt"

	"Minerva_AI/backend/go/internal/retrieval_service/engine/interfaces"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiLLM is a generative client for the Google GenAI API, used for
// chunk contextualization, relevance scoring and fact extraction.
type GeminiLLM struct {
	model *genai.GenerativeModel
}

// NewGeminiLLM creates a new GeminiLLM for the named model.
func NewGeminiLLM(apiKey, modelName string) (*GeminiLLM, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiLLM{model: client.GenerativeModel(modelName)}, nil
}

// Generate sends a plain text prompt and returns the plain text answer.
func (g *GeminiLLM) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini failed to generate content: %w", err)
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if text, ok := part.(genai.Text); ok {
				return string(text), nil
			}
		}
	}
	return "", fmt.Errorf("gemini response was empty or in an unexpected format")
}

// compile-time check to ensure GeminiLLM implements the LLM interface
var _ interfaces.LLM = (*GeminiLLM)(nil)
