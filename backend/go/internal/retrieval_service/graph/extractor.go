package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"Minerva_AI/backend/go/internal/models"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/interfaces"
)

const extractFactsPrompt = `
You are an advanced algorithm designed to extract structured information from text to construct knowledge graphs. Your goal is to capture comprehensive and accurate information. Follow these key principles:

1. Extract only explicitly stated information from the text.
2. Establish relationships among the entities mentioned in the text.
3. Use consistent, general, and timeless relationship types.
   - Example: Prefer "professor" over "became_professor".
4. Maintain consistent naming for entities across the extracted data.

Respond with a JSON object of the form:
{"facts": [{"source": "...", "type": "...", "target": "..."}]}

Respond with the JSON object only, no surrounding prose.`

// FactExtractor turns raw chunk text into graph facts using an LLM.
type FactExtractor struct {
	llm interfaces.LLM
}

// NewFactExtractor creates a new FactExtractor.
func NewFactExtractor(llm interfaces.LLM) *FactExtractor {
	return &FactExtractor{llm: llm}
}

// Extract extracts facts from one chunk of a fact event. The returned
// facts carry the event's user id and the chunk they came from.
func (e *FactExtractor) Extract(ctx context.Context, event *models.FactEvent, chunk *models.FactChunk) ([]*models.Fact, error) {
	prompt := fmt.Sprintf("%s\n\nText:\n%s", extractFactsPrompt, chunk.Text)

	raw, err := e.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate facts: %w", err)
	}

	var response struct {
		Facts []*models.Fact `json:"facts"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fact response: %w", err)
	}

	for _, fact := range response.Facts {
		fact.UserID = event.UserID
		fact.ChunkID = chunk.ChunkID
	}
	return response.Facts, nil
}

// extractJSON strips markdown code fences and surrounding prose that
// models tend to wrap around JSON output.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
