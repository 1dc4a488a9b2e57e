package llms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"Minerva_AI/backend/go/internal/retrieval_service/engine/interfaces"

	ollama "github.com/ollama/ollama/api"
)

// OllamaLLM is a generative client for a local Ollama server.
type OllamaLLM struct {
	client *ollama.Client
	model  string
}

// NewOllamaLLM creates a new OllamaLLM client. An empty baseURL defaults
// to "http://localhost:11434".
func NewOllamaLLM(model, baseURL string) (*OllamaLLM, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	hc := &http.Client{
		Timeout: 120 * time.Second,
	}

	return &OllamaLLM{client: ollama.NewClient(parsedURL, hc), model: model}, nil
}

// Generate sends a plain text prompt and returns the complete response.
func (o *OllamaLLM) Generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &ollama.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: &stream,
	}

	var sb strings.Builder
	err := o.client.Generate(ctx, req, func(resp ollama.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama failed to generate content: %w", err)
	}
	return sb.String(), nil
}

// compile-time check to ensure OllamaLLM implements the LLM interface
var _ interfaces.LLM = (*OllamaLLM)(nil)
