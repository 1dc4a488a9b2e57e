package rerankers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"Minerva_AI/backend/go/internal/retrieval_service/engine/interfaces"
	"Minerva_AI/backend/go/pkg/circuitbreaker"
)

const defaultRerankURL = "https://api.cohere.ai/v1/rerank"

// CohereCrossEncoder implements the CrossEncoder interface against a
// Cohere-compatible rerank API. The model scores each (query, passage)
// pair jointly in one batched request. A circuit breaker sheds calls to
// the endpoint after repeated failures; the reranker treats the resulting
// error as a degraded signal, so queries keep answering while the circuit
// is open.
type CohereCrossEncoder struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
	breaker    circuitbreaker.CircuitBreaker
}

// cohereRerankRequest defines the request body for the rerank API.
type cohereRerankRequest struct {
	Model           string   `json:"model"`
	Query           string   `json:"query"`
	Documents       []string `json:"documents"`
	TopN            int      `json:"top_n"`
	ReturnDocuments bool     `json:"return_documents"`
}

// cohereRerankResult defines one scored document in the API response.
type cohereRerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

type cohereRerankResponse struct {
	Results []cohereRerankResult `json:"results"`
}

// NewCohereCrossEncoder creates a new CohereCrossEncoder. An empty url
// falls back to the public Cohere endpoint.
func NewCohereCrossEncoder(url, apiKey, model string) *CohereCrossEncoder {
	if url == "" {
		url = defaultRerankURL
	}
	return &CohereCrossEncoder{
		url:        url,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		breaker:    circuitbreaker.New(3, 1, 30*time.Second),
	}
}

// Score returns one relevance score per passage, aligned with the input
// order. Passages missing from the API response score 0.
func (r *CohereCrossEncoder) Score(ctx context.Context, query string, passages []string) ([]float32, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	reqBody := cohereRerankRequest{
		Model:           r.model,
		Query:           query,
		Documents:       passages,
		TopN:            len(passages),
		ReturnDocuments: false,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	result, err := r.breaker.Execute(func() (interface{}, error) {
		resp, err := r.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to call rerank api: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("rerank api returned non-200 status: %s", resp.Status)
		}

		var rerankResp cohereRerankResponse
		if err := json.NewDecoder(resp.Body).Decode(&rerankResp); err != nil {
			return nil, fmt.Errorf("failed to decode rerank response: %w", err)
		}
		return &rerankResp, nil
	})
	if err != nil {
		return nil, err
	}
	rerankResp := result.(*cohereRerankResponse)

	scores := make([]float32, len(passages))
	for _, result := range rerankResp.Results {
		if result.Index >= 0 && result.Index < len(scores) {
			scores[result.Index] = float32(result.RelevanceScore)
		}
	}
	return scores, nil
}

// compile-time check to ensure CohereCrossEncoder implements the CrossEncoder interface
var _ interfaces.CrossEncoder = (*CohereCrossEncoder)(nil)
