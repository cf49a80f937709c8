// Package reranker reorders retrieval candidates with a hosted
// cross-encoder API. Fusion ranking gets the candidates close; a
// reranker scores each (query, passage) pair directly and usually
// improves the top of the list.
//
// Two providers are supported, Jina and Cohere. Any other provider
// value turns reranking into the identity ordering, so callers can
// invoke Rerank unconditionally.
package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Supported providers
const (
	ProviderJina   = "jina"
	ProviderCohere = "cohere"
)

// Models and endpoints per provider
const (
	JinaModel     = "jina-reranker-v2-base-multilingual"
	CohereModel   = "rerank-english-v3.0"
	JinaRerankURL = "https://api.jina.ai/v1/rerank"
	CohereURL     = "https://api.cohere.ai/v1/rerank"
)

// Environment variables consulted for API keys
const (
	envJinaKey   = "JINA_API_KEY"
	envCohereKey = "COHERE_API_KEY"
)

// Client calls a rerank API over HTTP
type Client struct {
	provider string
	apiKey   string
	client   *http.Client
	baseURL  string
}

// NewClient creates a rerank client for the given provider. An empty
// apiKey falls back to the provider's environment variable. Unknown
// providers yield a client that returns identity orderings.
func NewClient(provider, apiKey string) *Client {
	if apiKey == "" {
		switch provider {
		case ProviderJina:
			apiKey = os.Getenv(envJinaKey)
		case ProviderCohere:
			apiKey = os.Getenv(envCohereKey)
		}
	}
	return &Client{
		provider: provider,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// SetBaseURL overrides the API endpoint, used by tests
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// Active reports whether this client will actually call an API
func (c *Client) Active() bool {
	return c.provider == ProviderJina || c.provider == ProviderCohere
}

// Rerank scores docs against query and returns their indices in
// descending relevance order. Indices outside the input range are
// dropped.
func (c *Client) Rerank(ctx context.Context, query string, docs []string) ([]int, error) {
	if len(docs) == 0 {
		return []int{}, nil
	}

	switch c.provider {
	case ProviderJina:
		return c.rerankJina(ctx, query, docs)
	case ProviderCohere:
		return c.rerankCohere(ctx, query, docs)
	}

	// Identity ordering when no provider is configured
	indices := make([]int, len(docs))
	for i := range indices {
		indices[i] = i
	}
	return indices, nil
}

func (c *Client) rerankJina(ctx context.Context, query string, docs []string) ([]int, error) {
	url := JinaRerankURL
	if c.baseURL != "" {
		url = c.baseURL
	}

	reqBody := map[string]interface{}{
		"model":     JinaModel,
		"query":     query,
		"documents": docs,
		"top_n":     len(docs),
	}
	return c.call(ctx, url, reqBody, len(docs), "jina")
}

func (c *Client) rerankCohere(ctx context.Context, query string, docs []string) ([]int, error) {
	url := CohereURL
	if c.baseURL != "" {
		url = c.baseURL
	}

	reqBody := map[string]interface{}{
		"model":            CohereModel,
		"query":            query,
		"documents":        docs,
		"top_n":            len(docs),
		"return_documents": false,
	}
	return c.call(ctx, url, reqBody, len(docs), "cohere")
}

func (c *Client) call(ctx context.Context, url string, reqBody map[string]interface{}, docCount int, name string) ([]int, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s api call: %w", name, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s api error: %d: %s", name, resp.StatusCode, string(body))
	}

	var result struct {
		Results []struct {
			Index int     `json:"index"`
			Score float64 `json:"relevance_score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	indices := make([]int, 0, docCount)
	for _, r := range result.Results {
		if r.Index >= 0 && r.Index < docCount {
			indices = append(indices, r.Index)
		}
	}
	return indices, nil
}
