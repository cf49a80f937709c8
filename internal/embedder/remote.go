package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Hosted provider identifiers and wire settings. Jina and OpenAI both
// speak the OpenAI embeddings wire format, so one client serves both.
const (
	ProviderJina   = "jina"
	ProviderOpenAI = "openai"

	EnvJinaAPIKey   = "JINA_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"

	JinaAPIURL   = "https://api.jina.ai/v1/embeddings"
	OpenAIAPIURL = "https://api.openai.com/v1/embeddings"

	DefaultJinaModel   = "jina-embeddings-v3"
	DefaultOpenAIModel = "text-embedding-3-small"

	JinaDimension   = 1024
	OpenAIDimension = 1536

	// DefaultBatchSize is the sub-batch size the engine splits work into;
	// MaxBatchSize is the most texts one GenerateBatch call accepts.
	DefaultBatchSize = 50
	MaxBatchSize     = 100

	// Outgoing request pacing, shared by all hosted providers.
	RequestsPerSecond = 8
	RequestBurst      = 4

	// MaxRetries bounds attempts per API call before giving up.
	MaxRetries = 3

	requestTimeout = 30 * time.Second
)

// remoteSpec pins the per-provider wire details.
type remoteSpec struct {
	name      string
	url       string
	keyEnv    string
	model     string
	dimension int
}

var (
	jinaSpec = remoteSpec{
		name:      ProviderJina,
		url:       JinaAPIURL,
		keyEnv:    EnvJinaAPIKey,
		model:     DefaultJinaModel,
		dimension: JinaDimension,
	}

	openAISpec = remoteSpec{
		name:      ProviderOpenAI,
		url:       OpenAIAPIURL,
		keyEnv:    EnvOpenAIAPIKey,
		model:     DefaultOpenAIModel,
		dimension: OpenAIDimension,
	}
)

// RemoteProvider generates embeddings through a hosted HTTP API.
// Requests are rate limited, retried on failure, and cached by content
// hash when a Cache is attached.
type RemoteProvider struct {
	spec    remoteSpec
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	cache   *Cache
}

// NewJinaProvider builds a client for the Jina embeddings API. An empty
// apiKey falls back to the JINA_API_KEY environment variable.
func NewJinaProvider(apiKey string, cache *Cache) (*RemoteProvider, error) {
	return newRemote(jinaSpec, apiKey, cache)
}

// NewOpenAIProvider builds a client for the OpenAI embeddings API. An
// empty apiKey falls back to the OPENAI_API_KEY environment variable.
func NewOpenAIProvider(apiKey string, cache *Cache) (*RemoteProvider, error) {
	return newRemote(openAISpec, apiKey, cache)
}

func newRemote(spec remoteSpec, apiKey string, cache *Cache) (*RemoteProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv(spec.keyEnv)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, spec.keyEnv)
	}
	return &RemoteProvider{
		spec:    spec,
		apiKey:  apiKey,
		model:   spec.model,
		baseURL: spec.url,
		client:  &http.Client{Timeout: requestTimeout},
		limiter: rate.NewLimiter(rate.Limit(RequestsPerSecond), RequestBurst),
		cache:   cache,
	}, nil
}

// SetBaseURL redirects API calls, used by tests to point at a stub server.
func (p *RemoteProvider) SetBaseURL(url string) {
	p.baseURL = url
}

// GenerateEmbedding returns the vector for one text, from cache when the
// same content was embedded before.
func (p *RemoteProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	if p.cache != nil {
		if emb, ok := p.cache.Get(ComputeHash(req.Text)); ok {
			return emb, nil
		}
	}

	resp, err := p.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: []string{req.Text}, Model: req.Model})
	if err != nil {
		return nil, err
	}
	return resp.Embeddings[0], nil
}

// GenerateBatch embeds up to MaxBatchSize texts in one API round trip.
func (p *RemoteProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}
	if len(req.Texts) > MaxBatchSize {
		return nil, fmt.Errorf("%w: max %d texts allowed", ErrBatchTooLarge, MaxBatchSize)
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	embeddings, err := retry(ctx, MaxRetries, func() ([]*Embedding, error) {
		return p.post(ctx, req.Texts, model)
	})
	if err != nil {
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrProviderFailed, MaxRetries, err)
	}

	if p.cache != nil {
		for i, emb := range embeddings {
			emb.Hash = ComputeHash(req.Texts[i])
			p.cache.Set(emb.Hash, emb)
		}
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   p.spec.name,
		Model:      model,
	}, nil
}

// embedPayload and embedResult are the shared OpenAI-style wire shapes.
type embedPayload struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embedResult struct {
	Model string `json:"model"`
	Data  []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// post performs one rate-limited API call and maps the response. A
// vector count different from the input count is an error.
func (p *RemoteProvider) post(ctx context.Context, texts []string, model string) ([]*Embedding, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(embedPayload{Input: texts, Model: model})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", p.spec.name, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("%s returned %d: %s", p.spec.name, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var body embedResult
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", p.spec.name, err)
	}
	if len(body.Data) != len(texts) {
		return nil, fmt.Errorf("%s returned %d embeddings for %d texts", p.spec.name, len(body.Data), len(texts))
	}

	out := make([]*Embedding, len(body.Data))
	for i, item := range body.Data {
		out[i] = &Embedding{
			Vector:    item.Embedding,
			Dimension: len(item.Embedding),
			Provider:  p.spec.name,
			Model:     body.Model,
		}
	}
	return out, nil
}

// Dimension is the vector width of the provider's default model.
func (p *RemoteProvider) Dimension() int {
	return p.spec.dimension
}

func (p *RemoteProvider) Provider() string {
	return p.spec.name
}

func (p *RemoteProvider) Model() string {
	return p.model
}

// Close drops pooled connections. In-flight requests are unaffected.
func (p *RemoteProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
