package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables for provider selection
const (
	EnvEmbeddingProvider = "DOCDEX_EMBEDDING_PROVIDER"
	EnvEmbeddingModel    = "DOCDEX_EMBEDDING_MODEL"
)

// Config selects and tunes a provider.
type Config struct {
	Provider  string // jina, openai, or local
	Model     string // optional override of the provider default model
	APIKey    string // optional, falls back to environment variables
	CacheSize int    // LRU entries, 0 uses the default
}

// NewFromEnv builds the provider the environment implies:
// DOCDEX_EMBEDDING_PROVIDER when set, otherwise whichever API key is
// present (Jina preferred), otherwise the offline local provider.
func NewFromEnv() (Embedder, error) {
	return New(Config{
		Provider: os.Getenv(EnvEmbeddingProvider),
		Model:    os.Getenv(EnvEmbeddingModel),
	})
}

// New builds the provider named by cfg, applying the same environment
// detection as NewFromEnv when cfg.Provider is blank.
func New(cfg Config) (Embedder, error) {
	cache := NewCache(cfg.CacheSize)

	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = detectFromKeys()
	}

	switch provider {
	case ProviderJina, ProviderOpenAI:
		spec := jinaSpec
		if provider == ProviderOpenAI {
			spec = openAISpec
		}
		p, err := newRemote(spec, cfg.APIKey, cache)
		if err != nil {
			return nil, err
		}
		if cfg.Model != "" {
			p.model = cfg.Model
		}
		return p, nil
	case ProviderLocal:
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
}

// DetectProvider names the provider NewFromEnv would pick right now,
// without constructing it.
func DetectProvider() string {
	provider := os.Getenv(EnvEmbeddingProvider)
	if provider != "" {
		return strings.ToLower(provider)
	}
	return detectFromKeys()
}

// detectFromKeys picks a provider from the API keys present, preferring
// Jina, and falls back to the offline local provider.
func detectFromKeys() string {
	if os.Getenv(EnvJinaAPIKey) != "" {
		return ProviderJina
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}
	return ProviderLocal
}
