// Package embedder generates vector embeddings for document chunks.
//
// Three providers are supported: Jina AI, OpenAI, and an offline local
// provider that derives deterministic vectors from a hash chain. All
// providers batch, cache by content hash, and retry transient API
// failures with exponential backoff.
//
// # Basic Usage
//
//	emb, err := embedder.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	result, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
//	    Text: "Quarterly revenue grew 12% on subscription renewals.",
//	})
//	fmt.Printf("dimension: %d\n", result.Dimension)
//
// Batch calls are preferred during ingest, one API round trip per
// DefaultBatchSize texts:
//
//	resp, err := emb.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{
//	    Texts: chunkContents,
//	})
//
// # Provider Selection
//
// NewFromEnv selects a provider from the environment:
//
//  1. DOCDEX_EMBEDDING_PROVIDER if set (jina, openai, local)
//  2. jina if JINA_API_KEY is set
//  3. openai if OPENAI_API_KEY is set
//  4. local otherwise (offline, no key required)
//
// Explicit configuration goes through New:
//
//	emb, err := embedder.New(embedder.Config{
//	    Provider: "jina",
//	    Model:    "jina-embeddings-v3",
//	    APIKey:   key,
//	})
//
// # Shared Engine
//
// Ingest workers and search queries share one Engine, which serializes
// inference behind a mutex and truncates oversized texts to a rune cap
// before embedding:
//
//	eng, err := embedder.Shared(cfg, maxRunes)
//	vectors, err := eng.EmbedBatch(ctx, texts)
//
// Reload swaps the shared engine for a new provider after draining
// in-flight calls; holders of the old engine get ErrEngineClosed.
//
// # Caching and Retries
//
// Embeddings are cached in-process by SHA-256 of the text, with LRU
// eviction. Hosted providers rate-limit outgoing requests and retry
// failed calls up to MaxRetries with exponential backoff; context
// cancellation stops a retry loop immediately.
package embedder
