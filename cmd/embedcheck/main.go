// Command embedcheck exercises the configured embedding provider end to
// end, the way ingest and search do: one query embedding, one batch, and a
// repeat call that should come out of the cache. Run it after changing
// DOCDEX_EMBEDDING_PROVIDER or rotating an API key.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jmhartley/docdex/internal/embedder"
)

const sampleText = "Docdex keeps personal notes searchable with hybrid semantic and keyword retrieval."

func main() {
	log.SetFlags(0)

	fmt.Println("Embedding provider check")
	fmt.Printf("  provider: %s\n", embedder.DetectProvider())

	e, err := embedder.NewFromEnv()
	if err != nil {
		log.Fatalf("create embedder: %v", err)
	}

	engine := embedder.NewEngine(e, embedder.DefaultMaxRunes)
	defer func() { _ = engine.Close() }()
	fmt.Printf("  model:     %s\n", engine.Model())
	fmt.Printf("  dimension: %d\n", engine.Dimension())

	ctx := context.Background()

	start := time.Now()
	vec, err := engine.EmbedQuery(ctx, sampleText)
	if err != nil {
		log.Fatalf("query embedding failed: %v", err)
	}
	fmt.Printf("\nQuery embedding: %d dims in %s\n", len(vec), time.Since(start).Round(time.Millisecond))
	fmt.Printf("  head: %s\n", head(vec, 6))

	texts := []string{
		"Meeting notes from the March planning session.",
		"Quarterly revenue grew twelve percent year over year.",
		"Water the plants every Tuesday evening.",
	}
	start = time.Now()
	vecs, err := engine.EmbedBatch(ctx, texts)
	if err != nil {
		log.Fatalf("batch embedding failed: %v", err)
	}
	fmt.Printf("\nBatch embedding: %d texts in %s\n", len(vecs), time.Since(start).Round(time.Millisecond))
	for i, v := range vecs {
		if len(v) != len(vec) {
			fmt.Printf("\n✗ FAILURE: dimension mismatch: batch text %d has %d dims, query has %d\n", i, len(v), len(vec))
			os.Exit(1)
		}
	}

	// The repeat should never hit the provider again.
	start = time.Now()
	if _, err := engine.EmbedQuery(ctx, sampleText); err != nil {
		log.Fatalf("cached embedding failed: %v", err)
	}
	fmt.Printf("\nRepeat query: %s (cache)\n", time.Since(start).Round(time.Microsecond))

	fmt.Println("\n✓ SUCCESS: provider is usable for ingest and search")
}

func head(vec []float32, n int) string {
	if len(vec) < n {
		n = len(vec)
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("%.4f", vec[i])
	}
	return "[" + strings.Join(parts, ", ") + " ...]"
}
