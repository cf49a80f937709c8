// Package searcher implements hybrid document retrieval combining vector
// similarity and keyword matching.
//
// A query is embedded once, fanned out to the vector and keyword indexes
// concurrently, and the two ranked lists are fused with Reciprocal Rank
// Fusion. An optional cross-encoder rerank pass reorders the fused
// candidates before the final K results are assembled.
//
// # Basic Usage
//
//	s := searcher.New(cfg, store, engine, nil)
//
//	resp, err := s.Search(ctx, searcher.Request{
//	    Scope: "Finance",
//	    Query: "quarterly revenue drivers",
//	    K:     10,
//	})
//
//	for _, r := range resp.Results {
//	    fmt.Printf("[%d] %s/%s#%d (%.4f)\n",
//	        r.Rank, r.Metadata.Collection, r.Metadata.Filename,
//	        r.Metadata.ChunkIndex, r.Score)
//	}
//
// # Retrieval Pipeline
//
// Each search runs these stages in order:
//
//  1. Embed the query (one call, shared by every pass)
//  2. Resolve the scope label to stored partitions
//  3. Vector and keyword search run concurrently, each fetching
//     K * oversample candidates
//  4. Reciprocal Rank Fusion merges the two ranked lists
//  5. Optional cross-encoder rerank over the top candidates
//  6. Payload loading, dedupe, truncate to K
//
// # Reciprocal Rank Fusion
//
// Both sides contribute by rank position, not raw score:
//
//	for each list L, rank i (0-based), chunk d at L[i]:
//	    score[d] += 1 / (60 + i + 1)
//
//	sort by score descending
//
// Cosine similarity and BM25 live on incomparable scales; rank-based
// fusion combines them without normalization. A chunk found by both
// sides outranks a chunk found by one.
//
// # Scope Resolution and Fallback
//
// Scope is a collection label. "all" (any case) searches every
// partition. Other labels match against stored partition names exactly
// first, then by substring in both directions, so "Finance", "finance"
// and "Financial Reports" can all reach the same partition.
//
// A scoped search that returns nothing is retried once across every
// partition, reusing the query embedding. The response reports this
// with ScopeWidened.
//
// # File Filter
//
// Request.FileFilter restricts the vector side to a single filename
// within the scope. A filter that matches nothing is dropped and the
// scope searched again, so a misremembered filename degrades to
// scope-wide results instead of none.
//
// # Degradation and Deadlines
//
// One index side may fail; its hits are simply absent from the fusion
// and a warning is logged. Both sides failing is an error. Hitting the
// configured search deadline returns whatever arrived in time rather
// than an error. A failed query embedding is always an error, because
// no search could proceed without it.
//
// # Answer Caching
//
// AnswerCache stores full answers for context-free queries, keyed by a
// hash of the normalized query text. An in-memory LRU serves repeats in
// the current process and the semantic_cache table carries entries
// across restarts. Callers decide cacheability: an answer that depended
// on conversation context must not be cached, because the key carries
// none of that context.
package searcher
