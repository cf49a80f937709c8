package searcher

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jmhartley/docdex/internal/collection"
	"github.com/jmhartley/docdex/internal/config"
	"github.com/jmhartley/docdex/internal/embedder"
	"github.com/jmhartley/docdex/internal/reranker"
	"github.com/jmhartley/docdex/internal/storage"
	"github.com/jmhartley/docdex/pkg/types"
)

// rrfConstant is the Reciprocal Rank Fusion smoothing constant. Larger
// values flatten the contribution of top ranks.
const rrfConstant = 60

// Request contains parameters for a search operation
type Request struct {
	Scope      string // collection label, or "all" for every partition
	Query      string
	FileFilter string // restrict to one filename; "" or "all" means no restriction
	K          int    // result count; 0 uses the configured default
}

// Response contains search results and retrieval metadata
type Response struct {
	Results      []types.SearchResult
	Partitions   []string // partitions the winning pass searched
	VectorHits   int
	KeywordHits  int
	Reranked     bool
	ScopeWidened bool // scoped pass was empty, corpus-wide retry served this
	Duration     time.Duration
}

// Searcher runs the hybrid retrieval path: embed the query once, fan out
// to the vector and keyword indexes, fuse with RRF, optionally rerank,
// and load payloads for the final K.
type Searcher struct {
	cfg      *config.Config
	store    storage.Store
	engine   *embedder.Engine
	reranker *reranker.Client
}

// New creates a Searcher. rr may be nil when reranking is disabled.
func New(cfg *config.Config, store storage.Store, engine *embedder.Engine, rr *reranker.Client) *Searcher {
	return &Searcher{
		cfg:      cfg,
		store:    store,
		engine:   engine,
		reranker: rr,
	}
}

// Search performs hybrid retrieval for the request. A scoped search that
// finds nothing is retried across every partition before returning empty.
// Hitting the configured deadline returns whatever arrived in time, not
// an error; an unusable query embedding is an error, because every
// search would be equally broken.
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	startTime := time.Now()

	if err := s.validateRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	if s.cfg.SearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.SearchTimeout)
		defer cancel()
	}

	// Embed once; the scoped pass and any corpus-wide retry share it.
	queryVec, err := s.engine.EmbedQuery(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}

	partitions, err := s.resolvePartitions(ctx, req.Scope)
	if err != nil {
		return nil, err
	}

	response, err := s.searchPartitions(ctx, req, queryVec, partitions)
	if err != nil {
		return nil, err
	}

	if len(response.Results) == 0 && !strings.EqualFold(req.Scope, collection.Wildcard) {
		all, aerr := s.store.ListPartitions(ctx)
		if aerr == nil && len(all) > len(partitions) {
			wide, werr := s.searchPartitions(ctx, req, queryVec, all)
			if werr == nil && len(wide.Results) > 0 {
				wide.ScopeWidened = true
				response = wide
			}
		}
	}

	response.Duration = time.Since(startTime)
	return response, nil
}

// validateRequest ensures the request is complete, filling defaults.
func (s *Searcher) validateRequest(req *Request) error {
	if strings.TrimSpace(req.Query) == "" {
		return fmt.Errorf("query cannot be empty")
	}

	if req.Scope == "" {
		req.Scope = collection.Wildcard
	}

	if req.K <= 0 {
		req.K = s.cfg.DefaultK
	}
	if req.K <= 0 {
		req.K = 10
	}

	return nil
}

// resolvePartitions matches the scope label against the stored partition
// names. An empty catalog is listed a second time before concluding the
// corpus is empty; a read can race the first commit of a fresh index.
func (s *Searcher) resolvePartitions(ctx context.Context, scope string) ([]string, error) {
	names, err := s.store.ListPartitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}
	if len(names) == 0 {
		names, err = s.store.ListPartitions(ctx)
		if err != nil {
			return nil, fmt.Errorf("list partitions: %w", err)
		}
	}
	return collection.Resolve(scope, names), nil
}

// sideResult carries one index side's hits through the fan-in.
type sideResult struct {
	vectorResults  []storage.VectorResult
	keywordResults []storage.KeywordResult
	err            error
}

// searchPartitions runs one hybrid pass over the given partitions.
// A scope that resolved to nothing yields empty results, not an error.
func (s *Searcher) searchPartitions(ctx context.Context, req Request, queryVec []float32, partitions []string) (*Response, error) {
	response := &Response{
		Results:    []types.SearchResult{},
		Partitions: partitions,
	}
	if len(partitions) == 0 {
		return response, nil
	}

	fetchK := req.K * s.cfg.Oversample
	if fetchK < req.K {
		fetchK = req.K
	}

	vectorChan := make(chan sideResult, 1)
	keywordChan := make(chan sideResult, 1)

	go s.runVectorSearch(ctx, req, queryVec, partitions, fetchK, vectorChan)
	go s.runKeywordSearch(ctx, req.Query, partitions, fetchK, keywordChan)

	// Wait for both sides. The deadline firing keeps whatever already
	// arrived instead of failing the search.
	var vectorRes, keywordRes sideResult
	var vectorDone, keywordDone, timedOut bool
	for !vectorDone || !keywordDone {
		select {
		case vectorRes = <-vectorChan:
			vectorDone = true
		case keywordRes = <-keywordChan:
			keywordDone = true
		case <-ctx.Done():
			timedOut = true
			vectorDone, keywordDone = true, true
		}
	}

	// Allow one side to fail; both failing means nothing to fuse.
	if !timedOut && vectorRes.err != nil && keywordRes.err != nil {
		return nil, fmt.Errorf("both searches failed: vector=%w, keyword=%v", vectorRes.err, keywordRes.err)
	}
	if vectorRes.err != nil {
		slog.Warn("vector search degraded", "error", vectorRes.err, "partitions", len(partitions))
	}
	if keywordRes.err != nil {
		slog.Warn("keyword search degraded", "error", keywordRes.err, "partitions", len(partitions))
	}

	response.VectorHits = len(vectorRes.vectorResults)
	response.KeywordHits = len(keywordRes.keywordResults)

	fused := applyRRF(vectorRes.vectorResults, keywordRes.keywordResults)
	if len(fused) == 0 {
		return response, nil
	}

	useRerank := s.cfg.RerankEnabled && s.reranker != nil && s.reranker.Active()

	candidateLimit := req.K
	if useRerank && s.cfg.RerankCandidates > candidateLimit {
		candidateLimit = s.cfg.RerankCandidates
	}
	if candidateLimit > len(fused) {
		candidateLimit = len(fused)
	}
	candidates := fused[:candidateLimit]

	// Payload loading outlives the search deadline; abandoning results
	// already found would turn a slow search into an empty one.
	loadCtx := context.WithoutCancel(ctx)
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.chunkID
	}
	records, err := s.store.GetVectorRecords(loadCtx, ids)
	if err != nil {
		return nil, fmt.Errorf("load result payloads: %w", err)
	}

	if useRerank {
		candidates, response.Reranked = s.rerankCandidates(ctx, req.Query, candidates, records)
	}

	// Final assembly in fused (or reranked) order: dedupe, skip rows the
	// writer replaced mid-query, truncate to K.
	seen := make(map[string]struct{}, req.K)
	for _, cand := range candidates {
		if len(response.Results) >= req.K {
			break
		}
		if _, dup := seen[cand.chunkID]; dup {
			continue
		}
		record, ok := records[cand.chunkID]
		if !ok {
			continue
		}
		seen[cand.chunkID] = struct{}{}

		response.Results = append(response.Results, types.SearchResult{
			ChunkID: cand.chunkID,
			Rank:    len(response.Results) + 1,
			Score:   cand.score,
			Content: record.Content,
			Metadata: types.ResultMetadata{
				Collection: record.Collection,
				Filename:   record.Filename,
				ChunkIndex: record.ChunkIndex,
				Section:    record.Section,
			},
		})
	}

	return response, nil
}

// runVectorSearch executes the vector side in a goroutine. A file filter
// that matches nothing is dropped and the scope searched once more, so a
// misremembered filename degrades to scope-wide results instead of none.
func (s *Searcher) runVectorSearch(ctx context.Context, req Request, queryVec []float32, partitions []string, fetchK int, resultChan chan<- sideResult) {
	var res sideResult

	var filters *storage.SearchFilters
	if req.FileFilter != "" && !strings.EqualFold(req.FileFilter, collection.Wildcard) {
		filters = &storage.SearchFilters{FileFilter: req.FileFilter}
	}

	res.vectorResults, res.err = s.store.SearchVector(ctx, partitions, queryVec, fetchK, filters)
	if res.err == nil && len(res.vectorResults) == 0 && filters != nil {
		res.vectorResults, res.err = s.store.SearchVector(ctx, partitions, queryVec, fetchK, nil)
	}

	select {
	case resultChan <- res:
	case <-ctx.Done():
	}
}

// runKeywordSearch executes the FTS side in a goroutine.
func (s *Searcher) runKeywordSearch(ctx context.Context, query string, partitions []string, fetchK int, resultChan chan<- sideResult) {
	var res sideResult
	res.keywordResults, res.err = s.store.SearchKeyword(ctx, partitions, query, fetchK)
	select {
	case resultChan <- res:
	case <-ctx.Done():
	}
}

// rankedResult is a fused candidate before payload loading.
type rankedResult struct {
	chunkID string
	score   float64
}

// applyRRF fuses the two ranked lists with Reciprocal Rank Fusion:
// score(d) = sum over lists of 1/(k + rank(d) + 1), ranks 0-based.
// Rank-based fusion sidesteps the incomparable scales of cosine
// similarity and BM25.
func applyRRF(vectorResults []storage.VectorResult, keywordResults []storage.KeywordResult) []rankedResult {
	scores := make(map[string]float64, len(vectorResults)+len(keywordResults))

	for rank, vr := range vectorResults {
		scores[vr.ChunkID] += 1.0 / float64(rrfConstant+rank+1)
	}
	for rank, kr := range keywordResults {
		scores[kr.ChunkID] += 1.0 / float64(rrfConstant+rank+1)
	}

	fused := make([]rankedResult, 0, len(scores))
	for chunkID, score := range scores {
		fused = append(fused, rankedResult{chunkID: chunkID, score: score})
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].score != fused[j].score {
			return fused[i].score > fused[j].score
		}
		return fused[i].chunkID < fused[j].chunkID // deterministic ties
	})

	return fused
}

// rerankCandidates rescores the fused candidates with the cross-encoder
// and reorders by its verdict. Fusion order survives any rerank failure.
func (s *Searcher) rerankCandidates(ctx context.Context, query string, candidates []rankedResult, records map[string]*storage.VectorRecord) ([]rankedResult, bool) {
	docs := make([]string, 0, len(candidates))
	withPayload := make([]rankedResult, 0, len(candidates))
	for _, cand := range candidates {
		record, ok := records[cand.chunkID]
		if !ok {
			continue
		}
		docs = append(docs, record.Content)
		withPayload = append(withPayload, cand)
	}
	if len(docs) == 0 {
		return candidates, false
	}

	order, err := s.reranker.Rerank(ctx, query, docs)
	if err != nil {
		slog.Warn("rerank failed, keeping fused order", "error", err)
		return candidates, false
	}

	reranked := make([]rankedResult, 0, len(order))
	for _, idx := range order {
		if idx < 0 || idx >= len(withPayload) {
			continue
		}
		reranked = append(reranked, withPayload[idx])
	}
	if len(reranked) == 0 {
		return candidates, false
	}
	return reranked, true
}
