package types

// SearchResult represents a single retrieval hit with relevance information.
type SearchResult struct {
	// Identification
	ChunkID string
	Rank    int // position in result set (1-based)

	// Scoring
	Score float64 // fused RRF score; rank order may come from the reranker

	// Payload
	Content  string
	Metadata ResultMetadata
}

// ResultMetadata carries the chunk's provenance for a search result.
type ResultMetadata struct {
	Collection string `json:"collection"`
	Filename   string `json:"filename"`
	ChunkIndex int    `json:"chunk_index"`
	Section    string `json:"section,omitempty"`
}

// Validate checks if the search result is valid.
func (sr *SearchResult) Validate() error {
	if sr.ChunkID == "" {
		return ErrInvalidChunkID
	}

	if sr.Rank < 1 {
		return ErrInvalidRank
	}

	if sr.Score < 0 {
		return ErrInvalidRelevanceScore
	}

	if sr.Content == "" {
		return ErrEmptyContent
	}

	return nil
}
