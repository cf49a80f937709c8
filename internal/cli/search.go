package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmhartley/docdex/internal/reranker"
	"github.com/jmhartley/docdex/internal/searcher"
)

// snippetLength caps how much chunk text a table row shows.
const snippetLength = 160

var (
	searchCollection string
	searchFilename   string
	searchLimit      int
	searchJSON       bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Runs a hybrid search across the index. Semantic (vector) and keyword
(full-text) retrieval run in parallel and their ranks are fused; a scoped
search that finds nothing is widened to the whole index.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchCollection, "collection", "c", "", "restrict the search to one collection")
	searchCmd.Flags().StringVarP(&searchFilename, "filename", "f", "", "restrict the search to one file")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (0 = configured default)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}
	var rr *reranker.Client
	if cfg.RerankProvider != "" {
		rr = reranker.NewClient(cfg.RerankProvider, "")
	}
	s := searcher.New(cfg, store, engine, rr)

	k := searchLimit
	if k <= 0 {
		k = cfg.DefaultK
	}

	resp, err := s.Search(cmd.Context(), searcher.Request{
		Scope:      searchCollection,
		Query:      args[0],
		FileFilter: searchFilename,
		K:          k,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return printSearchJSON(cmd, resp)
	}
	return printSearchTable(cmd, resp)
}

func printSearchJSON(cmd *cobra.Command, resp *searcher.Response) error {
	results := make([]map[string]interface{}, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, map[string]interface{}{
			"rank":        r.Rank,
			"score":       r.Score,
			"collection":  r.Metadata.Collection,
			"filename":    r.Metadata.Filename,
			"chunk_index": r.Metadata.ChunkIndex,
			"section":     r.Metadata.Section,
			"content":     r.Content,
		})
	}
	return printJSON(cmd, map[string]interface{}{
		"results":       results,
		"total":         len(results),
		"reranked":      resp.Reranked,
		"scope_widened": resp.ScopeWidened,
		"duration_ms":   resp.Duration.Milliseconds(),
	})
}

func printSearchTable(cmd *cobra.Command, resp *searcher.Response) error {
	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Results (%d in %s):\n\n", len(resp.Results), resp.Duration.Round(time.Millisecond))
	for _, r := range resp.Results {
		cmd.Printf("  [%d] %s/%s #%d (%.4f)\n", r.Rank, r.Metadata.Collection, r.Metadata.Filename, r.Metadata.ChunkIndex, r.Score)
		if r.Metadata.Section != "" {
			cmd.Printf("      Section: %s\n", r.Metadata.Section)
		}
		cmd.Printf("      %s\n\n", snippet(r.Content))
	}
	if resp.ScopeWidened {
		cmd.Println("Note: nothing matched in the requested collection; results are from the whole index.")
	}
	return nil
}

// snippet flattens whitespace and truncates on a rune boundary.
func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= snippetLength {
		return s
	}
	return string(runes[:snippetLength]) + "..."
}
