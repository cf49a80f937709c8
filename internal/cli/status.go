package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index statistics",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output statistics as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	stats, err := store.GetStats(cmd.Context())
	if err != nil {
		return fmt.Errorf("read index statistics: %w", err)
	}

	if statusJSON {
		return printJSON(cmd, map[string]interface{}{
			"database":      cfg.DBPath,
			"root":          cfg.Root,
			"documents":     stats.Documents,
			"chunks":        stats.Chunks,
			"vectors":       stats.Vectors,
			"keywords":      stats.Keywords,
			"collections":   stats.Collections,
			"index_size_mb": stats.SizeMB,
		})
	}

	cmd.Printf("Index %s (%.2f MB)\n", cfg.DBPath, stats.SizeMB)
	cmd.Printf("  root:        %s\n", cfg.Root)
	cmd.Printf("  documents:   %d\n", stats.Documents)
	cmd.Printf("  chunks:      %d\n", stats.Chunks)
	cmd.Printf("  vectors:     %d\n", stats.Vectors)
	cmd.Printf("  keywords:    %d\n", stats.Keywords)
	cmd.Printf("  collections: %d\n", stats.Collections)
	return nil
}
