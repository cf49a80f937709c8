package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmhartley/docdex/internal/storage"
)

var removeCmd = &cobra.Command{
	Use:   "remove [collection] [filename]",
	Short: "Remove one document from the index",
	Long: `Deletes a document and every chunk, vector, and keyword entry derived
from it. The file itself is untouched; re-running ingest while it still
exists under the root will index it again.`,
	Args: cobra.ExactArgs(2),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	collection, filename := args[0], args[1]
	if err := store.RemoveDocument(cmd.Context(), collection, filename); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("document %s/%s is not indexed", collection, filename)
		}
		return fmt.Errorf("remove document: %w", err)
	}

	cmd.Printf("Removed %s/%s\n", collection, filename)
	return nil
}
