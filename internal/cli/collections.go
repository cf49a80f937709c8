package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var collectionsJSON bool

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List indexed collections",
	Long: `Lists every collection in the index with its document and chunk
counts. Collections are the first-level folders of the document root,
lowercased with separators normalized.`,
	RunE: runCollections,
}

func init() {
	collectionsCmd.Flags().BoolVar(&collectionsJSON, "json", false, "output collections as JSON")
	rootCmd.AddCommand(collectionsCmd)
}

func runCollections(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	infos, err := store.ListCollections(cmd.Context())
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}

	if collectionsJSON {
		out := make([]map[string]interface{}, 0, len(infos))
		for _, info := range infos {
			out = append(out, map[string]interface{}{
				"name":      info.Name,
				"documents": info.Documents,
				"chunks":    info.Chunks,
			})
		}
		return printJSON(cmd, out)
	}

	if len(infos) == 0 {
		cmd.Println("No collections indexed yet. Run 'docdex ingest' first.")
		return nil
	}
	for _, info := range infos {
		cmd.Printf("  %-24s %4d documents %6d chunks\n", info.Name, info.Documents, info.Chunks)
	}
	return nil
}
