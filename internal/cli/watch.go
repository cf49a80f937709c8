package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmhartley/docdex/internal/watcher"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the document root and re-ingest on changes",
	Long: `Runs one ingest pass, then watches the document root and triggers an
incremental ingest whenever files change. Bursts of events within the
debounce window collapse into a single run. Stops on interrupt.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "quiet window before changes trigger a run")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runner, err := newRunner(cfg, store)
	if err != nil {
		return err
	}

	// Catch up before watching so the index reflects the tree as it is now.
	if _, err := runner.Run(cmd.Context()); err != nil {
		return fmt.Errorf("initial ingest failed: %w", err)
	}

	w := watcher.New(cfg.Root, watchDebounce, func(ctx context.Context) error {
		_, err := runner.Run(ctx)
		return err
	})

	err = w.Run(cmd.Context())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
