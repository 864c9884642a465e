package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/camdeck/internal/core/domain"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rescan storage roots when recordings change",
	Long: `Watches every storage root and rescans when clips are added or removed.
Bursts of changes are coalesced and rescans are rate limited.

Press Ctrl+C to stop.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if watchService == nil {
		return errors.New("watch service not configured")
	}

	ctx := commandContext(cmd)
	idx, err := ensureIndex(ctx)
	if err != nil {
		return fmt.Errorf("initial scan failed: %w", err)
	}
	cmd.Printf("Watching %d roots (%d clips). Press Ctrl+C to stop.\n", len(idx.Reports()), idx.Len())

	unsubscribe := indexService.Subscribe(func(idx *domain.StorageIndex) {
		cmd.Printf("Rescanned: %d clips\n", idx.Len())
	})
	defer unsubscribe()

	stopScheduler := startScheduler(ctx)
	defer stopScheduler()

	if err := watchService.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}

// startScheduler runs the scheduler in the background when it is enabled.
// The returned function stops it.
func startScheduler(ctx context.Context) func() {
	if scheduler == nil || !schedulerConfig.Enabled {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		if err := scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Warn("Scheduler stopped: %v", err)
		}
	}()
	return func() {
		cancel()
		if err := scheduler.Stop(); err != nil {
			appLogger.Warn("Stopping scheduler: %v", err)
		}
	}
}
