package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/camdeck/internal/core/domain"
)

var historyLimit int

var scanCmd = &cobra.Command{
	Use:   "scan [root...]",
	Short: "Scan storage roots for clips",
	Long: `Scans storage roots and rebuilds the clip index.
If roots are given, only those are scanned. Otherwise the configured roots and
any TeslaCam folders on mounted drives are scanned.

Roots that cannot be read are reported and skipped; the rest are indexed.`,
	RunE: runScan,
}

var rootsCmd = &cobra.Command{
	Use:   "roots",
	Short: "List the storage roots a scan would use",
	Args:  cobra.NoArgs,
	RunE:  runRoots,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent scans",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of scans to show")
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(rootsCmd)
	rootCmd.AddCommand(historyCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errIndexNotConfigured
	}

	idx, err := indexService.Scan(commandContext(cmd), args...)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	printScanReport(cmd, idx)
	return nil
}

func printScanReport(cmd *cobra.Command, idx *domain.StorageIndex) {
	reports := idx.Reports()
	for _, r := range reports {
		if r.Failed() {
			cmd.Printf("  %s: FAILED (%v)\n", r.Root, r.Err)
			continue
		}
		cmd.Printf("  %s: %d clips\n", r.Root, r.Clips)
		for _, s := range r.Skipped {
			cmd.Printf("    skipped %s: %v\n", s.Path, s.Err)
		}
	}
	cmd.Printf("Indexed %d clips from %d roots.\n", idx.Len(), len(reports))
	if failed := idx.Failures(); len(failed) > 0 {
		cmd.Printf("Warning: %d root(s) could not be scanned.\n", len(failed))
	}
}

func runRoots(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errIndexNotConfigured
	}

	ctx := commandContext(cmd)
	roots, err := indexService.Roots(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve roots: %w", err)
	}
	if len(roots) == 0 {
		cmd.Println("No storage roots found.")
		cmd.Println("Add storage.roots to the config file or plug in a drive with a TeslaCam folder.")
		return nil
	}

	for _, root := range roots {
		if diskUsage == nil {
			cmd.Println(root)
			continue
		}
		u, err := diskUsage(ctx, root)
		if err != nil {
			cmd.Printf("%s  (usage unavailable: %v)\n", root, err)
			continue
		}
		cmd.Printf("%s  (%s, %s free of %s, %.0f%% used)\n",
			root, u.Fstype, formatBytes(u.Free), formatBytes(u.Total), u.UsedPercent)
	}
	return nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errIndexNotConfigured
	}

	runs, err := indexService.History(commandContext(cmd), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No scans recorded.")
		return nil
	}

	for _, run := range runs {
		line := fmt.Sprintf("%s  %4d clips  %d roots  %s",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Clips, len(run.Roots), run.Duration().Round(time.Millisecond))
		if run.Failures > 0 {
			line += fmt.Sprintf("  %d failed", run.Failures)
		}
		if run.Error != "" {
			line += "  error: " + run.Error
		}
		cmd.Println(line)
	}
	return nil
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
