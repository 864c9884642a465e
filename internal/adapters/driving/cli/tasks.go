package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/camdeck/internal/core/domain"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Show background task schedules",
	Long: `Show when each background task last ran and when it runs next.

Tasks only run while the scheduler is enabled and a long-running command
such as watch, serve or tui is active.`,
	Args: cobra.NoArgs,
	RunE: runTasks,
}

func init() {
	rootCmd.AddCommand(tasksCmd)
}

func runTasks(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return errors.New("scheduler not configured")
	}

	tasks, err := scheduler.Tasks(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to read tasks: %w", err)
	}
	if !schedulerConfig.Enabled {
		cmd.Println("Scheduler is disabled.")
	}
	if len(tasks) == 0 {
		cmd.Println("No tasks scheduled yet.")
		return nil
	}

	for _, t := range tasks {
		cmd.Printf("%s (%s)\n", domain.TaskName(t.ID), t.ID)
		cmd.Printf("  Every: %s\n", t.Interval)
		cmd.Printf("  Next run: %s\n", formatWhen(t.NextRun))
		cmd.Printf("  Last run: %s\n", formatWhen(t.LastRun))
		cmd.Printf("  Runs: %d (%d failed)\n", t.Runs, t.Failures)
		if t.LastError != "" {
			cmd.Printf("  Last error: %s\n", t.LastError)
		}
	}
	return nil
}

// formatWhen renders t in local time, or "never" for the zero time.
func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
