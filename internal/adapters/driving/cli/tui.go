package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/camdeck/internal/adapters/driving/tui"
)

type tuiRunner interface {
	Run() error
}

// newTUIApp is swapped out by tests.
var newTUIApp = func(ctx context.Context, ports *tui.Ports) (tuiRunner, error) {
	app, err := tui.NewApp(ports)
	if err != nil {
		return nil, err
	}
	return app.WithContext(ctx), nil
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse and play clips in the terminal",
	Long: `Opens the terminal UI. Pick a clip from the list and every camera plays
in lockstep, one tile per feed. Press ? inside the UI for the key bindings.

The scheduler runs while the UI is open, so periodic rescans apply.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	// A panic inside bubbletea leaves the terminal in raw mode; report it
	// as an error with the stack on stderr.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	if indexService == nil {
		return errIndexNotConfigured
	}

	ctx := commandContext(cmd)
	defer startScheduler(ctx)()

	app, err := newTUIApp(ctx, &tui.Ports{
		Index:    indexService,
		Playback: playbackService,
		Settings: settingsService,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
