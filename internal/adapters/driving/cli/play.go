package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/camdeck/internal/core/domain"
)

var (
	playCameras []string
	playPrimary string
)

var playCmd = &cobra.Command{
	Use:   "play <id>",
	Short: "Play a clip with every camera in lockstep",
	Long: `Plays a clip from its first chunk to its last. Every camera feed moves to the
next chunk together when the primary camera finishes its segment.

Cameras missing from a chunk hold their last frame. When the primary camera is
missing, the chunk is held for the placeholder duration instead.

Press Ctrl+C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringSliceVar(&playCameras, "cameras", nil, "cameras to show (default from settings)")
	playCmd.Flags().StringVar(&playPrimary, "primary", "", "camera whose end advances every feed")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	if playbackService == nil {
		return errors.New("playback service not configured")
	}

	ctx := commandContext(cmd)
	clip, err := lookupClip(ctx, args[0])
	if err != nil {
		return err
	}

	var (
		mu     sync.Mutex
		latest domain.PlaybackStatus
		notify = make(chan struct{}, 1)
	)
	unsubscribe := playbackService.Subscribe(func(st domain.PlaybackStatus) {
		mu.Lock()
		latest = st
		mu.Unlock()
		select {
		case notify <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	opts := domain.PlaybackOptions{Cameras: playCameras, Primary: playPrimary}
	sessionID, err := playbackService.Start(ctx, clip.ID, opts)
	if err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}
	defer func() {
		if err := playbackService.Stop(); err != nil && !errors.Is(err, domain.ErrNoSession) {
			appLogger.Warn("Stopping playback: %v", err)
		}
	}()

	out := cmd.OutOrStdout()
	live := isTerminal(out)
	cmd.Printf("Playing %s (%d chunks)\n", clip.Name, len(clip.Chunks))

	lastChunk := -1
	for {
		select {
		case <-ctx.Done():
			if live {
				cmd.Println()
			}
			cmd.Println("Stopped.")
			return nil
		case <-notify:
		}

		mu.Lock()
		st := latest
		mu.Unlock()
		if st.SessionID != "" && st.SessionID != sessionID {
			continue
		}

		switch {
		case live:
			fmt.Fprintf(out, "\r\033[K%s", statusLine(st))
		case st.ChunkIndex != lastChunk:
			cmd.Println(statusLine(st))
		}
		lastChunk = st.ChunkIndex

		if st.Exhausted || !st.Active {
			if live {
				cmd.Println()
			}
			cmd.Println("Finished.")
			return nil
		}
	}
}

// statusLine renders a one-line summary of a session.
func statusLine(st domain.PlaybackStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "chunk %d/%d", st.ChunkIndex+1, st.ChunkCount)
	if !st.ChunkTime.IsZero() {
		fmt.Fprintf(&b, " %s", st.ChunkTime.Format("15:04:05"))
	}
	for _, f := range st.Feeds {
		mark := ""
		if f.Primary {
			mark = "*"
		}
		fmt.Fprintf(&b, "  %s%s:%s", domain.CameraLabel(f.Camera), mark, f.State)
		if f.Err != nil {
			b.WriteString("!")
		}
	}
	return b.String()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
