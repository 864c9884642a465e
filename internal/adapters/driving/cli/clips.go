package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/camdeck/internal/core/domain"
)

var (
	clipsJSON   bool
	clipsCached bool
	clipsCamera string
	clipJSON    bool
)

var clipsCmd = &cobra.Command{
	Use:   "clips",
	Short: "List indexed clips",
	Long: `Lists clips newest first. Clips whose time could not be resolved are
listed last.

By default the storage roots are scanned first. Use --cached to list the
index saved by the previous scan without touching storage.`,
	Args: cobra.NoArgs,
	RunE: runClips,
}

var clipCmd = &cobra.Command{
	Use:   "clip <id>",
	Short: "Show a clip's chunks and cameras",
	Long: `Shows every chunk of a clip, the cameras that recorded it, and the event
metadata saved with the clip. The ID may be shortened to any unique prefix.`,
	Args: cobra.ExactArgs(1),
	RunE: runClip,
}

func init() {
	clipsCmd.Flags().BoolVar(&clipsJSON, "json", false, "output clips as JSON")
	clipsCmd.Flags().BoolVar(&clipsCached, "cached", false, "list the saved index without scanning")
	clipsCmd.Flags().StringVar(&clipsCamera, "camera", "", "only list clips recorded by this camera")
	clipCmd.Flags().BoolVar(&clipJSON, "json", false, "output the clip as JSON")
	rootCmd.AddCommand(clipsCmd)
	rootCmd.AddCommand(clipCmd)
}

func runClips(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errIndexNotConfigured
	}

	ctx := commandContext(cmd)
	var (
		idx *domain.StorageIndex
		err error
	)
	if clipsCached {
		idx, err = indexService.Load(ctx)
	} else {
		idx, err = indexService.Scan(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}

	clips := domain.FilterByCamera(idx.Clips(), clipsCamera)
	if clipsJSON {
		return outputClipsJSON(cmd, clips)
	}
	outputClipsTable(cmd, clips)
	if idx.Partial() {
		cmd.Printf("\nWarning: %d root(s) could not be scanned.\n", len(idx.Failures()))
	}
	return nil
}

func outputClipsJSON(cmd *cobra.Command, clips []domain.Clip) error {
	out := make([]domain.ClipSummary, len(clips))
	for i := range clips {
		out[i] = domain.Summarise(clips[i])
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal clips: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputClipsTable(cmd *cobra.Command, clips []domain.Clip) {
	if len(clips) == 0 {
		cmd.Println("No clips found.")
		return
	}

	for i := range clips {
		c := clips[i]
		cmd.Printf("[%d] %-24s %s  %3d chunks  %s\n",
			i+1, c.Name, shortID(c.ID), len(c.Chunks), cameraLabels(c.Cameras()))
	}
}

func runClip(cmd *cobra.Command, args []string) error {
	clip, err := lookupClip(commandContext(cmd), args[0])
	if err != nil {
		return err
	}

	if clipJSON {
		data, err := json.MarshalIndent(domain.Detail(clip), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal clip: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(clip.Name)
	cmd.Println(strings.Repeat("=", len(clip.Name)))
	cmd.Printf("ID:        %s\n", clip.ID)
	cmd.Printf("Directory: %s\n", clip.Dir)
	if clip.HasTimestamp() {
		cmd.Printf("Time:      %s\n", clip.Timestamp.Format(domain.DisplayTimeLayout))
	} else {
		cmd.Println("Time:      unknown")
	}
	cmd.Printf("Chunks:    %d (%d segments, %s)\n", len(clip.Chunks), clip.SegmentCount(), clip.Span())
	cmd.Printf("Cameras:   %s\n", cameraLabels(clip.Cameras()))
	if clip.ThumbnailPath != "" {
		cmd.Printf("Thumbnail: %s\n", clip.ThumbnailPath)
	}
	if ev := clip.Event; ev != nil {
		cmd.Println()
		cmd.Println("[Event]")
		cmd.Printf("  Time:   %s\n", ev.Timestamp.Format(domain.DisplayTimeLayout))
		if ev.Reason != "" {
			cmd.Printf("  Reason: %s\n", ev.Reason)
		}
		if ev.City != "" {
			cmd.Printf("  City:   %s\n", ev.City)
		}
		if ev.EstLat != 0 || ev.EstLon != 0 {
			cmd.Printf("  Where:  %.5f, %.5f\n", ev.EstLat, ev.EstLon)
		}
	}

	cmd.Println()
	for i, ch := range clip.Chunks {
		cmd.Printf("  [%d] %s  %s\n", i, ch.Timestamp.Format("15:04:05"), cameraLabels(ch.Cameras()))
	}
	return nil
}

func cameraLabels(cameras []string) string {
	return strings.Join(cameras, ", ")
}
