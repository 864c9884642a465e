package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/camdeck/internal/core/domain"
)

var (
	renderChunk   int
	renderPrimary string
	renderOut     string
	exportCamera  string
	exportOut     string
)

var renderCmd = &cobra.Command{
	Use:   "render <id>",
	Short: "Compose a chunk's cameras into one video",
	Long: `Renders one chunk of a clip with the primary camera full size and up to
three other cameras overlaid in its corners. Cameras missing from the chunk
are drawn as black tiles.

Requires ffmpeg.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write an HLS playlist of one camera",
	Long: `Writes a video-on-demand playlist that plays one camera of a clip from start
to finish. Chunks the camera did not record are left out.

Entries point at the segment files on disk.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	renderCmd.Flags().IntVar(&renderChunk, "chunk", 0, "chunk index to render")
	renderCmd.Flags().StringVar(&renderPrimary, "primary", domain.MandatoryCamera, "camera drawn full size")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output file (default <clip>-<chunk>.ts)")
	exportCmd.Flags().StringVar(&exportCamera, "camera", domain.MandatoryCamera, "camera to export")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(exportCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	if renderService == nil {
		return errors.New("render service not configured")
	}

	ctx := commandContext(cmd)
	clip, err := lookupClip(ctx, args[0])
	if err != nil {
		return err
	}

	out := renderOut
	if out == "" {
		out = fmt.Sprintf("%s-%d.ts", filepath.Base(clip.Dir), renderChunk)
	}

	cmd.Printf("Rendering chunk %d of %s...\n", renderChunk, clip.Name)
	if err := renderService.Compose(ctx, clip.ID, renderChunk, renderPrimary, out); err != nil {
		var rerr *domain.RendererError
		if errors.As(err, &rerr) && rerr.Stderr != "" {
			cmd.PrintErrln(rerr.Stderr)
		}
		return fmt.Errorf("render failed: %w", err)
	}
	cmd.Printf("Wrote %s\n", out)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	if playlistService == nil {
		return errors.New("playlist service not configured")
	}

	ctx := commandContext(cmd)
	clip, err := lookupClip(ctx, args[0])
	if err != nil {
		return err
	}

	data, _, err := playlistService.Playlist(ctx, clip.ID, exportCamera, fileURI)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if exportOut == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(exportOut, data, 0o644); err != nil { //nolint:gosec // playlists are meant to be shared
		return fmt.Errorf("failed to write playlist: %w", err)
	}
	cmd.Printf("Wrote %s\n", exportOut)
	return nil
}

// fileURI points a playlist entry straight at the segment file.
func fileURI(_ domain.Clip, _ int, seg domain.Segment) string {
	return seg.Path
}
