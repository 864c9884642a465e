package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/camdeck/internal/core/domain"
)

// corner returns the overlay position of tile i as an ffmpeg expression pair.
// Tiles fill top-left, top-right, bottom-left then bottom-right.
func corner(i int, comp domain.Composition) string {
	x := strconv.Itoa(comp.Padding)
	y := strconv.Itoa(comp.Padding)
	if i%2 == 1 {
		x = fmt.Sprintf("W-%d-%d", comp.TileWidth, comp.Padding)
	}
	if i >= 2 {
		y = fmt.Sprintf("H-%d-%d", comp.TileHeight, comp.Padding)
	}
	return x + ":" + y
}

// filterGraph builds the -filter_complex expression for n overlays. Input 0
// is the primary camera and inputs 1..n the overlays in corner order. The
// result is labelled [output].
func filterGraph(overlays []domain.RenderInput, comp domain.Composition) string {
	if len(overlays) == 0 {
		return "[0:v]null[output]"
	}

	var parts []string
	for i, in := range overlays {
		parts = append(parts, fmt.Sprintf(
			"[%d:v]scale=%d:%d,drawtext=text='%s':x=5:y=h-25:fontsize=20:fontcolor=white[tile%d]",
			i+1, comp.TileWidth, comp.TileHeight, escapeText(domain.CameraLabel(in.Camera)), i))
	}

	prev := "0:v"
	for i := range overlays {
		out := fmt.Sprintf("bg%d", i)
		if i == len(overlays)-1 {
			out = "output"
		}
		parts = append(parts, fmt.Sprintf("[%s][tile%d]overlay=%s:shortest=1[%s]",
			prev, i, corner(i, comp), out))
		prev = out
	}
	return strings.Join(parts, ";")
}

// escapeText quotes a drawtext value.
func escapeText(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)
	return r.Replace(s)
}

// buildArgs returns the ffmpeg arguments that render job into output.
func buildArgs(job domain.RenderJob, output string) []string {
	comp := job.Composition
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", job.Primary.Path,
	}
	for _, in := range job.Overlays {
		if in.Placeholder() {
			args = append(args, "-f", "lavfi", "-i", "color=c=black:s="+comp.Resolution())
			continue
		}
		args = append(args, "-i", in.Path)
	}

	args = append(args,
		"-filter_complex", filterGraph(job.Overlays, comp),
		"-map", "[output]",
		"-c:v", comp.Codec,
		"-preset", comp.Preset,
		"-movflags", "+faststart",
	)
	if comp.Duration > 0 {
		args = append(args, "-t", strconv.FormatFloat(comp.Duration.Seconds(), 'f', -1, 64))
	}
	return append(args, "-f", comp.Format, output)
}
