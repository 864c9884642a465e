package domain

import (
	"fmt"
	"time"
)

// Composition describes the picture the renderer produces: the primary
// camera fills the frame and every overlay camera is drawn as a labelled
// tile in a corner.
type Composition struct {
	// TileWidth and TileHeight size each overlay tile in pixels.
	TileWidth  int
	TileHeight int

	// Padding is the gap between a tile and the frame edge.
	Padding int

	// Duration bounds the rendered output.
	Duration time.Duration

	// Codec, Preset and Format configure the encoder and container.
	Codec  string
	Preset string
	Format string
}

// DefaultComposition returns the composition used when nothing is configured.
func DefaultComposition() Composition {
	return Composition{
		TileWidth:  256,
		TileHeight: 192,
		Padding:    30,
		Duration:   60 * time.Second,
		Codec:      "libx264",
		Preset:     "ultrafast",
		Format:     "mpegts",
	}
}

// Resolution returns the tile size as WxH.
func (c Composition) Resolution() string {
	return fmt.Sprintf("%dx%d", c.TileWidth, c.TileHeight)
}

// MaxOverlays is the number of corner tiles a composition can hold.
const MaxOverlays = 4

// RenderInput is one camera feeding the renderer. An empty Path means the
// camera has no segment for the chunk and a placeholder is drawn instead.
type RenderInput struct {
	Camera string
	Path   string
}

// Placeholder reports whether the input needs a generated source.
func (in RenderInput) Placeholder() bool {
	return in.Path == ""
}

// RenderJob is a request to compose one chunk.
type RenderJob struct {
	// Primary is the full-frame camera.
	Primary RenderInput

	// Overlays are drawn as corner tiles in order: top-left, top-right,
	// bottom-left, bottom-right.
	Overlays []RenderInput

	// Composition controls layout and encoding.
	Composition Composition

	// Output is the file to write. When empty the renderer writes to a
	// temporary file that it removes on Stop.
	Output string
}

// NewRenderJob builds a job for one chunk of a clip. Overlay cameras the
// chunk lacks become placeholders. The primary camera is never repeated as
// an overlay.
func NewRenderJob(chunk Chunk, primary string, overlays []string, comp Composition) (RenderJob, error) {
	seg, ok := chunk.Segment(primary)
	if !ok {
		return RenderJob{}, fmt.Errorf("%w: chunk %s has no %q segment",
			ErrInvalidInput, chunk.Timestamp.Format(SegmentTimeLayout), primary)
	}
	job := RenderJob{
		Primary:     RenderInput{Camera: primary, Path: seg.Path},
		Composition: comp,
	}
	for _, cam := range overlays {
		if cam == primary {
			continue
		}
		if len(job.Overlays) == MaxOverlays {
			break
		}
		in := RenderInput{Camera: cam}
		if s, ok := chunk.Segment(cam); ok {
			in.Path = s.Path
		}
		job.Overlays = append(job.Overlays, in)
	}
	return job, nil
}
