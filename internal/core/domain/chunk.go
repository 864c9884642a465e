package domain

import (
	"sort"
	"strings"
	"time"
)

// Well-known camera identifiers. Camera IDs are free-form strings; these are
// the ones a TeslaCam volume produces.
const (
	CameraFront         = "front"
	CameraBack          = "back"
	CameraLeftRepeater  = "left_repeater"
	CameraRightRepeater = "right_repeater"
)

// MandatoryCamera must be present in every chunk. Groups without it are
// discarded during indexing.
const MandatoryCamera = CameraFront

// DefaultCameras returns the camera set shown when none is configured.
func DefaultCameras() []string {
	return []string{CameraFront, CameraBack, CameraLeftRepeater, CameraRightRepeater}
}

// CameraLabel returns a short display name for camera: "Front",
// "Left" for left_repeater and so on.
func CameraLabel(camera string) string {
	name, _, _ := strings.Cut(camera, "_")
	if name == "" {
		return camera
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// Chunk is the set of segments from different cameras that share one
// timestamp. A chunk is immutable once built and always holds a segment for
// MandatoryCamera.
type Chunk struct {
	// Timestamp is the shared start time of every segment in the chunk.
	Timestamp time.Time

	// Segments maps camera ID to that camera's segment.
	Segments map[string]Segment
}

// Segment returns the segment recorded by camera, if any.
func (c Chunk) Segment(camera string) (Segment, bool) {
	s, ok := c.Segments[camera]
	return s, ok
}

// Has reports whether camera recorded a segment for this chunk.
func (c Chunk) Has(camera string) bool {
	_, ok := c.Segments[camera]
	return ok
}

// Cameras returns the chunk's camera IDs in sorted order.
func (c Chunk) Cameras() []string {
	cams := make([]string, 0, len(c.Segments))
	for cam := range c.Segments {
		cams = append(cams, cam)
	}
	sort.Strings(cams)
	return cams
}

// Valid reports whether the chunk holds the mandatory camera.
func (c Chunk) Valid() bool {
	return c.Has(MandatoryCamera)
}
