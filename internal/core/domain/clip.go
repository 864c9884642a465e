package domain

import (
	"sort"
	"time"
)

// Clip is an ordered, non-empty run of chunks found in one directory.
type Clip struct {
	// ID is a stable identifier derived from the directory path.
	ID string

	// Dir is the absolute path of the clip directory. It is the clip's
	// identity inside an index.
	Dir string

	// Root is the storage root the clip was discovered under.
	Root string

	// Name is the display name: the formatted timestamp when the directory
	// name carries one, otherwise the raw directory name.
	Name string

	// Timestamp is the clip time. The zero value means it could not be
	// resolved from either the directory name or event metadata.
	Timestamp time.Time

	// Chunks are ordered by strictly increasing timestamp.
	Chunks []Chunk

	// Event is the parsed event.json, or nil when absent or unreadable.
	Event *EventMetadata

	// ThumbnailPath is the path of thumb.png when one exists.
	ThumbnailPath string
}

// HasTimestamp reports whether the clip time was resolved.
func (c Clip) HasTimestamp() bool {
	return !c.Timestamp.IsZero()
}

// Chunk returns the chunk at index i.
func (c Clip) Chunk(i int) (Chunk, bool) {
	if i < 0 || i >= len(c.Chunks) {
		return Chunk{}, false
	}
	return c.Chunks[i], true
}

// Cameras returns every camera that appears in at least one chunk, sorted.
func (c Clip) Cameras() []string {
	seen := make(map[string]struct{})
	for _, ch := range c.Chunks {
		for cam := range ch.Segments {
			seen[cam] = struct{}{}
		}
	}
	cams := make([]string, 0, len(seen))
	for cam := range seen {
		cams = append(cams, cam)
	}
	sort.Strings(cams)
	return cams
}

// SegmentCount returns the total number of segments in the clip.
func (c Clip) SegmentCount() int {
	n := 0
	for _, ch := range c.Chunks {
		n += len(ch.Segments)
	}
	return n
}

// Span returns the time between the first and last chunk starts.
func (c Clip) Span() time.Duration {
	if len(c.Chunks) < 2 {
		return 0
	}
	return c.Chunks[len(c.Chunks)-1].Timestamp.Sub(c.Chunks[0].Timestamp)
}

// ClipLess orders clips newest first. Clips without a resolved timestamp
// sort after every timestamped clip. Ties fall back to display name and
// then directory.
func ClipLess(a, b Clip) bool {
	if a.HasTimestamp() != b.HasTimestamp() {
		return a.HasTimestamp()
	}
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Dir < b.Dir
}
