package domain

import "time"

// ClipSummary is the serialisable view of a clip shared by the CLI, HTTP
// API and MCP server.
type ClipSummary struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Dir       string         `json:"dir"`
	Root      string         `json:"root,omitempty"`
	Timestamp *time.Time     `json:"timestamp,omitempty"`
	Chunks    int            `json:"chunks"`
	Segments  int            `json:"segments"`
	Cameras   []string       `json:"cameras"`
	Span      float64        `json:"span_seconds"`
	Event     *EventMetadata `json:"event,omitempty"`
	Thumbnail string         `json:"thumbnail,omitempty"`
}

// ChunkSummary is the serialisable view of one chunk.
type ChunkSummary struct {
	Index     int               `json:"index"`
	Timestamp time.Time         `json:"timestamp"`
	Segments  map[string]string `json:"segments"`
}

// ClipDetail extends ClipSummary with every chunk.
type ClipDetail struct {
	ClipSummary
	ChunkList []ChunkSummary `json:"chunk_list"`
}

// Summarise builds the summary view of c.
func Summarise(c Clip) ClipSummary {
	s := ClipSummary{
		ID:        c.ID,
		Name:      c.Name,
		Dir:       c.Dir,
		Root:      c.Root,
		Chunks:    len(c.Chunks),
		Segments:  c.SegmentCount(),
		Cameras:   c.Cameras(),
		Span:      c.Span().Seconds(),
		Event:     c.Event,
		Thumbnail: c.ThumbnailPath,
	}
	if c.HasTimestamp() {
		ts := c.Timestamp
		s.Timestamp = &ts
	}
	return s
}

// Detail builds the detail view of c.
func Detail(c Clip) ClipDetail {
	d := ClipDetail{
		ClipSummary: Summarise(c),
		ChunkList:   make([]ChunkSummary, len(c.Chunks)),
	}
	for i, ch := range c.Chunks {
		paths := make(map[string]string, len(ch.Segments))
		for cam, seg := range ch.Segments {
			paths[cam] = seg.Path
		}
		d.ChunkList[i] = ChunkSummary{Index: i, Timestamp: ch.Timestamp, Segments: paths}
	}
	return d
}

// FilterByCamera returns the clips that recorded camera in at least one
// chunk. An empty camera returns clips unchanged.
func FilterByCamera(clips []Clip, camera string) []Clip {
	if camera == "" {
		return clips
	}
	out := make([]Clip, 0, len(clips))
	for _, c := range clips {
		for _, ch := range c.Chunks {
			if ch.Has(camera) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
