package driven

import "time"

// PlaylistEntry is one media item in a playlist.
type PlaylistEntry struct {
	URI      string
	Duration time.Duration
	Title    string

	// Discontinuity marks the entry as the start of a new encoding run.
	Discontinuity bool
}

// PlaylistEncoder renders a video-on-demand playlist.
type PlaylistEncoder interface {
	Encode(entries []PlaylistEntry) ([]byte, error)

	// ContentType returns the MIME type of encoded playlists.
	ContentType() string
}
