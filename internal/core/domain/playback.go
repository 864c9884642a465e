package domain

import "time"

// DefaultPlaceholderDuration is how long the session waits on a chunk whose
// primary camera is missing or unplayable before moving on.
const DefaultPlaceholderDuration = 60 * time.Second

// FeedState is the lifecycle state of one playback feed.
type FeedState int

// Feed states.
const (
	// FeedIdle means nothing is loaded.
	FeedIdle FeedState = iota

	// FeedLoading means the active slot is opening a segment.
	FeedLoading

	// FeedPlaying means the active slot is playing a segment.
	FeedPlaying

	// FeedHolding means the feed has nothing to play for the current chunk,
	// either because its segment finished or because the camera did not
	// record one. It resumes when the shared cursor moves.
	FeedHolding

	// FeedExhausted means the last chunk has been played.
	FeedExhausted
)

// String returns the state name.
func (s FeedState) String() string {
	switch s {
	case FeedIdle:
		return "idle"
	case FeedLoading:
		return "loading"
	case FeedPlaying:
		return "playing"
	case FeedHolding:
		return "holding"
	case FeedExhausted:
		return "exhausted"
	default:
		return unknownDescription
	}
}

// FeedStatus is a point-in-time view of one feed.
type FeedStatus struct {
	// Camera is the camera this feed shows.
	Camera string

	// Primary marks the feed whose completion drives the session.
	Primary bool

	// State is the feed's lifecycle state.
	State FeedState

	// ChunkIndex is the chunk the feed is positioned on.
	ChunkIndex int

	// Path is the segment in the active slot, empty if none.
	Path string

	// Preloaded is the segment waiting in the standby slot, empty if none.
	Preloaded string

	// Err is the most recent playback failure on this feed.
	Err error
}

// PlaybackStatus is a point-in-time view of a playback session.
type PlaybackStatus struct {
	// SessionID identifies the session.
	SessionID string

	// ClipID identifies the clip being played.
	ClipID string

	// ClipName is the clip's display name.
	ClipName string

	// ChunkIndex is the shared cursor.
	ChunkIndex int

	// ChunkCount is the number of chunks in the clip.
	ChunkCount int

	// ChunkTime is the timestamp of the current chunk.
	ChunkTime time.Time

	// Feeds holds one entry per camera, primary first.
	Feeds []FeedStatus

	// Active is false once the session has been stopped.
	Active bool

	// Exhausted is true once every chunk has been played.
	Exhausted bool
}

// Feed returns the status of camera's feed.
func (s PlaybackStatus) Feed(camera string) (FeedStatus, bool) {
	for _, f := range s.Feeds {
		if f.Camera == camera {
			return f, true
		}
	}
	return FeedStatus{}, false
}

// PlaybackOptions configures a playback session.
type PlaybackOptions struct {
	// Cameras lists the feeds to show. Cameras the clip never recorded are
	// still shown and simply hold.
	Cameras []string

	// Primary is the camera whose "ended" signal advances every feed.
	Primary string

	// PlaceholderDuration is how long to stay on a chunk whose primary
	// segment is missing or fails.
	PlaceholderDuration time.Duration
}

// Normalise fills defaults and places the primary camera first.
func (o PlaybackOptions) Normalise() PlaybackOptions {
	out := o
	if out.Primary == "" {
		out.Primary = MandatoryCamera
	}
	if out.PlaceholderDuration <= 0 {
		out.PlaceholderDuration = DefaultPlaceholderDuration
	}
	cams := []string{out.Primary}
	seen := map[string]struct{}{out.Primary: {}}
	for _, c := range o.Cameras {
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		cams = append(cams, c)
	}
	out.Cameras = cams
	return out
}
