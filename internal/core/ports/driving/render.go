package driving

import (
	"context"

	"github.com/custodia-labs/camdeck/internal/core/domain"
)

// RenderStream is a running composed render whose output is already
// buffered. The caller must Stop it when done.
type RenderStream interface {
	Output() string
	Done() <-chan struct{}
	Wait() error
	Stop() error
}

// RenderService composes a chunk's cameras into one picture.
type RenderService interface {
	// Stream starts rendering chunk of clip to a temporary file and returns
	// once output is available for reading.
	Stream(ctx context.Context, clipID string, chunk int, primary string) (RenderStream, error)

	// Compose renders chunk of clip to out and waits for completion.
	Compose(ctx context.Context, clipID string, chunk int, primary, out string) error
}

// SegmentURIFunc names a segment inside a playlist.
type SegmentURIFunc func(clip domain.Clip, chunk int, seg domain.Segment) string

// PlaylistService exports clips as playlists.
type PlaylistService interface {
	// Playlist encodes one camera of a clip. Returns the encoded playlist
	// and its content type.
	Playlist(ctx context.Context, clipID, camera string, uri SegmentURIFunc) ([]byte, string, error)
}
