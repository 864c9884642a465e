package driving

import (
	"context"

	"github.com/custodia-labs/camdeck/internal/core/domain"
)

// PlaybackService plays clips as synchronised multi-camera sessions.
// At most one session is active at a time.
type PlaybackService interface {
	// Start stops any running session and starts playing the clip.
	// Returns the new session ID.
	Start(ctx context.Context, clipID string, opts domain.PlaybackOptions) (string, error)

	// Stop ends the running session and releases every surface.
	// Returns domain.ErrNoSession if nothing is playing.
	Stop() error

	// Status returns the current session state.
	Status() domain.PlaybackStatus

	// Subscribe registers fn to be called after every state change.
	// fn runs on the playback goroutine and must not block.
	Subscribe(fn func(domain.PlaybackStatus)) (unsubscribe func())
}
