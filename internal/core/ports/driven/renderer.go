package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/camdeck/internal/core/domain"
)

// Renderer composes a chunk into a single video using an external tool.
type Renderer interface {
	// Start launches a render and returns immediately.
	Start(ctx context.Context, job domain.RenderJob) (RenderProcess, error)
}

// RenderProcess is a running render. Its owner must call Stop exactly once
// it no longer needs the output, on every path.
type RenderProcess interface {
	// Output returns the file being written.
	Output() string

	// Done is closed when the process exits.
	Done() <-chan struct{}

	// Wait blocks until the process exits and returns its error.
	Wait() error

	// Stop terminates the process if it is still running, waits for it and
	// removes temporary output. It is safe to call more than once.
	Stop() error
}

// Prober reads media properties.
type Prober interface {
	// Duration returns the playing time of the media file at path.
	Duration(ctx context.Context, path string) (time.Duration, error)
}
