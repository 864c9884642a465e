package driving

import (
	"context"

	"github.com/custodia-labs/camdeck/internal/core/domain"
)

// Scheduler runs background tasks such as the periodic storage rescan.
type Scheduler interface {
	// Start runs due tasks until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop ends the loop and waits for in-flight runs.
	Stop() error

	// Tasks reports the persisted schedule of every known task.
	Tasks(ctx context.Context) ([]domain.TaskState, error)
}
