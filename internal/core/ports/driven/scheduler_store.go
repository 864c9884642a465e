package driven

import (
	"context"

	"github.com/custodia-labs/camdeck/internal/core/domain"
)

// SchedulerStore persists task schedules and run history, so a restart
// resumes each task where the previous process left it.
type SchedulerStore interface {
	// LoadTask returns the saved state of taskID. ok is false when the task
	// was never saved.
	LoadTask(ctx context.Context, taskID string) (state domain.TaskState, ok bool, err error)

	// SaveTask creates or replaces a task's state.
	SaveTask(ctx context.Context, state domain.TaskState) error

	// ListTasks returns every saved state, ordered by ID.
	ListTasks(ctx context.Context) ([]domain.TaskState, error)

	// AppendRun records a run and drops all but the newest keep runs of
	// the same task.
	AppendRun(ctx context.Context, run domain.TaskRun, keep int) error

	// Runs returns the newest runs of taskID, most recent first.
	Runs(ctx context.Context, taskID string, limit int) ([]domain.TaskRun, error)
}
