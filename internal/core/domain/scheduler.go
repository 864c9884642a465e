package domain

import "time"

// TaskIDStorageRescan rescans every storage root.
const TaskIDStorageRescan = "storage-rescan"

// MinTaskInterval is the shortest interval a task runs at. Shorter
// configured intervals are raised to it.
const MinTaskInterval = time.Minute

// TaskName returns the display name of a built-in task.
func TaskName(id string) string {
	switch id {
	case TaskIDStorageRescan:
		return "Storage rescan"
	default:
		return id
	}
}

// SchedulerConfig configures background tasks.
type SchedulerConfig struct {
	// Enabled is the master switch. When false no task runs.
	Enabled bool

	// Tasks maps task ID to its configuration.
	Tasks map[string]TaskConfig
}

// TaskConfig configures one task.
type TaskConfig struct {
	Enabled  bool
	Interval time.Duration
}

// Task returns the configuration of id, or the zero TaskConfig if id is
// not configured.
func (c SchedulerConfig) Task(id string) TaskConfig {
	return c.Tasks[id]
}

// DefaultSchedulerConfig returns the scheduler defaults: off, with a
// rescan every 30 minutes once switched on.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Tasks: map[string]TaskConfig{
			TaskIDStorageRescan: {Enabled: true, Interval: 30 * time.Minute},
		},
	}
}

// TaskState is the persisted schedule of a task.
type TaskState struct {
	ID       string
	Interval time.Duration

	// NextRun is when the task is due. The zero time means now.
	NextRun time.Time

	LastRun     time.Time
	LastSuccess time.Time
	LastError   string

	// Runs and Failures count every recorded run.
	Runs     int
	Failures int
}

// NewTaskState schedules id to first run one interval after now.
func NewTaskState(id string, interval time.Duration, now time.Time) TaskState {
	interval = max(interval, MinTaskInterval)
	return TaskState{ID: id, Interval: interval, NextRun: now.Add(interval)}
}

// Due reports whether the task should run at now.
func (s TaskState) Due(now time.Time) bool {
	return s.NextRun.IsZero() || !now.Before(s.NextRun)
}

// Reschedule applies a new interval. The next run moves to one interval
// after now only when the interval actually changes.
func (s *TaskState) Reschedule(interval time.Duration, now time.Time) {
	interval = max(interval, MinTaskInterval)
	if interval == s.Interval {
		return
	}
	s.Interval = interval
	s.NextRun = now.Add(interval)
}

// Record folds a finished run into the state and schedules the next run
// one interval after it ended.
func (s *TaskState) Record(run TaskRun) {
	s.Runs++
	s.LastRun = run.StartedAt
	s.NextRun = run.EndedAt.Add(s.Interval)
	if run.Failed() {
		s.Failures++
		s.LastError = run.Error
		return
	}
	s.LastError = ""
	s.LastSuccess = run.EndedAt
}

// TaskRun is one execution of a task.
type TaskRun struct {
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time

	// Clips is the size of the index the run produced.
	Clips int

	// Error is set when the run failed.
	Error string
}

// Failed reports whether the run ended in an error.
func (r TaskRun) Failed() bool {
	return r.Error != ""
}

// Duration returns how long the run took.
func (r TaskRun) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}
