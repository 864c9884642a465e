package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
	"github.com/custodia-labs/camdeck/internal/core/ports/driving"
	"github.com/custodia-labs/camdeck/internal/logger"
)

var _ driving.Scheduler = (*Scheduler)(nil)

const (
	// defaultTick is how often the loop looks for due tasks.
	defaultTick = time.Minute

	// runHistory is how many runs are kept per task.
	runHistory = 100
)

// Scheduler runs the configured background tasks. Each task's schedule
// lives in a SchedulerStore, so a restart does not rerun a task early.
type Scheduler struct {
	config domain.SchedulerConfig
	store  driven.SchedulerStore
	index  driving.IndexService
	logger *logger.Logger
	tick   time.Duration
	now    func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	busy    map[string]bool
	wg      sync.WaitGroup
}

// NewScheduler returns a scheduler for config. index backs the storage
// rescan task.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	index driving.IndexService,
	log *logger.Logger,
) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		config: config,
		store:  store,
		index:  index,
		logger: log,
		tick:   defaultTick,
		now:    time.Now,
		busy:   make(map[string]bool),
	}
}

// Start syncs the stored schedules with the configuration, runs anything
// already due and then checks every tick. It blocks until ctx is done or
// Stop is called. A second concurrent Start returns nil at once.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stop := s.stopCh
	s.mu.Unlock()

	if err := s.sync(ctx); err != nil {
		s.logger.Warn("scheduler: syncing tasks: %v", err)
	}
	s.runDue(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = s.Stop()
			return ctx.Err()
		case <-stop:
			return nil
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}

// Stop ends the loop and waits for running tasks.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Tasks returns every stored schedule.
func (s *Scheduler) Tasks(ctx context.Context) ([]domain.TaskState, error) {
	return s.store.ListTasks(ctx)
}

// enabled returns the IDs of the tasks the configuration turns on, sorted.
func (s *Scheduler) enabled() []string {
	var ids []string
	for _, id := range slices.Sorted(maps.Keys(s.config.Tasks)) {
		if s.config.Tasks[id].Enabled {
			ids = append(ids, id)
		}
	}
	return ids
}

// sync creates a schedule for every enabled task that has none and applies
// interval changes to the rest.
func (s *Scheduler) sync(ctx context.Context) error {
	now := s.now()
	var errs []error
	for _, id := range s.enabled() {
		interval := s.config.Task(id).Interval
		state, ok, err := s.store.LoadTask(ctx, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			state.Reschedule(interval, now)
		} else {
			state = domain.NewTaskState(id, interval, now)
		}
		if err := s.store.SaveTask(ctx, state); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// runDue starts every enabled task whose next run has passed and which is
// not already running.
func (s *Scheduler) runDue(ctx context.Context) {
	states, err := s.store.ListTasks(ctx)
	if err != nil {
		s.logger.Warn("scheduler: listing tasks: %v", err)
		return
	}

	now := s.now()
	for _, state := range states {
		if !s.config.Task(state.ID).Enabled || !state.Due(now) {
			continue
		}
		s.mu.Lock()
		// Once Stop has begun waiting no new run may join the group.
		if !s.running || s.busy[state.ID] {
			s.mu.Unlock()
			continue
		}
		s.busy[state.ID] = true
		s.wg.Add(1)
		s.mu.Unlock()

		go func() {
			defer s.wg.Done()
			defer s.release(state.ID)
			s.run(ctx, state)
		}()
	}
}

func (s *Scheduler) release(id string) {
	s.mu.Lock()
	delete(s.busy, id)
	s.mu.Unlock()
}

// run executes one task and records the outcome.
func (s *Scheduler) run(ctx context.Context, state domain.TaskState) {
	run := domain.TaskRun{TaskID: state.ID, StartedAt: s.now()}
	clips, err := s.execute(ctx, state.ID)
	run.EndedAt = s.now()
	run.Clips = clips
	if err != nil {
		run.Error = err.Error()
		s.logger.Warn("scheduler: %s failed: %v", domain.TaskName(state.ID), err)
	} else {
		s.logger.Debug("scheduler: %s finished in %s", domain.TaskName(state.ID), run.Duration())
	}

	state.Record(run)
	if err := s.store.SaveTask(ctx, state); err != nil {
		s.logger.Warn("scheduler: saving %s: %v", state.ID, err)
	}
	if err := s.store.AppendRun(ctx, run, runHistory); err != nil {
		s.logger.Warn("scheduler: recording run of %s: %v", state.ID, err)
	}
}

// execute dispatches a task by ID and returns the resulting clip count.
func (s *Scheduler) execute(ctx context.Context, id string) (int, error) {
	switch id {
	case domain.TaskIDStorageRescan:
		return s.rescan(ctx)
	default:
		return 0, fmt.Errorf("%w: unknown task %q", domain.ErrInvalidInput, id)
	}
}

// rescan rebuilds the storage index. A scan already in progress counts as
// success.
func (s *Scheduler) rescan(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	idx, err := s.index.Scan(ctx)
	if errors.Is(err, domain.ErrScanInProgress) {
		s.logger.Debug("scheduler: rescan skipped, scan in progress")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return idx.Len(), nil
}
