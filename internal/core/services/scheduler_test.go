package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
	"github.com/custodia-labs/camdeck/internal/core/ports/driving"
)

// memTaskStore keeps task state in maps.
type memTaskStore struct {
	mu      sync.Mutex
	states  map[string]domain.TaskState
	runs    map[string][]domain.TaskRun
	keeps   []int
	loadErr error
	listErr error
	saveErr error
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{
		states: make(map[string]domain.TaskState),
		runs:   make(map[string][]domain.TaskRun),
	}
}

func (m *memTaskStore) LoadTask(_ context.Context, id string) (domain.TaskState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return domain.TaskState{}, false, m.loadErr
	}
	s, ok := m.states[id]
	return s, ok, nil
}

func (m *memTaskStore) SaveTask(_ context.Context, s domain.TaskState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.states[s.ID] = s
	return nil
}

func (m *memTaskStore) ListTasks(_ context.Context) ([]domain.TaskState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.TaskState, 0, len(m.states))
	for _, s := range m.states {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b domain.TaskState) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *memTaskStore) AppendRun(_ context.Context, run domain.TaskRun, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.TaskID] = append([]domain.TaskRun{run}, m.runs[run.TaskID]...)
	m.keeps = append(m.keeps, keep)
	return nil
}

func (m *memTaskStore) Runs(_ context.Context, id string, limit int) ([]domain.TaskRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	runs := m.runs[id]
	return runs[:min(limit, len(runs))], nil
}

func (m *memTaskStore) state(id string) (domain.TaskState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[id]
	return s, ok
}

// mockRescanIndex counts scans requested by the scheduler.
type mockRescanIndex struct {
	driving.IndexService

	mu    sync.Mutex
	scans int
	err   error
}

func (m *mockRescanIndex) Scan(_ context.Context, _ ...string) (*domain.StorageIndex, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans++
	if m.err != nil {
		return nil, m.err
	}
	clips := []domain.Clip{makeClip("a", []string{"front"}), makeClip("b", []string{"front"})}
	return domain.NewStorageIndex(clips, nil, time.Now()), nil
}

func (m *mockRescanIndex) Scans() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scans
}

var (
	_ driven.SchedulerStore = (*memTaskStore)(nil)
	_ driving.IndexService  = (*mockRescanIndex)(nil)
)

var schedulerNow = time.Date(2023, 2, 23, 14, 0, 0, 0, time.UTC)

func newTestScheduler(config domain.SchedulerConfig, store driven.SchedulerStore, index driving.IndexService) *Scheduler {
	s := NewScheduler(config, store, index, nil)
	s.now = func() time.Time { return schedulerNow }
	return s
}

func rescanConfig(interval time.Duration) domain.SchedulerConfig {
	return domain.SchedulerConfig{
		Enabled: true,
		Tasks: map[string]domain.TaskConfig{
			domain.TaskIDStorageRescan: {Enabled: true, Interval: interval},
		},
	}
}

func TestNewScheduler(t *testing.T) {
	s := NewScheduler(domain.DefaultSchedulerConfig(), newMemTaskStore(), nil, nil)

	require.NotNil(t, s)
	assert.Equal(t, defaultTick, s.tick)
	assert.NotNil(t, s.logger)
}

func TestScheduler_Sync_CreatesEnabledTasks(t *testing.T) {
	store := newMemTaskStore()
	config := rescanConfig(time.Hour)
	config.Tasks["off"] = domain.TaskConfig{Enabled: false, Interval: time.Hour}
	s := newTestScheduler(config, store, nil)

	require.NoError(t, s.sync(context.Background()))

	state, ok := store.state(domain.TaskIDStorageRescan)
	require.True(t, ok)
	assert.Equal(t, time.Hour, state.Interval)
	assert.Equal(t, schedulerNow.Add(time.Hour), state.NextRun)
	_, ok = store.state("off")
	assert.False(t, ok)
}

func TestScheduler_Sync_KeepsScheduleAcrossRestarts(t *testing.T) {
	store := newMemTaskStore()
	saved := domain.NewTaskState(domain.TaskIDStorageRescan, time.Hour, schedulerNow.Add(-50*time.Minute))
	saved.Runs = 4
	require.NoError(t, store.SaveTask(context.Background(), saved))
	s := newTestScheduler(rescanConfig(time.Hour), store, nil)

	require.NoError(t, s.sync(context.Background()))

	state, _ := store.state(domain.TaskIDStorageRescan)
	assert.Equal(t, saved.NextRun, state.NextRun)
	assert.Equal(t, 4, state.Runs)
}

func TestScheduler_Sync_AppliesIntervalChange(t *testing.T) {
	store := newMemTaskStore()
	require.NoError(t, store.SaveTask(context.Background(),
		domain.NewTaskState(domain.TaskIDStorageRescan, time.Hour, schedulerNow.Add(-time.Hour))))
	s := newTestScheduler(rescanConfig(2*time.Hour), store, nil)

	require.NoError(t, s.sync(context.Background()))

	state, _ := store.state(domain.TaskIDStorageRescan)
	assert.Equal(t, 2*time.Hour, state.Interval)
	assert.Equal(t, schedulerNow.Add(2*time.Hour), state.NextRun)
}

func TestScheduler_Sync_ReportsStoreErrors(t *testing.T) {
	store := newMemTaskStore()
	store.loadErr = errors.New("locked")
	s := newTestScheduler(rescanConfig(time.Hour), store, nil)

	assert.EqualError(t, s.sync(context.Background()), "locked")
}

func TestScheduler_RunDue_RunsAndRecords(t *testing.T) {
	store := newMemTaskStore()
	index := &mockRescanIndex{}
	ctx := context.Background()
	require.NoError(t, store.SaveTask(ctx, domain.TaskState{ID: domain.TaskIDStorageRescan, Interval: time.Hour}))
	s := newTestScheduler(rescanConfig(time.Hour), store, index)
	s.running = true

	s.runDue(ctx)
	s.wg.Wait()

	assert.Equal(t, 1, index.Scans())
	state, _ := store.state(domain.TaskIDStorageRescan)
	assert.Equal(t, 1, state.Runs)
	assert.Empty(t, state.LastError)
	assert.Equal(t, schedulerNow, state.LastSuccess)
	assert.Equal(t, schedulerNow.Add(time.Hour), state.NextRun)

	runs, err := store.Runs(ctx, domain.TaskIDStorageRescan, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].Clips)
	assert.False(t, runs[0].Failed())
	assert.Equal(t, []int{runHistory}, store.keeps)
}

func TestScheduler_RunDue_RecordsFailure(t *testing.T) {
	store := newMemTaskStore()
	ctx := context.Background()
	require.NoError(t, store.SaveTask(ctx, domain.TaskState{ID: domain.TaskIDStorageRescan, Interval: time.Hour}))
	s := newTestScheduler(rescanConfig(time.Hour), store, &mockRescanIndex{err: errors.New("boom")})
	s.running = true

	s.runDue(ctx)
	s.wg.Wait()

	state, _ := store.state(domain.TaskIDStorageRescan)
	assert.Equal(t, "boom", state.LastError)
	assert.Equal(t, 1, state.Failures)
	assert.True(t, state.LastSuccess.IsZero())
}

func TestScheduler_RunDue_SkipsFutureAndDisabled(t *testing.T) {
	store := newMemTaskStore()
	index := &mockRescanIndex{}
	ctx := context.Background()
	require.NoError(t, store.SaveTask(ctx, domain.NewTaskState(domain.TaskIDStorageRescan, time.Hour, schedulerNow)))
	require.NoError(t, store.SaveTask(ctx, domain.TaskState{ID: "retired", Interval: time.Hour}))
	s := newTestScheduler(rescanConfig(time.Hour), store, index)
	s.running = true

	s.runDue(ctx)
	s.wg.Wait()

	assert.Zero(t, index.Scans())
	retired, _ := store.state("retired")
	assert.Zero(t, retired.Runs, "tasks missing from the configuration never run")
}

func TestScheduler_RunDue_SkipsBusyTask(t *testing.T) {
	store := newMemTaskStore()
	index := &mockRescanIndex{}
	ctx := context.Background()
	require.NoError(t, store.SaveTask(ctx, domain.TaskState{ID: domain.TaskIDStorageRescan, Interval: time.Hour}))
	s := newTestScheduler(rescanConfig(time.Hour), store, index)
	s.running = true
	s.busy[domain.TaskIDStorageRescan] = true

	s.runDue(ctx)
	s.wg.Wait()

	assert.Zero(t, index.Scans())
}

func TestScheduler_RunDue_ListError(t *testing.T) {
	store := newMemTaskStore()
	store.listErr = errors.New("locked")
	index := &mockRescanIndex{}
	s := newTestScheduler(rescanConfig(time.Hour), store, index)
	s.running = true

	s.runDue(context.Background())
	s.wg.Wait()

	assert.Zero(t, index.Scans())
}

func TestScheduler_Execute_UnknownTask(t *testing.T) {
	s := newTestScheduler(rescanConfig(time.Hour), newMemTaskStore(), nil)

	_, err := s.execute(context.Background(), "mystery")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestScheduler_Rescan(t *testing.T) {
	tests := []struct {
		name      string
		index     driving.IndexService
		wantClips int
		wantErr   string
	}{
		{name: "counts clips", index: &mockRescanIndex{}, wantClips: 2},
		{name: "scan in progress", index: &mockRescanIndex{err: domain.ErrScanInProgress}},
		{name: "scan error", index: &mockRescanIndex{err: errors.New("disk gone")}, wantErr: "disk gone"},
		{name: "no index"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScheduler(rescanConfig(time.Hour), newMemTaskStore(), tt.index)

			n, err := s.rescan(context.Background())

			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantClips, n)
		})
	}
}

func TestScheduler_StartRunsDueTasksAndStops(t *testing.T) {
	store := newMemTaskStore()
	index := &mockRescanIndex{}
	ctx := context.Background()
	require.NoError(t, store.SaveTask(ctx, domain.TaskState{ID: domain.TaskIDStorageRescan, Interval: time.Hour}))
	s := newTestScheduler(rescanConfig(time.Hour), store, index)

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return index.Scans() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestScheduler_StartReturnsOnCancel(t *testing.T) {
	s := newTestScheduler(rescanConfig(time.Hour), newMemTaskStore(), &mockRescanIndex{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
	assert.NoError(t, s.Stop(), "stop after cancel is a no-op")
}

func TestScheduler_DoubleStart(t *testing.T) {
	s := newTestScheduler(rescanConfig(time.Hour), newMemTaskStore(), &mockRescanIndex{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.running
	}, time.Second, 5*time.Millisecond)

	assert.NoError(t, s.Start(context.Background()))

	require.NoError(t, s.Stop())
	<-done
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	s := NewScheduler(domain.DefaultSchedulerConfig(), newMemTaskStore(), nil, nil)

	assert.NoError(t, s.Stop())
}

func TestScheduler_Tasks(t *testing.T) {
	store := newMemTaskStore()
	s := newTestScheduler(rescanConfig(time.Hour), store, nil)
	require.NoError(t, s.sync(context.Background()))

	tasks, err := s.Tasks(context.Background())

	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, domain.TaskIDStorageRescan, tasks[0].ID)
}

func TestScheduler_RunDue_AfterStopStartsNothing(t *testing.T) {
	store := newMemTaskStore()
	index := &mockRescanIndex{}
	ctx := context.Background()
	require.NoError(t, store.SaveTask(ctx, domain.TaskState{ID: domain.TaskIDStorageRescan, Interval: time.Hour}))
	s := newTestScheduler(rescanConfig(time.Hour), store, index)
	s.running = true
	s.stopCh = make(chan struct{})
	require.NoError(t, s.Stop())

	s.runDue(ctx)
	s.wg.Wait()

	assert.Zero(t, index.Scans())
	assert.Empty(t, s.busy)
}
