package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
)

// TaskStore implements driven.SchedulerStore.
type TaskStore struct {
	db *sql.DB
}

var _ driven.SchedulerStore = (*TaskStore)(nil)

const taskColumns = `id, interval_seconds, next_run, last_run, last_success, last_error, runs, failures`

// LoadTask returns the saved state of taskID.
func (t *TaskStore) LoadTask(ctx context.Context, taskID string) (domain.TaskState, bool, error) {
	row := t.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM task_state WHERE id = ?`, taskID)
	state, err := scanTaskState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TaskState{}, false, nil
	}
	if err != nil {
		return domain.TaskState{}, false, err
	}
	return state, true, nil
}

// SaveTask upserts state.
func (t *TaskStore) SaveTask(ctx context.Context, state domain.TaskState) error {
	if state.ID == "" {
		return fmt.Errorf("%w: task ID required", domain.ErrInvalidInput)
	}
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO task_state (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			interval_seconds = excluded.interval_seconds,
			next_run         = excluded.next_run,
			last_run         = excluded.last_run,
			last_success     = excluded.last_success,
			last_error       = excluded.last_error,
			runs             = excluded.runs,
			failures         = excluded.failures
	`, state.ID, int64(state.Interval/time.Second),
		formatNullableTime(state.NextRun), formatNullableTime(state.LastRun),
		formatNullableTime(state.LastSuccess), nullString(state.LastError),
		state.Runs, state.Failures)
	if err != nil {
		return fmt.Errorf("saving task %s: %w", state.ID, err)
	}
	return nil
}

// ListTasks returns every saved task ordered by ID.
func (t *TaskStore) ListTasks(ctx context.Context) ([]domain.TaskState, error) {
	rows, err := t.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM task_state ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var states []domain.TaskState
	for rows.Next() {
		state, err := scanTaskState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return states, nil
}

// AppendRun inserts run and trims the task's history to keep rows in the
// same transaction. keep <= 0 disables trimming.
func (t *TaskStore) AppendRun(ctx context.Context, run domain.TaskRun, keep int) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO task_runs (task_id, started_at, ended_at, clips, error)
		VALUES (?, ?, ?, ?, ?)
	`, run.TaskID, formatTime(run.StartedAt), formatTime(run.EndedAt),
		run.Clips, nullString(run.Error)); err != nil {
		return fmt.Errorf("recording run of %s: %w", run.TaskID, err)
	}

	if keep > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM task_runs
			WHERE task_id = ? AND id NOT IN (
				SELECT id FROM task_runs WHERE task_id = ? ORDER BY id DESC LIMIT ?
			)
		`, run.TaskID, run.TaskID, keep); err != nil {
			return fmt.Errorf("trimming runs of %s: %w", run.TaskID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// Runs returns up to limit runs of taskID, newest first.
func (t *TaskStore) Runs(ctx context.Context, taskID string, limit int) ([]domain.TaskRun, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT task_id, started_at, ended_at, clips, error
		FROM task_runs
		WHERE task_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, taskID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs of %s: %w", taskID, err)
	}
	defer rows.Close()

	var runs []domain.TaskRun
	for rows.Next() {
		var (
			run            domain.TaskRun
			started, ended string
			errMsg         sql.NullString
		)
		if err := rows.Scan(&run.TaskID, &started, &ended, &run.Clips, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.StartedAt = parseTime(started)
		run.EndedAt = parseTime(ended)
		run.Error = errMsg.String
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTaskState scans one task_state row. sql.ErrNoRows is returned
// unwrapped.
func scanTaskState(row rowScanner) (domain.TaskState, error) {
	var (
		state                             domain.TaskState
		seconds                           int64
		nextRun, lastRun, lastOK, lastErr sql.NullString
	)
	err := row.Scan(&state.ID, &seconds, &nextRun, &lastRun, &lastOK, &lastErr, &state.Runs, &state.Failures)
	if errors.Is(err, sql.ErrNoRows) {
		return state, err
	}
	if err != nil {
		return state, fmt.Errorf("scanning task: %w", err)
	}
	state.Interval = time.Duration(seconds) * time.Second
	state.NextRun = parseNullableTime(nextRun)
	state.LastRun = parseNullableTime(lastRun)
	state.LastSuccess = parseNullableTime(lastOK)
	state.LastError = lastErr.String
	return state, nil
}
