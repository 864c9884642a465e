package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
)

// Catalogue implements driven.ClipCatalogue and driven.ScanHistory.
type Catalogue struct {
	store *Store
}

var (
	_ driven.ClipCatalogue = (*Catalogue)(nil)
	_ driven.ScanHistory   = (*Catalogue)(nil)
)

// skippedEntry is how a skipped subtree is kept in root_reports.skipped.
type skippedEntry struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ==================== Clip Catalogue ====================

// SaveIndex replaces the stored index in one transaction.
func (c *Catalogue) SaveIndex(ctx context.Context, idx *domain.StorageIndex) error {
	if idx == nil {
		return domain.ErrInvalidInput
	}

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, table := range []string{"segments", "clips", "root_reports", "index_meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO index_meta (id, built_at) VALUES (1, ?)",
		formatTime(idx.BuiltAt())); err != nil {
		return fmt.Errorf("saving index metadata: %w", err)
	}

	for i, r := range idx.Reports() {
		if err := saveReport(ctx, tx, i, r); err != nil {
			return err
		}
	}

	clipStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO clips (id, position, dir, root, name, timestamp, event, thumbnail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing clip insert: %w", err)
	}
	defer clipStmt.Close()

	segStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO segments (clip_id, chunk, camera, path, timestamp, ext)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing segment insert: %w", err)
	}
	defer segStmt.Close()

	for pos, clip := range idx.Clips() {
		event, err := marshalEvent(clip.Event)
		if err != nil {
			return err
		}
		if _, err := clipStmt.ExecContext(ctx, clip.ID, pos, clip.Dir, clip.Root, clip.Name,
			formatNullableTime(clip.Timestamp), event, nullString(clip.ThumbnailPath)); err != nil {
			return fmt.Errorf("saving clip %s: %w", clip.Dir, err)
		}
		for n, ch := range clip.Chunks {
			for _, cam := range ch.Cameras() {
				seg := ch.Segments[cam]
				if _, err := segStmt.ExecContext(ctx, clip.ID, n, cam, seg.Path,
					formatTime(seg.Timestamp), seg.Ext); err != nil {
					return fmt.Errorf("saving segment %s: %w", seg.Path, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index: %w", err)
	}
	return nil
}

// LoadIndex rebuilds the stored index. An empty index is returned when
// nothing was saved yet.
func (c *Catalogue) LoadIndex(ctx context.Context) (*domain.StorageIndex, error) {
	var builtAt string
	err := c.store.db.QueryRowContext(ctx, "SELECT built_at FROM index_meta WHERE id = 1").Scan(&builtAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.EmptyIndex(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading index metadata: %w", err)
	}

	reports, err := c.loadReports(ctx)
	if err != nil {
		return nil, err
	}
	clips, err := c.loadClips(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.loadSegments(ctx, clips); err != nil {
		return nil, err
	}

	return domain.NewStorageIndex(clips, reports, parseTime(builtAt)), nil
}

func saveReport(ctx context.Context, tx *sql.Tx, pos int, r domain.RootReport) error {
	skipped := make([]skippedEntry, 0, len(r.Skipped))
	for _, s := range r.Skipped {
		e := skippedEntry{Path: s.Path}
		if s.Err != nil {
			e.Error = s.Err.Error()
		}
		skipped = append(skipped, e)
	}
	skippedJSON, err := json.Marshal(skipped)
	if err != nil {
		return fmt.Errorf("marshalling skipped subtrees: %w", err)
	}

	var errMsg string
	if r.Err != nil {
		errMsg = r.Err.Error()
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO root_reports (position, root, clips, error, skipped)
		VALUES (?, ?, ?, ?, ?)
	`, pos, r.Root, r.Clips, nullString(errMsg), string(skippedJSON)); err != nil {
		return fmt.Errorf("saving report for %s: %w", r.Root, err)
	}
	return nil
}

func (c *Catalogue) loadReports(ctx context.Context) ([]domain.RootReport, error) {
	rows, err := c.store.db.QueryContext(ctx,
		"SELECT root, clips, error, skipped FROM root_reports ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("querying root reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.RootReport //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			r           domain.RootReport
			errMsg      sql.NullString
			skippedJSON string
		)
		if err := rows.Scan(&r.Root, &r.Clips, &errMsg, &skippedJSON); err != nil {
			return nil, fmt.Errorf("scanning root report: %w", err)
		}
		if errMsg.Valid {
			r.Err = errors.New(errMsg.String)
		}
		var skipped []skippedEntry
		if err := json.Unmarshal([]byte(skippedJSON), &skipped); err != nil {
			return nil, fmt.Errorf("unmarshalling skipped subtrees: %w", err)
		}
		for _, s := range skipped {
			r.Skipped = append(r.Skipped, domain.SubtreeError{Path: s.Path, Err: errors.New(s.Error)})
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating root reports: %w", err)
	}
	return reports, nil
}

func (c *Catalogue) loadClips(ctx context.Context) ([]domain.Clip, error) {
	rows, err := c.store.db.QueryContext(ctx, `
		SELECT id, dir, root, name, timestamp, event, thumbnail
		FROM clips ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying clips: %w", err)
	}
	defer rows.Close()

	var clips []domain.Clip //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			clip                 domain.Clip
			ts, event, thumbnail sql.NullString
		)
		if err := rows.Scan(&clip.ID, &clip.Dir, &clip.Root, &clip.Name, &ts, &event, &thumbnail); err != nil {
			return nil, fmt.Errorf("scanning clip: %w", err)
		}
		clip.Timestamp = parseNullableTime(ts)
		if thumbnail.Valid {
			clip.ThumbnailPath = thumbnail.String
		}
		if clip.Event, err = unmarshalEvent(event); err != nil {
			return nil, err
		}
		clips = append(clips, clip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating clips: %w", err)
	}
	return clips, nil
}

// loadSegments fills in the chunks of clips. Rows arrive ordered by clip
// and chunk, so each chunk is complete before the next begins.
func (c *Catalogue) loadSegments(ctx context.Context, clips []domain.Clip) error {
	byID := make(map[string]int, len(clips))
	for i := range clips {
		byID[clips[i].ID] = i
	}

	rows, err := c.store.db.QueryContext(ctx, `
		SELECT clip_id, chunk, camera, path, timestamp, ext
		FROM segments ORDER BY clip_id, chunk
	`)
	if err != nil {
		return fmt.Errorf("querying segments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			clipID, ts string
			chunk      int
			seg        domain.Segment
		)
		if err := rows.Scan(&clipID, &chunk, &seg.Camera, &seg.Path, &ts, &seg.Ext); err != nil {
			return fmt.Errorf("scanning segment: %w", err)
		}
		seg.Timestamp = parseTime(ts)

		i, ok := byID[clipID]
		if !ok {
			continue
		}
		clip := &clips[i]
		for len(clip.Chunks) <= chunk {
			clip.Chunks = append(clip.Chunks, domain.Chunk{Segments: make(map[string]domain.Segment)})
		}
		ch := &clip.Chunks[chunk]
		ch.Timestamp = seg.Timestamp
		ch.Segments[seg.Camera] = seg
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating segments: %w", err)
	}
	return nil
}

// ==================== Scan History ====================

// RecordScan stores a scan run, replacing any run with the same ID.
func (c *Catalogue) RecordScan(ctx context.Context, run domain.ScanRun) error {
	if run.ID == "" {
		return domain.ErrInvalidInput
	}
	roots := run.Roots
	if roots == nil {
		roots = []string{}
	}
	rootsJSON, err := json.Marshal(roots)
	if err != nil {
		return fmt.Errorf("marshalling roots: %w", err)
	}

	_, err = c.store.db.ExecContext(ctx, `
		INSERT INTO scan_runs (id, started_at, ended_at, roots, clips, failures, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			started_at = excluded.started_at,
			ended_at = excluded.ended_at,
			roots = excluded.roots,
			clips = excluded.clips,
			failures = excluded.failures,
			error = excluded.error
	`, run.ID, formatTime(run.StartedAt), formatNullableTime(run.EndedAt), string(rootsJSON),
		run.Clips, run.Failures, nullString(run.Error))
	if err != nil {
		return fmt.Errorf("recording scan: %w", err)
	}
	return nil
}

// ListScans returns up to limit runs, most recent first. A limit of zero
// or less returns every run.
func (c *Catalogue) ListScans(ctx context.Context, limit int) ([]domain.ScanRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := c.store.db.QueryContext(ctx, `
		SELECT id, started_at, ended_at, roots, clips, failures, error
		FROM scan_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying scan runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.ScanRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			run             domain.ScanRun
			startedAt       string
			rootsJSON       string
			endedAt, errMsg sql.NullString
		)
		if err := rows.Scan(&run.ID, &startedAt, &endedAt, &rootsJSON,
			&run.Clips, &run.Failures, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning scan run: %w", err)
		}
		run.StartedAt = parseTime(startedAt)
		run.EndedAt = parseNullableTime(endedAt)
		if errMsg.Valid {
			run.Error = errMsg.String
		}
		if err := json.Unmarshal([]byte(rootsJSON), &run.Roots); err != nil {
			return nil, fmt.Errorf("unmarshalling roots: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scan runs: %w", err)
	}
	return runs, nil
}

// ==================== Helper Functions ====================

func marshalEvent(ev *domain.EventMetadata) (any, error) {
	if ev == nil {
		return nil, nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshalling event: %w", err)
	}
	return string(data), nil
}

func unmarshalEvent(s sql.NullString) (*domain.EventMetadata, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var ev domain.EventMetadata
	if err := json.Unmarshal([]byte(s.String), &ev); err != nil {
		return nil, fmt.Errorf("unmarshalling event: %w", err)
	}
	return &ev, nil
}
