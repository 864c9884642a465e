package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
	"github.com/custodia-labs/camdeck/internal/core/ports/driving"
	"github.com/custodia-labs/camdeck/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexConfig holds the storage settings an IndexService scans with.
type IndexConfig struct {
	// Roots are the configured storage roots.
	Roots []string

	// Discover adds roots found by the StorageLocator.
	Discover bool
}

// IndexService builds storage indexes and serves the current one.
type IndexService struct {
	config    IndexConfig
	assembler *Assembler
	locator   driven.StorageLocator
	catalogue driven.ClipCatalogue
	history   driven.ScanHistory
	telemetry driven.Telemetry
	logger    *logger.Logger
	now       func() time.Time

	current  atomic.Pointer[domain.StorageIndex]
	scanning atomic.Bool

	subMu   sync.Mutex
	subs    map[int]func(*domain.StorageIndex)
	nextSub int
}

// NewIndexService creates an index service. locator, catalogue, history
// and telemetry may be nil.
func NewIndexService(
	config IndexConfig,
	assembler *Assembler,
	locator driven.StorageLocator,
	catalogue driven.ClipCatalogue,
	history driven.ScanHistory,
	telemetry driven.Telemetry,
	log *logger.Logger,
) *IndexService {
	if log == nil {
		log = logger.Nop()
	}
	if assembler == nil {
		assembler = NewAssembler(log)
	}
	s := &IndexService{
		config:    config,
		assembler: assembler,
		locator:   locator,
		catalogue: catalogue,
		history:   history,
		telemetry: telemetry,
		logger:    log,
		now:       time.Now,
		subs:      make(map[int]func(*domain.StorageIndex)),
	}
	s.current.Store(domain.EmptyIndex())
	return s
}

// Current returns the index in use.
func (s *IndexService) Current() *domain.StorageIndex {
	return s.current.Load()
}

// Scanning reports whether a scan is running.
func (s *IndexService) Scanning() bool {
	return s.scanning.Load()
}

// Roots resolves configured roots plus discovered ones.
func (s *IndexService) Roots(ctx context.Context) ([]string, error) {
	roots := append([]string(nil), s.config.Roots...)
	if s.config.Discover && s.locator != nil {
		found, err := s.locator.Locate(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("Storage discovery failed: %v", err)
		}
		roots = append(roots, found...)
	}
	return normaliseRoots(roots), nil
}

// Scan builds a new index and swaps it in.
func (s *IndexService) Scan(ctx context.Context, roots ...string) (*domain.StorageIndex, error) {
	if !s.scanning.CompareAndSwap(false, true) {
		return nil, domain.ErrScanInProgress
	}
	defer s.scanning.Store(false)

	started := s.now()
	run := domain.ScanRun{ID: uuid.NewString(), StartedAt: started}

	if len(roots) == 0 {
		resolved, err := s.Roots(ctx)
		if err != nil {
			return nil, s.failRun(ctx, run, err)
		}
		roots = resolved
	} else {
		roots = normaliseRoots(roots)
	}
	run.Roots = roots

	s.logger.Section("Storage Scan")
	s.logger.Info("Scanning %d storage roots", len(roots))

	var (
		clips   []domain.Clip
		reports []domain.RootReport
	)
	for _, root := range roots {
		found, skipped, err := s.assembler.Discover(ctx, root)
		if err != nil && ctx.Err() != nil {
			return nil, s.failRun(ctx, run, ctx.Err())
		}
		report := domain.RootReport{Root: root, Clips: len(found), Err: err, Skipped: skipped}
		if err != nil {
			s.logger.Warn("Root %s not scanned: %v", root, err)
		} else {
			s.logger.Info("Root %s: %d clips, %d subtrees skipped", root, len(found), len(skipped))
		}
		clips = append(clips, found...)
		reports = append(reports, report)
	}

	idx := domain.NewStorageIndex(clips, reports, s.now())
	s.publish(idx)

	if s.catalogue != nil {
		if err := s.catalogue.SaveIndex(ctx, idx); err != nil {
			s.logger.Warn("Saving index: %v", err)
		}
	}

	run.EndedAt = s.now()
	run.Clips = idx.Len()
	run.Failures = len(idx.Failures())
	s.record(ctx, run)
	if s.telemetry != nil {
		s.telemetry.ScanCompleted(run.Clips, run.Failures, run.Duration())
	}

	s.logger.Info("Indexed %d clips in %s", idx.Len(), run.Duration().Round(time.Millisecond))
	return idx, nil
}

// ScanAsync runs Scan on a background goroutine. The channel receives
// exactly one result.
func (s *IndexService) ScanAsync(ctx context.Context, roots ...string) <-chan driving.ScanResult {
	ch := make(chan driving.ScanResult, 1)
	go func() {
		idx, err := s.Scan(ctx, roots...)
		ch <- driving.ScanResult{Index: idx, Err: err}
		close(ch)
	}()
	return ch
}

// Load swaps in the last persisted index.
func (s *IndexService) Load(ctx context.Context) (*domain.StorageIndex, error) {
	if s.catalogue == nil {
		return s.Current(), nil
	}
	idx, err := s.catalogue.LoadIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	s.publish(idx)
	return idx, nil
}

// History returns recent scan runs.
func (s *IndexService) History(ctx context.Context, limit int) ([]domain.ScanRun, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.ListScans(ctx, limit)
}

// Subscribe registers fn for every new index.
func (s *IndexService) Subscribe(fn func(*domain.StorageIndex)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *IndexService) publish(idx *domain.StorageIndex) {
	s.current.Store(idx)

	s.subMu.Lock()
	subs := make([]func(*domain.StorageIndex), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(idx)
	}
}

func (s *IndexService) failRun(ctx context.Context, run domain.ScanRun, err error) error {
	run.EndedAt = s.now()
	run.Error = err.Error()
	// Recorded even when ctx is cancelled.
	s.record(context.WithoutCancel(ctx), run)
	return err
}

func (s *IndexService) record(ctx context.Context, run domain.ScanRun) {
	if s.history == nil {
		return
	}
	if err := s.history.RecordScan(ctx, run); err != nil {
		s.logger.Warn("Recording scan: %v", err)
	}
}

// normaliseRoots makes roots absolute and drops duplicates, keeping order.
func normaliseRoots(roots []string) []string {
	seen := make(map[string]struct{}, len(roots))
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		if r == "" {
			continue
		}
		abs, err := filepath.Abs(r)
		if err != nil {
			abs = filepath.Clean(r)
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	return out
}

// isCancellation reports whether err came from a cancelled context.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
