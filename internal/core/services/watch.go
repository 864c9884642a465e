package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
	"github.com/custodia-labs/camdeck/internal/core/ports/driving"
	"github.com/custodia-labs/camdeck/internal/logger"
)

// Ensure WatchService implements the interface.
var _ driving.WatchService = (*WatchService)(nil)

// WatchService rescans storage whenever a watched root changes.
type WatchService struct {
	index   driving.IndexService
	watcher driven.RootWatcher
	logger  *logger.Logger
}

// NewWatchService creates a watch service.
func NewWatchService(index driving.IndexService, watcher driven.RootWatcher, log *logger.Logger) *WatchService {
	if log == nil {
		log = logger.Nop()
	}
	return &WatchService{index: index, watcher: watcher, logger: log}
}

// Run watches the resolved roots until ctx is cancelled.
func (s *WatchService) Run(ctx context.Context) error {
	roots, err := s.index.Roots(ctx)
	if err != nil {
		return err
	}
	if len(roots) == 0 {
		return fmt.Errorf("%w: no storage roots to watch", domain.ErrInvalidInput)
	}

	events, err := s.watcher.Watch(ctx, roots)
	if err != nil {
		return fmt.Errorf("watch roots: %w", err)
	}
	defer s.watcher.Close()

	s.logger.Info("Watching %d roots", len(roots))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.logger.Info("Change under %s (%d paths), rescanning", ev.Root, len(ev.Paths))
			_, err := s.index.Scan(ctx)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrScanInProgress):
				s.logger.Debug("Scan already running, skipping rescan")
			case isCancellation(err):
				return nil
			default:
				s.logger.Warn("Rescan failed: %v", err)
			}
		}
	}
}
