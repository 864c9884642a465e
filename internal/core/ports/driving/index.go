package driving

import (
	"context"

	"github.com/custodia-labs/camdeck/internal/core/domain"
)

// IndexService builds and serves the storage index.
type IndexService interface {
	// Scan rebuilds the index from roots, or from the configured and
	// discovered roots when none are given. The new index replaces the
	// current one in a single swap. Returns domain.ErrScanInProgress if
	// another scan is running.
	Scan(ctx context.Context, roots ...string) (*domain.StorageIndex, error)

	// ScanAsync runs Scan in the background and delivers one result.
	ScanAsync(ctx context.Context, roots ...string) <-chan ScanResult

	// Load replaces the current index with the last persisted one.
	Load(ctx context.Context) (*domain.StorageIndex, error)

	// Current returns the index in use. It is never nil.
	Current() *domain.StorageIndex

	// Roots resolves the roots a scan without arguments would use.
	Roots(ctx context.Context) ([]string, error)

	// History returns recent scan runs, most recent first.
	History(ctx context.Context, limit int) ([]domain.ScanRun, error)

	// Scanning reports whether a scan is running.
	Scanning() bool

	// Subscribe registers fn to be called with every new index.
	// The returned function removes the subscription.
	Subscribe(fn func(*domain.StorageIndex)) (unsubscribe func())
}

// WatchService rescans storage roots when their contents change.
type WatchService interface {
	// Run watches until ctx is cancelled.
	Run(ctx context.Context) error
}

// ScanResult is the outcome of a background scan.
type ScanResult struct {
	Index *domain.StorageIndex
	Err   error
}
