package driven

import (
	"context"

	"github.com/custodia-labs/camdeck/internal/core/domain"
)

// ClipCatalogue persists the most recent storage index so it can be served
// without rescanning.
type ClipCatalogue interface {
	// SaveIndex replaces the stored index.
	SaveIndex(ctx context.Context, idx *domain.StorageIndex) error

	// LoadIndex returns the stored index.
	// Returns an empty index and no error if nothing was stored yet.
	LoadIndex(ctx context.Context) (*domain.StorageIndex, error)
}

// ScanHistory records completed scans.
type ScanHistory interface {
	// RecordScan stores a scan run.
	RecordScan(ctx context.Context, run domain.ScanRun) error

	// ListScans returns recent runs, most recent first.
	ListScans(ctx context.Context, limit int) ([]domain.ScanRun, error)
}
