package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
)

// Ensure Catalogue implements the interfaces.
var (
	_ driven.ClipCatalogue = (*Catalogue)(nil)
	_ driven.ScanHistory   = (*Catalogue)(nil)
)

// Catalogue keeps the last index and the scan history in memory.
// Nothing survives the process.
type Catalogue struct {
	mu    sync.RWMutex
	index *domain.StorageIndex
	runs  []domain.ScanRun
}

// NewCatalogue creates an empty catalogue.
func NewCatalogue() *Catalogue {
	return &Catalogue{}
}

// SaveIndex replaces the stored index.
func (c *Catalogue) SaveIndex(_ context.Context, idx *domain.StorageIndex) error {
	if idx == nil {
		return domain.ErrInvalidInput
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = idx
	return nil
}

// LoadIndex returns the stored index, or an empty one.
func (c *Catalogue) LoadIndex(_ context.Context) (*domain.StorageIndex, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.index == nil {
		return domain.EmptyIndex(), nil
	}
	return c.index, nil
}

// RecordScan stores a scan run.
func (c *Catalogue) RecordScan(_ context.Context, run domain.ScanRun) error {
	if run.ID == "" {
		return domain.ErrInvalidInput
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs = append(c.runs, run)
	return nil
}

// ListScans returns up to limit runs, most recent first. A limit of zero
// or less returns every run.
func (c *Catalogue) ListScans(_ context.Context, limit int) ([]domain.ScanRun, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := len(c.runs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.ScanRun, 0, n)
	for i := len(c.runs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, c.runs[i])
	}
	return out, nil
}
