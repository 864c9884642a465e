package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/camdeck/internal/core/domain"
)

var errIndexNotConfigured = errors.New("index service not configured")

// ensureIndex makes sure the index service holds clips, loading the last
// saved index first and scanning when nothing was saved.
func ensureIndex(ctx context.Context) (*domain.StorageIndex, error) {
	if indexService == nil {
		return nil, errIndexNotConfigured
	}
	if idx := indexService.Current(); !idx.Empty() {
		return idx, nil
	}
	idx, err := indexService.Load(ctx)
	if err != nil {
		appLogger.Warn("Loading saved index: %v", err)
	} else if !idx.Empty() {
		return idx, nil
	}
	return indexService.Scan(ctx)
}

// resolveClip finds a clip by its ID or an unambiguous ID prefix.
func resolveClip(idx *domain.StorageIndex, ref string) (domain.Clip, error) {
	if clip, ok := idx.Clip(ref); ok {
		return clip, nil
	}
	var matches []domain.Clip
	for _, c := range idx.Clips() {
		if strings.HasPrefix(c.ID, ref) {
			matches = append(matches, c)
		}
	}
	switch {
	case ref == "" || len(matches) == 0:
		return domain.Clip{}, fmt.Errorf("clip %q: %w", ref, domain.ErrNotFound)
	case len(matches) > 1:
		return domain.Clip{}, fmt.Errorf("%w: clip prefix %q matches %d clips", domain.ErrInvalidInput, ref, len(matches))
	}
	return matches[0], nil
}

// lookupClip loads the index and resolves ref.
func lookupClip(ctx context.Context, ref string) (domain.Clip, error) {
	idx, err := ensureIndex(ctx)
	if err != nil {
		return domain.Clip{}, err
	}
	return resolveClip(idx, ref)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
