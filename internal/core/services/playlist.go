package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
	"github.com/custodia-labs/camdeck/internal/core/ports/driving"
	"github.com/custodia-labs/camdeck/internal/logger"
)

// Ensure PlaylistService implements the interface.
var _ driving.PlaylistService = (*PlaylistService)(nil)

// PlaylistService exports one camera of a clip as a playlist.
type PlaylistService struct {
	index    driving.IndexService
	encoder  driven.PlaylistEncoder
	prober   driven.Prober
	fallback time.Duration
	logger   *logger.Logger
}

// NewPlaylistService creates a playlist service. prober may be nil, in
// which case every segment is given the fallback duration.
func NewPlaylistService(
	index driving.IndexService,
	encoder driven.PlaylistEncoder,
	prober driven.Prober,
	fallback time.Duration,
	log *logger.Logger,
) *PlaylistService {
	if log == nil {
		log = logger.Nop()
	}
	if fallback <= 0 {
		fallback = domain.DefaultPlaceholderDuration
	}
	return &PlaylistService{
		index:    index,
		encoder:  encoder,
		prober:   prober,
		fallback: fallback,
		logger:   log,
	}
}

// Playlist encodes camera's segments of clipID in chunk order. Chunks the
// camera did not record are left out; every entry after the first starts a
// discontinuity because each segment is encoded separately.
func (s *PlaylistService) Playlist(
	ctx context.Context,
	clipID, camera string,
	uri driving.SegmentURIFunc,
) ([]byte, string, error) {
	clip, ok := s.index.Current().Clip(clipID)
	if !ok {
		return nil, "", fmt.Errorf("clip %s: %w", clipID, domain.ErrNotFound)
	}

	var entries []driven.PlaylistEntry
	for i, ch := range clip.Chunks {
		seg, ok := ch.Segment(camera)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		entries = append(entries, driven.PlaylistEntry{
			URI:           uri(clip, i, seg),
			Duration:      s.duration(ctx, seg.Path),
			Title:         seg.Name(),
			Discontinuity: len(entries) > 0,
		})
	}
	if len(entries) == 0 {
		return nil, "", fmt.Errorf("camera %q in clip %s: %w", camera, clipID, domain.ErrNotFound)
	}

	data, err := s.encoder.Encode(entries)
	if err != nil {
		return nil, "", fmt.Errorf("encode playlist: %w", err)
	}
	return data, s.encoder.ContentType(), nil
}

func (s *PlaylistService) duration(ctx context.Context, path string) time.Duration {
	if s.prober == nil {
		return s.fallback
	}
	d, err := s.prober.Duration(ctx, path)
	if err != nil || d <= 0 {
		s.logger.Debug("Probing %s failed, using %s: %v", path, s.fallback, err)
		return s.fallback
	}
	return d
}
