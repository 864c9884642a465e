package services

import (
	"sort"

	"github.com/custodia-labs/camdeck/internal/core/domain"
)

// GroupChunks scans dir and groups its segments into chunks.
func GroupChunks(dir string) ([]domain.Chunk, error) {
	var segs []domain.Segment
	for seg, err := range ScanSegments(dir) {
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
	}
	return GroupSegments(segs), nil
}

// GroupSegments groups segments sharing an exact timestamp into chunks.
// Groups without a segment for domain.MandatoryCamera are dropped. When a
// camera appears twice in a group the segment with the lexicographically
// smaller path is kept. Chunks are returned in ascending time order.
func GroupSegments(segs []domain.Segment) []domain.Chunk {
	groups := make(map[int64]*domain.Chunk)
	for _, seg := range segs {
		key := seg.Timestamp.UnixNano()
		ch, ok := groups[key]
		if !ok {
			ch = &domain.Chunk{
				Timestamp: seg.Timestamp,
				Segments:  make(map[string]domain.Segment),
			}
			groups[key] = ch
		}
		if prev, dup := ch.Segments[seg.Camera]; dup && prev.Path <= seg.Path {
			continue
		}
		ch.Segments[seg.Camera] = seg
	}

	chunks := make([]domain.Chunk, 0, len(groups))
	for _, ch := range groups {
		if !ch.Valid() {
			continue
		}
		chunks = append(chunks, *ch)
	}
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Timestamp.Before(chunks[j].Timestamp)
	})
	return chunks
}
