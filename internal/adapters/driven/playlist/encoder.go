// Package playlist encodes HLS playlists with grafov/m3u8.
package playlist

import (
	"fmt"

	"github.com/grafov/m3u8"

	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
)

// Ensure Encoder implements the interface.
var _ driven.PlaylistEncoder = (*Encoder)(nil)

// ContentType is the MIME type of HLS playlists.
const ContentType = "application/vnd.apple.mpegurl"

// Encoder writes closed VOD media playlists.
type Encoder struct{}

// NewEncoder creates an encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode renders entries as a VOD playlist ending in #EXT-X-ENDLIST.
func (e *Encoder) Encode(entries []driven.PlaylistEntry) ([]byte, error) {
	capacity := uint(len(entries))
	if capacity == 0 {
		capacity = 1
	}
	pl, err := m3u8.NewMediaPlaylist(0, capacity)
	if err != nil {
		return nil, fmt.Errorf("create playlist: %w", err)
	}
	pl.MediaType = m3u8.VOD

	for _, entry := range entries {
		if err := pl.Append(entry.URI, entry.Duration.Seconds(), entry.Title); err != nil {
			return nil, fmt.Errorf("append %s: %w", entry.URI, err)
		}
		// Marks the segment just appended.
		if entry.Discontinuity {
			if err := pl.SetDiscontinuity(); err != nil {
				return nil, fmt.Errorf("discontinuity at %s: %w", entry.URI, err)
			}
		}
	}
	pl.Close()
	return pl.Encode().Bytes(), nil
}

// ContentType returns the HLS MIME type.
func (e *Encoder) ContentType() string {
	return ContentType
}
