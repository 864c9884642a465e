// Package tui is the bubbletea front end: a menu, a filterable clip list,
// a tiled player showing every feed of the running session, and a
// read-only settings screen.
package tui

import (
	"errors"

	"github.com/custodia-labs/camdeck/internal/core/ports/driving"
)

var (
	ErrMissingIndexService    = errors.New("tui: index service is required")
	ErrMissingPlaybackService = errors.New("tui: playback service is required")
)

// Ports are the services the TUI drives. Settings may be nil, in which
// case the settings screen says so.
type Ports struct {
	Index    driving.IndexService
	Playback driving.PlaybackService
	Settings driving.SettingsService
}

// Validate reports every missing required service.
func (p *Ports) Validate() error {
	var errs []error
	if p.Index == nil {
		errs = append(errs, ErrMissingIndexService)
	}
	if p.Playback == nil {
		errs = append(errs, ErrMissingPlaybackService)
	}
	return errors.Join(errs...)
}
