// Package messages holds the tea.Msg values passed between the TUI views.
package messages

import "github.com/custodia-labs/camdeck/internal/core/domain"

// ViewType names a screen of the TUI.
type ViewType int

const (
	ViewMenu ViewType = iota
	ViewClips
	ViewPlayer
	ViewSettings
	ViewHelp
)

var viewNames = [...]string{"menu", "clips", "player", "settings", "help"}

func (v ViewType) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return "unknown"
	}
	return viewNames[v]
}

// Navigation.
type (
	// ViewChanged switches the active screen.
	ViewChanged struct{ View ViewType }

	// Quit ends the program.
	Quit struct{}

	// ErrorOccurred surfaces an error in the status bar.
	ErrorOccurred struct{ Err error }
)

// Index.
type (
	// IndexLoaded delivers an index. Scanned is set when it comes from a
	// rescan rather than the saved catalogue.
	IndexLoaded struct {
		Index   *domain.StorageIndex
		Scanned bool
		Err     error
	}

	// ClipSelected asks for clip to be played.
	ClipSelected struct{ Clip domain.Clip }
)

// Playback.
type (
	PlaybackStarted struct {
		SessionID string
		Err       error
	}

	// PlaybackUpdated carries the latest session state.
	PlaybackUpdated struct{ Status domain.PlaybackStatus }

	PlaybackStopped struct{ Err error }
)

// SettingsLoaded delivers the effective settings.
type SettingsLoaded struct {
	Settings *domain.AppSettings
	Err      error
}
