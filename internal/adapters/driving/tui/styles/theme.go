// Package styles holds the lipgloss palette shared by every TUI view.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/camdeck/internal/core/domain"
)

// Palette names the colours the views draw with. Adaptive colours pick
// the light or dark variant from the terminal background.
type Palette struct {
	Accent  lipgloss.TerminalColor
	Info    lipgloss.TerminalColor
	Text    lipgloss.TerminalColor
	Dim     lipgloss.TerminalColor
	Good    lipgloss.TerminalColor
	Caution lipgloss.TerminalColor
	Bad     lipgloss.TerminalColor
	Frame   lipgloss.TerminalColor
	Bar     lipgloss.TerminalColor
}

// DashcamPalette is red on charcoal, like the car's own camera viewer.
func DashcamPalette() Palette {
	return Palette{
		Accent:  lipgloss.AdaptiveColor{Light: "#BE123C", Dark: "#E11D48"},
		Info:    lipgloss.AdaptiveColor{Light: "#0369A1", Dark: "#38BDF8"},
		Text:    lipgloss.AdaptiveColor{Light: "#111827", Dark: "#E5E7EB"},
		Dim:     lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"},
		Good:    lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"},
		Caution: lipgloss.AdaptiveColor{Light: "#A16207", Dark: "#FACC15"},
		Bad:     lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"},
		Frame:   lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#374151"},
		Bar:     lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#111827"},
	}
}

// Styles are the rendered styles built from a Palette.
type Styles struct {
	palette Palette

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Help     lipgloss.Style

	// InputField frames the text input of the clip filter.
	InputField lipgloss.Style
	StatusBar  lipgloss.Style

	// Tile frames one camera in the playback grid; PrimaryTile the
	// camera that drives the chunk cursor.
	Tile        lipgloss.Style
	PrimaryTile lipgloss.Style
}

// NewStyles builds the styles for p.
func NewStyles(p Palette) *Styles {
	fg := func(c lipgloss.TerminalColor) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}
	framed := func(c lipgloss.TerminalColor) lipgloss.Style {
		return lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c).
			Padding(0, 1)
	}

	return &Styles{
		palette:     p,
		Title:       fg(p.Accent).Bold(true),
		Subtitle:    fg(p.Info).Bold(true),
		Normal:      fg(p.Text),
		Muted:       fg(p.Dim),
		Selected:    fg(p.Text).Background(p.Accent).Bold(true),
		Error:       fg(p.Bad),
		Success:     fg(p.Good),
		Warning:     fg(p.Caution),
		Help:        fg(p.Dim).Italic(true),
		InputField:  framed(p.Frame),
		StatusBar:   fg(p.Dim).Background(p.Bar).Padding(0, 1),
		Tile:        framed(p.Frame),
		PrimaryTile: framed(p.Accent),
	}
}

// DefaultStyles returns NewStyles(DashcamPalette()).
func DefaultStyles() *Styles {
	return NewStyles(DashcamPalette())
}

// Palette returns the colours s was built from.
func (s *Styles) Palette() Palette {
	return s.palette
}

// Feed returns the style for a feed in state.
func (s *Styles) Feed(state domain.FeedState) lipgloss.Style {
	switch state {
	case domain.FeedPlaying:
		return s.Success
	case domain.FeedLoading:
		return s.Subtitle
	case domain.FeedHolding:
		return s.Warning
	case domain.FeedExhausted, domain.FeedIdle:
		return s.Muted
	}
	return s.Normal
}

// FeedTile returns the frame for a camera tile.
func (s *Styles) FeedTile(primary bool) lipgloss.Style {
	if primary {
		return s.PrimaryTile
	}
	return s.Tile
}
