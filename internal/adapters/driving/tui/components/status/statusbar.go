// Package status renders the one-line bar under the TUI views.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/camdeck/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/camdeck/internal/adapters/driving/tui/styles"
)

// State is what the bar reports on its left side.
type State string

const (
	StateReady    State = "ready"
	StateScanning State = "scanning"
	StateError    State = "error"
	StateClips    State = "clips"
	StatePlaying  State = "playing"
	StateSettings State = "settings"
)

// scope picks the key hints shown on the right for a state.
func (s State) scope() keymap.Scope {
	switch s {
	case StateClips:
		return keymap.ScopeClips
	case StatePlaying:
		return keymap.ScopePlayer
	case StateSettings:
		return keymap.ScopeSettings
	default:
		return keymap.ScopeGlobal
	}
}

// Bar shows the application state and the keys of the active view. It is
// passive: the app sets its fields after every update.
type Bar struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	help   help.Model

	state     State
	message   string
	clipCount int
	width     int
}

// NewBar returns a bar in StateReady. Nil arguments take the defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	h := help.New()
	h.Styles.ShortKey = s.Normal
	h.Styles.ShortDesc = s.Muted
	h.Styles.ShortSeparator = s.Muted

	return &Bar{
		styles: s,
		keymap: km,
		help:   h,
		state:  StateReady,
		width:  80,
	}
}

func (b *Bar) View() string {
	left := b.summary()
	right := b.help.ShortHelpView(b.keymap.For(b.state.scope()))

	gap := max(1, b.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (b *Bar) summary() string {
	switch b.state {
	case StateScanning:
		return b.styles.Muted.Render("Scanning...")
	case StateError:
		if b.message == "" {
			return b.styles.Error.Render("Error")
		}
		return b.styles.Error.Render("Error: " + b.message)
	case StatePlaying:
		if b.message == "" {
			return b.styles.Success.Render("Playing")
		}
		return b.styles.Success.Render(b.message)
	case StateClips:
		if b.clipCount > 0 {
			return b.styles.Normal.Render(fmt.Sprintf("%d clips", b.clipCount))
		}
	case StateReady, StateSettings:
	}
	return b.styles.Muted.Render("Ready")
}

func (b *Bar) SetState(state State)  { b.state = state }
func (b *Bar) State() State          { return b.state }
func (b *Bar) SetMessage(msg string) { b.message = msg }
func (b *Bar) Message() string       { return b.message }
func (b *Bar) SetClipCount(n int)    { b.clipCount = n }
func (b *Bar) ClipCount() int        { return b.clipCount }
func (b *Bar) Width() int            { return b.width }

// SetWidth gives the key hints up to half the bar.
func (b *Bar) SetWidth(width int) {
	b.width = width
	b.help.Width = width / 2
}

// Clear returns the bar to StateReady.
func (b *Bar) Clear() {
	b.state = StateReady
	b.message = ""
	b.clipCount = 0
}
