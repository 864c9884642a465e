// Package menu is the landing screen: one entry per view, each with a live
// badge such as the clip count or the session being played.
package menu

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/camdeck/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/camdeck/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/camdeck/internal/adapters/driving/tui/styles"
)

type entry struct {
	label  string
	target messages.ViewType
	quit   bool
	badge  string
}

// View is the landing screen.
type View struct {
	styles  *styles.Styles
	keys    *keymap.KeyMap
	entries []entry
	cursor  int
	help    help.Model
	width   int
	height  int
	ready   bool
}

// NewView builds the menu. Nil arguments fall back to the defaults.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	h := help.New()
	h.Styles.ShortKey = s.Normal
	h.Styles.ShortDesc = s.Help

	return &View{
		styles: s,
		keys:   km,
		entries: []entry{
			{label: "Clips", target: messages.ViewClips, badge: "not indexed yet"},
			{label: "Now Playing", target: messages.ViewPlayer, badge: "idle"},
			{label: "Settings", target: messages.ViewSettings},
			{label: "Help", target: messages.ViewHelp},
			{label: "Quit", quit: true},
		},
		help:   h,
		width:  80,
		height: 24,
	}
}

// Init implements tea.Model.
func (v *View) Init() tea.Cmd { return nil }

// SetBadge replaces the note shown beside the entry leading to target.
func (v *View) SetBadge(target messages.ViewType, badge string) {
	for i := range v.entries {
		if !v.entries[i].quit && v.entries[i].target == target {
			v.entries[i].badge = badge
		}
	}
}

// Update moves the cursor or opens an entry.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		return v, v.handleKey(msg)
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Up):
		v.cursor = max(v.cursor-1, 0)
	case key.Matches(msg, v.keys.Down):
		v.cursor = min(v.cursor+1, len(v.entries)-1)
	case key.Matches(msg, v.keys.Play):
		return v.open(v.cursor)
	case key.Matches(msg, v.keys.Quit):
		return tea.Quit
	default:
		n, err := strconv.Atoi(msg.String())
		if err != nil || n < 1 || n > len(v.entries) {
			return nil
		}
		v.cursor = n - 1
		return v.open(v.cursor)
	}
	return nil
}

func (v *View) open(i int) tea.Cmd {
	e := v.entries[i]
	if e.quit {
		return tea.Quit
	}
	return func() tea.Msg { return messages.ViewChanged{View: e.target} }
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	lines := []string{
		v.styles.Title.Render("camdeck") + "  " + v.styles.Muted.Render("TeslaCam clip browser"),
		"",
	}
	for i, e := range v.entries {
		marker, style := "  ", v.styles.Normal
		if i == v.cursor {
			marker, style = "> ", v.styles.Selected
		}
		line := marker + style.Render(strconv.Itoa(i+1)+". "+e.label)
		if e.badge != "" {
			line += "  " + v.styles.Muted.Render(e.badge)
		}
		lines = append(lines, line)
	}
	open := v.keys.Play
	open.SetHelp(open.Help().Key, "open")
	lines = append(lines, "", v.help.ShortHelpView([]key.Binding{v.keys.Up, v.keys.Down, open, v.keys.Quit}))
	return strings.Join(lines, "\n")
}

// SetDimensions records the terminal size.
func (v *View) SetDimensions(width, height int) {
	v.width, v.height = width, height
	v.help.Width = width
	v.ready = true
}

// Selected returns the cursor position.
func (v *View) Selected() int { return v.cursor }
