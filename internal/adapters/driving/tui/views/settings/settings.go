// Package settings provides the read-only settings view for the TUI.
package settings

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/camdeck/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/camdeck/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driving"
)

// Section tracks which settings section is shown.
type Section int

const (
	SectionStorage Section = iota
	SectionPlayback
	SectionPlayer
	SectionRenderer
	SectionWatch
	SectionScheduler
	sectionCount
)

// String returns the section heading.
func (s Section) String() string {
	switch s {
	case SectionStorage:
		return "Storage"
	case SectionPlayback:
		return "Playback"
	case SectionPlayer:
		return "Player"
	case SectionRenderer:
		return "Renderer"
	case SectionWatch:
		return "Watch"
	case SectionScheduler:
		return "Scheduler"
	case sectionCount:
	}
	return "unknown"
}

type row struct {
	key   string
	value string
}

// View shows the effective settings one section at a time.
type View struct {
	styles          *styles.Styles
	settingsService driving.SettingsService

	settings *domain.AppSettings
	invalid  error
	err      error
	section  Section

	width  int
	height int
	ready  bool
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, settingsService driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		settingsService: settingsService,
	}
}

// Init loads the settings.
func (v *View) Init() tea.Cmd {
	return v.load()
}

func (v *View) load() tea.Cmd {
	svc := v.settingsService
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsLoaded{Err: fmt.Errorf("settings service not available")}
		}
		s, err := svc.Get()
		return messages.SettingsLoaded{Settings: s, Err: err}
	}
}

// Reset returns to the first section.
func (v *View) Reset() {
	v.section = SectionStorage
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SettingsLoaded:
		v.err = msg.Err
		v.settings = msg.Settings
		v.invalid = nil
		if msg.Err == nil && v.settingsService != nil {
			v.invalid = v.settingsService.Validate()
		}
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "right", "l":
			v.section = (v.section + 1) % sectionCount
		case "shift+tab", "left", "h":
			v.section = (v.section + sectionCount - 1) % sectionCount
		case "r":
			return v, v.load()
		case "esc":
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}
	}
	return v, nil
}

// View renders the settings view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Settings"))
	if v.settingsService != nil {
		b.WriteString("  " + v.styles.Muted.Render(v.settingsService.ConfigPath()))
	}
	b.WriteString("\n\n")

	tabs := make([]string, 0, sectionCount)
	for s := SectionStorage; s < sectionCount; s++ {
		if s == v.section {
			tabs = append(tabs, v.styles.Selected.Render(" "+s.String()+" "))
		} else {
			tabs = append(tabs, v.styles.Muted.Render(" "+s.String()+" "))
		}
	}
	b.WriteString(strings.Join(tabs, " "))
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %v", v.err)))
	case v.settings == nil:
		b.WriteString(v.styles.Muted.Render("Loading settings..."))
	default:
		rows := v.rows()
		width := 0
		for _, r := range rows {
			if len(r.key) > width {
				width = len(r.key)
			}
		}
		lines := make([]string, 0, len(rows))
		for _, r := range rows {
			lines = append(lines, fmt.Sprintf("  %s  %s",
				v.styles.Subtitle.Render(fmt.Sprintf("%-*s", width, r.key)),
				v.styles.Normal.Render(r.value)))
		}
		b.WriteString(strings.Join(lines, "\n"))
	}

	if v.invalid != nil {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Warning: %v", v.invalid)))
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[tab] Next section  [r] Reload  [esc] Back"))
	return b.String()
}

func (v *View) rows() []row {
	s := v.settings
	switch v.section {
	case SectionStorage:
		return []row{
			{"Roots", listOrNone(s.Storage.Roots)},
			{"Discover drives", yesNo(s.Storage.Discover)},
		}
	case SectionPlayback:
		return []row{
			{"Cameras", listOrNone(s.Playback.Cameras)},
			{"Primary", s.Playback.Primary},
			{"Placeholder", s.Playback.PlaceholderDuration.String()},
		}
	case SectionPlayer:
		return []row{
			{"Kind", s.Player.Kind.Description()},
			{"Command", strings.Join(s.Player.Command, " ")},
		}
	case SectionRenderer:
		comp := s.Renderer.Composition
		return []row{
			{"ffmpeg", s.Renderer.FFmpegPath},
			{"ffprobe", s.Renderer.FFprobePath},
			{"Tile", fmt.Sprintf("%s, padding %d", comp.Resolution(), comp.Padding)},
			{"Duration limit", comp.Duration.String()},
			{"Buffer timeout", s.Renderer.BufferTimeout.String()},
		}
	case SectionWatch:
		return []row{
			{"Enabled", yesNo(s.Watch.Enabled)},
			{"Min interval", s.Watch.MinInterval.String()},
		}
	case SectionScheduler:
		rows := []row{{"Enabled", yesNo(s.Scheduler.Enabled)}}
		ids := make([]string, 0, len(s.Scheduler.Tasks))
		for id := range s.Scheduler.Tasks {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			task := s.Scheduler.Tasks[id]
			rows = append(rows, row{domain.TaskName(id), fmt.Sprintf("every %s (%s)", task.Interval, enabled(task.Enabled))})
		}
		return rows
	case sectionCount:
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func enabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Section returns the section shown.
func (v *View) Section() Section {
	return v.section
}

// Settings returns the loaded settings, nil until loaded.
func (v *View) Settings() *domain.AppSettings {
	return v.settings
}
