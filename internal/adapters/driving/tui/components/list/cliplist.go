// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/camdeck/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/camdeck/internal/core/domain"
)

// ClipList displays indexed clips in a navigable, filterable list.
type ClipList struct {
	clips    []domain.Clip
	visible  []domain.Clip
	filter   string
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewClipList creates a new clip list component.
func NewClipList(s *styles.Styles) *ClipList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ClipList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the clip list.
func (r *ClipList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *ClipList) Update(msg tea.Msg) (*ClipList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		case "home", "g":
			r.selected = 0
		case "end", "G":
			if len(r.visible) > 0 {
				r.selected = len(r.visible) - 1
			}
		}
	}
	return r, nil
}

// View renders the clip list.
func (r *ClipList) View() string {
	if len(r.visible) == 0 {
		if r.filter != "" {
			return r.styles.Muted.Render(fmt.Sprintf("No clips match %q", r.filter))
		}
		return r.styles.Muted.Render("No clips")
	}

	header := fmt.Sprintf("Clips (%d)", len(r.visible))
	if len(r.visible) != len(r.clips) {
		header = fmt.Sprintf("Clips (%d of %d)", len(r.visible), len(r.clips))
	}
	lines := make([]string, 0, len(r.visible)+2)
	lines = append(lines, r.styles.Subtitle.Render(header), "")

	// Each clip takes two lines.
	visibleCount := (r.height - 2) / 2
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if r.selected >= visibleCount {
		start = r.selected - visibleCount + 1
	}
	end := start + visibleCount
	if end > len(r.visible) {
		end = len(r.visible)
	}

	for i := start; i < end; i++ {
		lines = append(lines, r.renderClip(i, &r.visible[i]))
	}

	return strings.Join(lines, "\n")
}

// renderClip formats a single clip with a detail line.
func (r *ClipList) renderClip(index int, clip *domain.Clip) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	name := clip.Name
	maxNameLen := r.width - 20
	if maxNameLen < 10 {
		maxNameLen = 10
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen-3] + "..."
	}
	chunks := fmt.Sprintf("%d chunks", len(clip.Chunks))

	var nameLine string
	if index == r.selected {
		nameLine = r.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxNameLen, name, chunks))
	} else {
		nameLine = r.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxNameLen, name)) +
			r.styles.Muted.Render(chunks)
	}

	labels := make([]string, 0, 4)
	for _, cam := range clip.Cameras() {
		labels = append(labels, domain.CameraLabel(cam))
	}
	detail := strings.Join(labels, ", ")
	if clip.Event != nil {
		if clip.Event.Reason != "" {
			detail += "  " + clip.Event.Reason
		}
		if clip.Event.City != "" {
			detail += "  " + clip.Event.City
		}
	}

	return nameLine + "\n" + r.styles.Muted.Render("    "+detail)
}

// SetClips replaces the listed clips and reapplies the filter.
func (r *ClipList) SetClips(clips []domain.Clip) {
	r.clips = clips
	r.apply()
}

// Clips returns every clip, ignoring the filter.
func (r *ClipList) Clips() []domain.Clip {
	return r.clips
}

// Visible returns the clips that pass the filter.
func (r *ClipList) Visible() []domain.Clip {
	return r.visible
}

// SetFilter narrows the list to clips whose name or directory contains
// text, ignoring case.
func (r *ClipList) SetFilter(text string) {
	r.filter = strings.TrimSpace(text)
	r.apply()
}

// Filter returns the active filter text.
func (r *ClipList) Filter() string {
	return r.filter
}

func (r *ClipList) apply() {
	r.selected = 0
	if r.filter == "" {
		r.visible = r.clips
		return
	}
	needle := strings.ToLower(r.filter)
	r.visible = make([]domain.Clip, 0, len(r.clips))
	for _, c := range r.clips {
		if strings.Contains(strings.ToLower(c.Name), needle) ||
			strings.Contains(strings.ToLower(c.Dir), needle) {
			r.visible = append(r.visible, c)
		}
	}
}

// Selected returns the index of the selected clip.
func (r *ClipList) Selected() int {
	return r.selected
}

// SetSelected sets the selected index.
func (r *ClipList) SetSelected(index int) {
	if index >= 0 && index < len(r.visible) {
		r.selected = index
	}
}

// SelectedClip returns the currently selected clip, or nil if none.
func (r *ClipList) SelectedClip() *domain.Clip {
	if len(r.visible) == 0 || r.selected < 0 || r.selected >= len(r.visible) {
		return nil
	}
	return &r.visible[r.selected]
}

// MoveUp moves selection up.
func (r *ClipList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *ClipList) MoveDown() {
	if r.selected < len(r.visible)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ClipList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of visible clips.
func (r *ClipList) Count() int {
	return len(r.visible)
}

// IsEmpty returns whether no clip is visible.
func (r *ClipList) IsEmpty() bool {
	return len(r.visible) == 0
}
