// Package player provides the now-playing view for the TUI.
package player

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/camdeck/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/camdeck/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driving"
)

// View shows the running playback session, one tile per feed.
type View struct {
	styles   *styles.Styles
	playback driving.PlaybackService
	progress progress.Model

	status  domain.PlaybackStatus
	pending string
	err     error

	width  int
	height int
	ready  bool
}

// NewView creates a new player view.
func NewView(s *styles.Styles, playback driving.PlaybackService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:   s,
		playback: playback,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

// Init refreshes the status from the service.
func (v *View) Init() tea.Cmd {
	if v.playback == nil {
		return nil
	}
	st := v.playback.Status()
	return func() tea.Msg {
		return messages.PlaybackUpdated{Status: st}
	}
}

// Play starts a session for clip.
func (v *View) Play(clip domain.Clip) tea.Cmd {
	v.pending = clip.Name
	v.err = nil
	playback := v.playback
	id := clip.ID
	return func() tea.Msg {
		if playback == nil {
			return messages.PlaybackStarted{Err: errors.New("playback service not available")}
		}
		sid, err := playback.Start(context.Background(), id, domain.PlaybackOptions{})
		return messages.PlaybackStarted{SessionID: sid, Err: err}
	}
}

// Stop ends the running session.
func (v *View) Stop() tea.Cmd {
	playback := v.playback
	return func() tea.Msg {
		if playback == nil {
			return messages.PlaybackStopped{Err: domain.ErrNoSession}
		}
		return messages.PlaybackStopped{Err: playback.Stop()}
	}
}

// Update handles messages for the player view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "s":
			if v.status.Active {
				return v, v.Stop()
			}
		case "esc":
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewClips}
			}
		}
		return v, nil

	case messages.PlaybackStarted:
		v.pending = ""
		v.err = msg.Err
		return v, nil

	case messages.PlaybackUpdated:
		v.status = msg.Status
		return v, nil

	case messages.PlaybackStopped:
		if msg.Err != nil && !errors.Is(msg.Err, domain.ErrNoSession) {
			v.err = msg.Err
		}
		v.status.Active = false
		return v, nil
	}

	return v, nil
}

// View renders the player view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Now Playing"))
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %v", v.err)))
		b.WriteString("\n\n")
	case v.pending != "":
		b.WriteString(v.styles.Muted.Render("Starting " + v.pending + "..."))
		b.WriteString("\n\n")
	}

	st := v.status
	if st.ClipID == "" {
		b.WriteString(v.styles.Muted.Render("Nothing is playing. Pick a clip from the Clips view."))
		b.WriteString("\n\n")
		b.WriteString(v.styles.Help.Render("[esc] Back"))
		return b.String()
	}

	b.WriteString(v.styles.Subtitle.Render(st.ClipName))
	b.WriteString("\n")
	b.WriteString(v.styles.Normal.Render(v.position()))
	b.WriteString("\n")
	if st.ChunkCount > 0 {
		b.WriteString(v.progress.ViewAs(v.fraction()))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(v.renderFeeds(st.Feeds))
	b.WriteString("\n")

	b.WriteString("\n")
	switch {
	case st.Exhausted:
		b.WriteString(v.styles.Success.Render("Finished"))
	case !st.Active:
		b.WriteString(v.styles.Muted.Render("Stopped"))
	}
	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[s] Stop  [esc] Back"))
	return b.String()
}

func (v *View) position() string {
	st := v.status
	if st.ChunkIndex < 0 {
		return fmt.Sprintf("chunk -/%d", st.ChunkCount)
	}
	pos := fmt.Sprintf("chunk %d/%d", st.ChunkIndex+1, st.ChunkCount)
	if !st.ChunkTime.IsZero() {
		pos += "  " + st.ChunkTime.Format(domain.DisplayTimeLayout)
	}
	return pos
}

func (v *View) fraction() float64 {
	st := v.status
	if st.ChunkCount == 0 || st.ChunkIndex < 0 {
		return 0
	}
	if st.Exhausted {
		return 1
	}
	return float64(st.ChunkIndex+1) / float64(st.ChunkCount)
}

// tileWidth is the space one camera tile needs, border included.
const tileWidth = 36

// renderFeeds lays the camera tiles out in as many columns as fit.
func (v *View) renderFeeds(feeds []domain.FeedStatus) string {
	perRow := 3
	if v.width > 0 {
		perRow = max(1, v.width/tileWidth)
	}
	rows := make([]string, 0, len(feeds)/perRow+1)
	for start := 0; start < len(feeds); start += perRow {
		end := min(start+perRow, len(feeds))
		tiles := make([]string, 0, end-start)
		for _, f := range feeds[start:end] {
			tiles = append(tiles, v.renderFeed(f))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, tiles...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (v *View) renderFeed(f domain.FeedStatus) string {
	label := domain.CameraLabel(f.Camera)
	if f.Primary {
		label += "*"
	}
	lines := []string{
		v.styles.Normal.Bold(true).Render(label),
		v.styles.Feed(f.State).Render(f.State.String()),
	}
	if f.Path != "" {
		lines = append(lines, v.styles.Muted.Render(filepath.Base(f.Path)))
	}
	if f.Err != nil {
		lines = append(lines, v.styles.Error.Render(f.Err.Error()))
	}
	return v.styles.FeedTile(f.Primary).Render(strings.Join(lines, "\n"))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.progress.Width = width - 4
	if v.progress.Width > 60 {
		v.progress.Width = 60
	}
}

// Status returns the last known session state.
func (v *View) Status() domain.PlaybackStatus {
	return v.status
}

// Err returns the last playback error.
func (v *View) Err() error {
	return v.err
}
