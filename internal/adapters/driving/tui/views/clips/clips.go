// Package clips provides the clip browser view for the TUI.
package clips

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/camdeck/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/camdeck/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/camdeck/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/camdeck/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driving"
)

// View lists indexed clips and lets the user pick one to play.
type View struct {
	styles *styles.Styles
	index  driving.IndexService

	list      *list.ClipList
	filter    *input.FilterInput
	filtering bool

	idx      *domain.StorageIndex
	loading  bool
	scanning bool
	err      error

	width  int
	height int
	ready  bool
}

// NewView creates a new clips view.
func NewView(s *styles.Styles, index driving.IndexService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		index:  index,
		list:   list.NewClipList(s),
		filter: input.NewFilterInput(s),
	}
}

// Init loads the index: the one in memory, else the cached one, else a
// fresh scan.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.load()
}

func (v *View) load() tea.Cmd {
	index := v.index
	return func() tea.Msg {
		if index == nil {
			return messages.IndexLoaded{Err: errors.New("index service not available")}
		}
		if cur := index.Current(); !cur.Empty() {
			return messages.IndexLoaded{Index: cur}
		}
		ctx := context.Background()
		if idx, err := index.Load(ctx); err == nil && !idx.Empty() {
			return messages.IndexLoaded{Index: idx}
		}
		idx, err := index.Scan(ctx)
		return messages.IndexLoaded{Index: idx, Scanned: true, Err: err}
	}
}

// Rescan rebuilds the index in the background.
func (v *View) Rescan() tea.Cmd {
	if v.index == nil || v.scanning {
		return nil
	}
	v.scanning = true
	results := v.index.ScanAsync(context.Background())
	return func() tea.Msg {
		res := <-results
		return messages.IndexLoaded{Index: res.Index, Scanned: true, Err: res.Err}
	}
}

// Update handles messages for the clips view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.filtering {
			return v.handleFilterKey(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.IndexLoaded:
		v.loading = false
		if msg.Scanned {
			v.scanning = false
		}
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.SetIndex(msg.Index)
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if v.list.Filter() != "" {
			v.filter.Reset()
			v.list.SetFilter("")
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case "/":
		v.filtering = true
		return v, v.filter.Focus()
	case "r":
		return v, v.Rescan()
	case "enter":
		if c := v.list.SelectedClip(); c != nil {
			clip := *c
			return v, func() tea.Msg {
				return messages.ClipSelected{Clip: clip}
			}
		}
		return v, nil
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *View) handleFilterKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	//nolint:exhaustive // only keys that end filtering are special
	switch msg.Type {
	case tea.KeyEsc:
		v.filtering = false
		v.filter.Blur()
		v.filter.Reset()
		v.list.SetFilter("")
		return v, nil
	case tea.KeyEnter:
		v.filtering = false
		v.filter.Blur()
		return v, nil
	}

	var cmd tea.Cmd
	v.filter, cmd = v.filter.Update(msg)
	v.list.SetFilter(v.filter.Value())
	return v, cmd
}

// View renders the clips view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Clips"))
	if v.idx != nil && !v.idx.BuiltAt().IsZero() {
		b.WriteString("  " + v.styles.Muted.Render("indexed "+v.idx.BuiltAt().Local().Format(domain.DisplayTimeLayout)))
	}
	b.WriteString("\n\n")

	if v.filtering || v.list.Filter() != "" {
		b.WriteString(v.filter.View())
		b.WriteString("\n\n")
	}

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading clips..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %v", v.err)))
	default:
		b.WriteString(v.list.View())
	}

	if v.idx != nil {
		for _, r := range v.idx.Failures() {
			b.WriteString("\n")
			b.WriteString(v.styles.Warning.Render(fmt.Sprintf("! %s: %v", r.Root, r.Err)))
		}
	}
	if v.scanning {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Muted.Render("Scanning..."))
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[enter] Play  [/] Filter  [r] Rescan  [esc] Back"))
	return b.String()
}

// SetIndex shows the clips of idx.
func (v *View) SetIndex(idx *domain.StorageIndex) {
	if idx == nil {
		return
	}
	v.idx = idx
	v.list.SetClips(idx.Clips())
	v.list.SetFilter(v.filter.Value())
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.list.SetDimensions(width, height-8)
	v.filter.SetWidth(width)
}

// Count returns the number of clips shown.
func (v *View) Count() int {
	return v.list.Count()
}

// Scanning reports whether a rescan is in flight.
func (v *View) Scanning() bool {
	return v.scanning
}

// Filtering reports whether the filter has focus.
func (v *View) Filtering() bool {
	return v.filtering
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
