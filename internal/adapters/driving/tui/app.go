package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/camdeck/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/camdeck/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/camdeck/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/camdeck/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/camdeck/internal/adapters/driving/tui/views/clips"
	"github.com/custodia-labs/camdeck/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/camdeck/internal/adapters/driving/tui/views/player"
	"github.com/custodia-labs/camdeck/internal/adapters/driving/tui/views/settings"
	"github.com/custodia-labs/camdeck/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	// statusBar is shown under every view except the menu.
	statusBar *status.Bar

	menuView     *menu.View
	clipsView    *clips.View
	playerView   *player.View
	settingsView *settings.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		keymap:       km,
		statusBar:    status.NewBar(s, km),
		menuView:     menu.NewView(s, km),
		clipsView:    clips.NewView(s, ports.Index),
		playerView:   player.NewView(s, ports.Playback),
		settingsView: settings.NewView(s, ports.Settings),
		currentView:  messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
// The index starts loading straight away so the clips view is ready
// when the user opens it.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("camdeck"),
		a.clipsView.Init(),
	)
}

// Update implements tea.Model.
// It handles messages and updates the model state.
//
//nolint:gocyclo // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if key.Matches(msg, a.keymap.Help) && !a.clipsView.Filtering() {
			a.currentView = messages.ViewHelp
			return a, nil
		}
		return a, a.handleKey(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		a.syncStatus()
		switch msg.View {
		case messages.ViewClips:
			if a.clipsView.Count() == 0 && a.clipsView.Err() == nil {
				return a, a.clipsView.Init()
			}
		case messages.ViewPlayer:
			return a, a.playerView.Init()
		case messages.ViewSettings:
			a.settingsView.Reset()
			return a, a.settingsView.Init()
		case messages.ViewMenu, messages.ViewHelp:
		}
		return a, nil

	case messages.IndexLoaded:
		a.clipsView, cmd = a.clipsView.Update(msg)
		a.syncStatus()
		return a, cmd

	case messages.ClipSelected:
		a.currentView = messages.ViewPlayer
		a.syncStatus()
		return a, a.playerView.Play(msg.Clip)

	case messages.PlaybackStarted, messages.PlaybackUpdated, messages.PlaybackStopped:
		a.playerView, cmd = a.playerView.Update(msg)
		if err := a.playerView.Err(); err != nil {
			a.err = err
		}
		a.syncStatus()
		return a, cmd

	case messages.SettingsLoaded:
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.statusBar.SetState(status.StateError)
		a.statusBar.SetMessage(msg.Err.Error())
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewClips:
		a.clipsView, cmd = a.clipsView.Update(msg)
		a.syncStatus()
	case messages.ViewPlayer:
		a.playerView, cmd = a.playerView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	case messages.ViewHelp:
		if key.Matches(msg, a.keymap.Back) {
			a.currentView = messages.ViewMenu
			a.syncStatus()
		}
	}
	return cmd
}

// syncStatus mirrors the active view into the status bar.
func (a *App) syncStatus() {
	bar := a.statusBar
	bar.Clear()
	switch a.currentView {
	case messages.ViewClips:
		if a.clipsView.Scanning() {
			bar.SetState(status.StateScanning)
			return
		}
		if err := a.clipsView.Err(); err != nil {
			bar.SetState(status.StateError)
			bar.SetMessage(err.Error())
			return
		}
		bar.SetState(status.StateClips)
		bar.SetClipCount(a.clipsView.Count())
	case messages.ViewPlayer:
		st := a.playerView.Status()
		if !st.Active {
			return
		}
		bar.SetState(status.StatePlaying)
		bar.SetMessage(playingMessage(st))
	case messages.ViewSettings:
		bar.SetState(status.StateSettings)
	case messages.ViewMenu:
		a.syncMenu()
	case messages.ViewHelp:
	}
}

// syncMenu refreshes the menu badges.
func (a *App) syncMenu() {
	switch {
	case a.clipsView.Scanning():
		a.menuView.SetBadge(messages.ViewClips, "scanning...")
	case a.clipsView.Err() != nil:
		a.menuView.SetBadge(messages.ViewClips, "scan failed")
	default:
		a.menuView.SetBadge(messages.ViewClips, fmt.Sprintf("%d indexed", a.clipsView.Count()))
	}
	badge := "idle"
	if st := a.playerView.Status(); st.Active {
		badge = st.ClipName
	}
	a.menuView.SetBadge(messages.ViewPlayer, badge)
}

func playingMessage(st domain.PlaybackStatus) string {
	if st.Exhausted {
		return "Finished " + st.ClipName
	}
	return fmt.Sprintf("Playing %s, chunk %d/%d", st.ClipName, st.ChunkIndex+1, st.ChunkCount)
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewMenu:
		return a.menuView.View()
	case messages.ViewClips:
		body = a.clipsView.View()
	case messages.ViewPlayer:
		body = a.playerView.View()
	case messages.ViewSettings:
		body = a.settingsView.View()
	case messages.ViewHelp:
		body = a.viewHelp()
	default:
		return a.menuView.View()
	}
	return body + "\n\n" + a.statusBar.View()
}

// viewHelp lists every binding, one column per screen.
func (a *App) viewHelp() string {
	h := help.New()
	h.ShowAll = true
	h.Width = a.width
	h.Styles.FullKey = a.styles.Normal
	h.Styles.FullDesc = a.styles.Muted

	return a.styles.Title.Render("Help") + "\n\n" +
		h.View(a.keymap.Scoped(keymap.ScopeGlobal)) + "\n\n" +
		a.styles.Help.Render("Menu: 1-5 jump to an option. [esc] back to menu")
}

// Run starts the TUI application. Index rebuilds and playback changes are
// pushed into the program while it runs; any session still playing is
// stopped on exit.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(a.ctx)
	defer cancel()
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(ctx))

	indexes := newLatest[*domain.StorageIndex]()
	unsubIndex := a.ports.Index.Subscribe(indexes.put)
	defer unsubIndex()
	go indexes.forward(ctx, func(idx *domain.StorageIndex) {
		p.Send(messages.IndexLoaded{Index: idx})
	})

	statuses := newLatest[domain.PlaybackStatus]()
	unsubPlayback := a.ports.Playback.Subscribe(statuses.put)
	defer unsubPlayback()
	go statuses.forward(ctx, func(st domain.PlaybackStatus) {
		p.Send(messages.PlaybackUpdated{Status: st})
	})

	_, err := p.Run()
	_ = a.ports.Playback.Stop()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	// Leave room for the status bar.
	viewHeight := height - 2
	a.menuView.SetDimensions(width, height)
	a.clipsView.SetDimensions(width, viewHeight)
	a.playerView.SetDimensions(width, viewHeight)
	a.settingsView.SetDimensions(width, viewHeight)
	a.statusBar.SetWidth(width)
}
