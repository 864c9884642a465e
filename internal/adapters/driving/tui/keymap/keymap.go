// Package keymap holds the TUI key bindings and the help each view shows.
package keymap

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap is every binding the TUI reacts to.
type KeyMap struct {
	Quit   key.Binding
	Help   key.Binding
	Back   key.Binding
	Up     key.Binding
	Down   key.Binding
	Play   key.Binding
	Filter key.Binding
	Rescan key.Binding
	Stop   key.Binding

	// NextSection and Reload belong to the settings view.
	NextSection key.Binding
	Reload      key.Binding
}

func binding(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// DefaultKeyMap returns the stock bindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit:        binding("q", "quit", "q", "ctrl+c"),
		Help:        binding("?", "help", "?"),
		Back:        binding("esc", "back", "esc"),
		Up:          binding("↑/k", "up", "up", "k"),
		Down:        binding("↓/j", "down", "down", "j"),
		Play:        binding("enter", "play", "enter"),
		Filter:      binding("/", "filter", "/"),
		Rescan:      binding("r", "rescan storage", "r"),
		Stop:        binding("s", "stop", "s"),
		NextSection: binding("tab", "next section", "tab"),
		Reload:      binding("r", "reload", "r"),
	}
}

// Scope selects the bindings of one screen.
type Scope int

const (
	ScopeGlobal Scope = iota
	ScopeClips
	ScopePlayer
	ScopeSettings
)

// For returns the bindings active in scope, most useful first.
func (k *KeyMap) For(scope Scope) []key.Binding {
	switch scope {
	case ScopeClips:
		return []key.Binding{k.Play, k.Filter, k.Rescan, k.Back}
	case ScopePlayer:
		return []key.Binding{k.Stop, k.Back}
	case ScopeSettings:
		return []key.Binding{k.NextSection, k.Reload, k.Back}
	default:
		return []key.Binding{k.Quit, k.Help}
	}
}

// Scoped adapts the bindings of scope to help.KeyMap. Its full help lists
// every screen, one column each.
func (k *KeyMap) Scoped(scope Scope) help.KeyMap {
	return scoped{keys: k, scope: scope}
}

type scoped struct {
	keys  *KeyMap
	scope Scope
}

func (s scoped) ShortHelp() []key.Binding {
	return s.keys.For(s.scope)
}

func (s scoped) FullHelp() [][]key.Binding {
	k := s.keys
	return [][]key.Binding{
		{k.Up, k.Down, k.Back, k.Help, k.Quit},
		k.For(ScopeClips),
		k.For(ScopePlayer),
		k.For(ScopeSettings),
	}
}
