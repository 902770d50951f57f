package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	HalfUp   key.Binding
	HalfDown key.Binding
	Home     key.Binding
	End      key.Binding
	NextView key.Binding
	PrevView key.Binding

	// Actions
	Quit           key.Binding
	Help           key.Binding
	Escape         key.Binding
	Filter         key.Binding
	Reload         key.Binding
	Stop           key.Binding
	ToggleFavorite key.Binding
	ToggleWatched  key.Binding

	// Catalog criteria
	NextGenre    key.Binding
	RaiseRating  key.Binding
	LowerRating  key.Binding
	NextLanguage key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		HalfUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("C-u", "half page up"),
		),
		HalfDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("C-d", "half page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("home", "go to top"),
		),
		End: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "go to bottom"),
		),
		NextView: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next view"),
		),
		PrevView: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "previous view"),
		),

		// Actions
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel/clear"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter loaded"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Stop: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "stop loading"),
		),
		ToggleFavorite: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "favorite"),
		),
		ToggleWatched: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "seen"),
		),

		// Catalog criteria
		NextGenre: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "genre"),
		),
		RaiseRating: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "min rating up"),
		),
		LowerRating: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "min rating down"),
		),
		NextLanguage: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "language"),
		),
	}
}

// HelpBindings lists the bindings shown on the help screen, in order
func (k KeyMap) HelpBindings() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.HalfUp, k.HalfDown, k.Home, k.End,
		k.NextView, k.PrevView,
		k.Filter, k.Reload, k.Stop, k.ToggleFavorite, k.ToggleWatched,
		k.NextGenre, k.RaiseRating, k.LowerRating, k.NextLanguage,
		k.Escape, k.Help, k.Quit,
	}
}

// Keys is the global key bindings instance
var Keys = DefaultKeyMap()
