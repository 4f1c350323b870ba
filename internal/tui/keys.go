package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application
type KeyMap struct {
	// Deck
	Wishlist  key.Binding
	Seen      key.Binding
	Skip      key.Binding
	Undo      key.Binding
	Reset     key.Binding
	Genre     key.Binding
	Year      key.Binding
	AddToList key.Binding
	Retry     key.Binding

	// Lists
	Up         key.Binding
	Down       key.Binding
	NewList    key.Binding
	DeleteList key.Binding

	// Global
	ToggleLists key.Binding
	Search      key.Binding
	Escape      key.Binding
	Confirm     key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Wishlist: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "wishlist"),
		),
		Seen: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "seen"),
		),
		Skip: key.NewBinding(
			key.WithKeys(" ", "s"),
			key.WithHelp("space", "skip"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u", "backspace"),
			key.WithHelp("u", "undo"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reshuffle"),
		),
		Genre: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "next genre"),
		),
		Year: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "random year"),
		),
		AddToList: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add to list"),
		),
		Retry: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "retry poster"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		NewList: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new list"),
		),
		DeleteList: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete list"),
		),
		ToggleLists: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "deck/lists"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Seen, k.Wishlist, k.Skip, k.Undo, k.ToggleLists, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Seen, k.Wishlist, k.Skip, k.Undo, k.Reset},
		{k.Genre, k.Year, k.AddToList, k.Retry},
		{k.Up, k.Down, k.NewList, k.DeleteList},
		{k.ToggleLists, k.Search, k.Escape, k.Help, k.Quit},
	}
}
