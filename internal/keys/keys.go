package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Focus
	Next key.Binding
	Prev key.Binding

	// Nudge the focused note
	Left  key.Binding
	Right key.Binding
	Up    key.Binding
	Down  key.Binding

	// Note actions
	New      key.Binding
	Edit     key.Binding
	Delete   key.Binding
	Front    key.Binding
	Lock     key.Binding
	Pin      key.Binding
	Hide     key.Binding
	Checkbox key.Binding

	// View
	CycleView    key.Binding
	Filter       key.Binding
	ClearFilters key.Binding
	Arrange      key.Binding

	// Panels
	AI       key.Binding
	Tags     key.Binding
	Projects key.Binding
	Command  key.Binding
	Settings key.Binding
	Outline  key.Binding
	Detail   key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next note"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous note"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "move left"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "move right"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "move down"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new note"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e", "enter"),
			key.WithHelp("e/enter", "edit note"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete note"),
		),
		Front: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "bring to front"),
		),
		Lock: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "toggle lock"),
		),
		Pin: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "toggle pin"),
		),
		Hide: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "toggle hidden"),
		),
		Checkbox: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "toggle first open checkbox"),
		),
		CycleView: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "cycle view mode"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter tags, priority, due"),
		),
		ClearFilters: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear filters"),
		),
		Arrange: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "arrange"),
		),
		AI: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "AI panel"),
		),
		Tags: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "manage tags"),
		),
		Projects: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "switch project"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command"),
		),
		Settings: key.NewBinding(
			key.WithKeys(","),
			key.WithHelp(",", "settings"),
		),
		Outline: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "outline"),
		),
		Detail: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "note details"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Next, k.New, k.Edit, k.Front,
		k.CycleView, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Left, k.Right, k.Up, k.Down},
		{k.New, k.Edit, k.Delete, k.Front, k.Checkbox},
		{k.Lock, k.Pin, k.Hide, k.Arrange},
		{k.CycleView, k.Filter, k.ClearFilters, k.Outline, k.Detail, k.Refresh},
		{k.AI, k.Tags, k.Projects, k.Command, k.Settings, k.Help, k.Quit},
	}
}
