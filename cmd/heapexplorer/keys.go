package main

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts
type KeyMap struct {
	// Trace navigation
	Step     key.Binding
	Back     key.Binding
	Jump     key.Binding
	JumpBack key.Binding
	Start    key.Binding
	End      key.Binding

	// Block selection
	PrevBlock key.Binding
	NextBlock key.Binding

	// Commands
	Copy  key.Binding
	Check key.Binding
	Help  key.Binding
	Esc   key.Binding
	Quit  key.Binding
}

// jumpSize is how many operations Jump and JumpBack move.
const jumpSize = 100

// DefaultKeyMap returns the default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Step: key.NewBinding(
			key.WithKeys("right", "l", " "),
			key.WithHelp("→/l/space", "next op"),
		),
		Back: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous op"),
		),
		Jump: key.NewBinding(
			key.WithKeys("]", "pgdown"),
			key.WithHelp("]", "forward 100 ops"),
		),
		JumpBack: key.NewBinding(
			key.WithKeys("[", "pgup"),
			key.WithHelp("[", "back 100 ops"),
		),
		Start: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "first op"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "last op"),
		),

		PrevBlock: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous block"),
		),
		NextBlock: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next block"),
		),

		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy block"),
		),
		Check: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "check heap"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Esc: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns key bindings for the short help view
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Step, k.Back, k.NextBlock, k.Help, k.Quit}
}

// FullHelp returns all key bindings for the full help view
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Step, k.Back, k.Jump, k.JumpBack, k.Start, k.End},
		{k.PrevBlock, k.NextBlock, k.Copy, k.Check, k.Help, k.Quit},
	}
}
