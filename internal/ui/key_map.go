package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	toggle   key.Binding
	next     key.Binding
	previous key.Binding
	mode     key.Binding
	like     key.Binding
	backup   key.Binding
	focus    key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		previous: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		mode:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mode")),
		like:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "like")),
		backup:   key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "backup")),
		focus:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.next, k.previous, k.mode, k.like, k.backup, k.focus, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.toggle, k.next, k.previous},
		{k.mode, k.like, k.backup},
		{k.focus, k.quit},
	}
}
