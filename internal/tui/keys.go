package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit     key.Binding
	Up       key.Binding
	Down     key.Binding
	Select   key.Binding
	Command  key.Binding
	Refresh  key.Binding
	Next     key.Binding
	Prev     key.Binding
	Submit   key.Binding
	Cancel   key.Binding
	Dismiss  key.Binding
	Activate key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select:   key.NewBinding(key.WithKeys("enter", "m"), key.WithHelp("enter", "mutations")),
		Command:  key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "mutation by name")),
		Refresh:  key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh catalog")),
		Next:     key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next")),
		Prev:     key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev")),
		Submit:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "submit")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Dismiss:  key.NewBinding(key.WithKeys("x", "ctrl+x"), key.WithHelp("x", "dismiss")),
		Activate: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "activate")),
	}
}

// dismissInField is the only dismiss key while a text field has focus.
var dismissInField = key.NewBinding(key.WithKeys("ctrl+x"))
