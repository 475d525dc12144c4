package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Switch  key.Binding
	Attach  key.Binding
	Detach  key.Binding
	Refresh key.Binding
	Close   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Attach, k.Detach, k.Switch, k.Refresh, k.Close}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Switch},
		{k.Attach, k.Detach, k.Refresh, k.Close},
	}
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Switch: key.NewBinding(
		key.WithKeys("tab", "shift+tab"),
		key.WithHelp("tab", "switch pane"),
	),
	Attach: key.NewBinding(
		key.WithKeys("enter", "a"),
		key.WithHelp("enter", "attach"),
	),
	Detach: key.NewBinding(
		key.WithKeys("x", "delete"),
		key.WithHelp("x", "detach"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload tags"),
	),
	Close: key.NewBinding(
		key.WithKeys("esc", "q", "ctrl+c"),
		key.WithHelp("esc", "close"),
	),
}
