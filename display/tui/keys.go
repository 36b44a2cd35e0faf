package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings for the dashboard.
// It implements the help.KeyMap interface for bubbles/help integration.
type keyMap struct {
	Quit      key.Binding
	NextTab   key.Binding
	PrevTab   key.Binding
	Tab1      key.Binding
	Tab2      key.Binding
	Tab3      key.Binding
	Tab4      key.Binding
	Tab5      key.Binding
	NextEntry key.Binding
	PrevEntry key.Binding
	Retry     key.Binding
	Help      key.Binding
}

// ShortHelp returns the compact set of keybindings shown by default in the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.NextTab, k.NextEntry, k.Quit}
}

// FullHelp returns the expanded keybinding groups shown when help is toggled.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevTab, k.Tab1, k.Tab2, k.Tab3, k.Tab4, k.Tab5},
		{k.NextEntry, k.PrevEntry, k.Retry},
		{k.Help, k.Quit},
	}
}

// tabKeys returns the direct-jump bindings in tab order.
func (k keyMap) tabKeys() []key.Binding {
	return []key.Binding{k.Tab1, k.Tab2, k.Tab3, k.Tab4, k.Tab5}
}

// keys holds the default key bindings used by the dashboard.
var keys = keyMap{
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	NextTab:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next domain")),
	PrevTab:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev domain")),
	Tab1:      key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "cpu")),
	Tab2:      key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "memory")),
	Tab3:      key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "gpu")),
	Tab4:      key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "network")),
	Tab5:      key.NewBinding(key.WithKeys("5"), key.WithHelp("5", "disk")),
	NextEntry: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next device")),
	PrevEntry: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev device")),
	Retry:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry paused device")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}
