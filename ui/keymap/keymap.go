package keymap

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the chat keybindings.
// Using bubbles/key allows for help generation and context-aware enabling.
type KeyMap struct {
	// Transcript scrolling (delegated to the viewport)
	PageUp   key.Binding
	PageDown key.Binding

	// Input Actions
	Submit     key.Binding // Enter: send, or reveal more on empty input
	Newline    key.Binding // Alt+Enter
	RecallLast key.Binding // Up arrow on empty input
	EditLast   key.Binding // Ctrl+E
	Command    key.Binding // Esc

	// Answer versions
	PrevVersion key.Binding
	NextVersion key.Binding

	// Application Control
	Interrupt  key.Binding // Ctrl+C: stop generation / clear input / quit
	Quit       key.Binding // Ctrl+D on empty
	Suspend    key.Binding // Ctrl+Z
	ToggleHelp key.Binding
}

// DefaultKeyMap returns the default bindings. Text editing keys are left to
// the textarea component.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),

		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send / more")),
		Newline:    key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"), key.WithHelp("alt+enter", "newline")),
		RecallLast: key.NewBinding(key.WithKeys("up"), key.WithHelp("↑ (empty)", "recall last")),
		EditLast:   key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "edit last question")),
		Command:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "command mode")),

		PrevVersion: key.NewBinding(key.WithKeys("alt+left", "ctrl+p"), key.WithHelp("alt+←", "previous answer")),
		NextVersion: key.NewBinding(key.WithKeys("alt+right", "ctrl+n"), key.WithHelp("alt+→", "next answer")),

		Interrupt:  key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "stop / clear / quit")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d (empty)", "quit")),
		Suspend:    key.NewBinding(key.WithKeys("ctrl+z"), key.WithHelp("ctrl+z", "suspend")),
		ToggleHelp: key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "toggle help")),
	}
}

// ShortHelp returns the bindings shown in the one-line help.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.PrevVersion, k.NextVersion, k.Command, k.Interrupt, k.ToggleHelp}
}

// FullHelp returns every binding grouped by concern.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Newline, k.RecallLast, k.EditLast, k.Command},
		{k.PrevVersion, k.NextVersion, k.PageUp, k.PageDown},
		{k.Interrupt, k.Quit, k.Suspend, k.ToggleHelp},
	}
}
