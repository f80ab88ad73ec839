package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the dashboard.
// It also feeds the help view.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	Tab        key.Binding
	Enter      key.Binding
	Esc        key.Binding
	Remove     key.Binding
	Video      key.Binding
	Audio      key.Binding
	Microphone key.Binding
	Gamepad    key.Binding
	TouchPad   key.Binding
	Copy       key.Binding
	Paste      key.Binding
	Resolution key.Binding
	ResetRes   key.Binding
	Fullscreen key.Binding
	Keyboard   key.Binding
	Dismiss    key.Binding
	ToggleLog  key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns a KeyMap with default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "previous row"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "next row"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("←/h", "previous value"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("→/l", "next value"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next panel"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "install app / use device"),
		),
		Esc: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Remove: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "remove app"),
		),
		Video: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "toggle video"),
		),
		Audio: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle audio"),
		),
		Microphone: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "toggle microphone"),
		),
		Gamepad: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "toggle host gamepad"),
		),
		TouchPad: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle touch gamepad"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy host clipboard"),
		),
		Paste: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "send local clipboard"),
		),
		Resolution: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "set resolution"),
		),
		ResetRes: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "follow window size"),
		),
		Fullscreen: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fullscreen"),
		),
		Keyboard: key.NewBinding(
			key.WithKeys("K"),
			key.WithHelp("K", "virtual keyboard"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "dismiss notification"),
		),
		ToggleLog: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "toggle log"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "quit"),
		),
	}
}

// FullHelp returns bindings for the main help view.
// Each inner slice is a column.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Tab},
		{k.Video, k.Audio, k.Microphone, k.Gamepad, k.TouchPad},
		{k.Resolution, k.ResetRes, k.Copy, k.Paste, k.Fullscreen, k.Keyboard},
		{k.Enter, k.Remove, k.Dismiss, k.ToggleLog, k.Help, k.Quit},
	}
}

// ShortHelp returns a minimal set of bindings for the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Left, k.Right, k.Help, k.Quit}
}

// InputModeHelp returns the bindings shown while a text field has focus.
func (k KeyMap) InputModeHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "width/height")),
		key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "preset")),
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		k.Esc,
	}
}
