// ABOUTME: Key bindings for the TUI screens
// ABOUTME: The footer renders the bindings that apply to the current screen

package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	ForceQuit key.Binding
	Quit      key.Binding
	Select    key.Binding
	Open      key.Binding
	New       key.Binding
	Refresh   key.Binding
	Back      key.Binding
	Logout    key.Binding
	Toggle    key.Binding
	Register  key.Binding
	Login     key.Binding
	Next      key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "Quit")),
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "Quit")),
		Select:    key.NewBinding(key.WithKeys("up", "down", "k", "j"), key.WithHelp("↑↓", "Select")),
		Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "Open")),
		New:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "New evaluation")),
		Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "Refresh")),
		Back:      key.NewBinding(key.WithKeys("b", "esc"), key.WithHelp("b", "Back")),
		Logout:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "Logout")),
		Toggle:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "Toggle role")),
		Register:  key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "Register")),
		Login:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "Log in")),
		Next:      key.NewBinding(key.WithKeys("tab", "enter"), key.WithHelp("tab", "Next field")),
	}
}

// shortcuts returns the bindings shown in the footer for the current state
func (a *App) shortcuts() []key.Binding {
	k := a.keys
	if a.loading {
		return []key.Binding{k.ForceQuit}
	}
	if a.err != "" {
		return []key.Binding{k.Refresh, k.Back, k.Logout, k.Quit}
	}

	switch a.screen {
	case ScreenLogin:
		return []key.Binding{k.Next, k.Register, k.ForceQuit}
	case ScreenRegister:
		return []key.Binding{k.Next, k.Login, k.ForceQuit}
	case ScreenEvaluate:
		return []key.Binding{k.Next, key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "Cancel")), k.ForceQuit}
	case ScreenDashboard:
		return []key.Binding{k.Select, k.Open, k.New, k.Refresh, k.Logout, k.Quit}
	case ScreenResult:
		return []key.Binding{k.Back, k.New, k.Logout, k.Quit}
	case ScreenAdmin:
		return []key.Binding{k.Select, k.Toggle, k.New, k.Refresh, k.Logout, k.Quit}
	}
	return []key.Binding{k.Quit}
}
