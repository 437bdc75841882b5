package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Quit      key.Binding
	Focus     key.Binding
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Select    key.Binding
	MovePrev  key.Binding
	MoveNext  key.Binding
	Tab1      key.Binding
	Tab2      key.Binding
	Tab3      key.Binding
	Scope     key.Binding
	NewTask   key.Binding
	Delete    key.Binding
	Edit      key.Binding
	Manage    key.Binding
	Reload    key.Binding
	Logout    key.Binding
	Help      key.Binding
	Back      key.Binding
	NextField key.Binding
	PrevField key.Binding
	Switch    key.Binding
	Submit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Focus:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "sidebar/panel")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "column")),
		Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "column")),
		Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		MovePrev:  key.NewBinding(key.WithKeys("["), key.WithHelp("[", "move left")),
		MoveNext:  key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "move right")),
		Tab1:      key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "upcoming")),
		Tab2:      key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "overdue")),
		Tab3:      key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "completed")),
		Scope:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "mine/all")),
		NewTask:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		Delete:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Manage:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "manage")),
		Reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Logout:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		NextField: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		PrevField: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		Switch:    key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "switch form")),
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Focus, k.Select, k.MovePrev, k.MoveNext, k.Reload, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Select, k.Focus},
		{k.MovePrev, k.MoveNext, k.Scope, k.Manage, k.NewTask, k.Delete},
		{k.Tab1, k.Tab2, k.Tab3, k.Edit, k.Reload},
		{k.Logout, k.Help, k.Quit},
	}
}

// formKeys is the help shown while a form has focus.
type formKeys struct{ k keyMap }

func (f formKeys) ShortHelp() []key.Binding {
	return []key.Binding{f.k.NextField, f.k.PrevField, f.k.Submit, f.k.Switch, f.k.Back}
}

func (f formKeys) FullHelp() [][]key.Binding { return [][]key.Binding{f.ShortHelp()} }
