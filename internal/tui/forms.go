package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tasklync-cli/internal/form"
)

type formKind int

const (
	formNone formKind = iota
	formLogin
	formSignup
	formSetPassword
	formJoin
	formCreateWorkspace
	formEditWorkspace
	formCreateTask
)

// onboarding forms belong to the signed-out and workspace-selection panels
// rather than to a modal over a regular panel.
func (k formKind) onboarding() bool {
	switch k {
	case formLogin, formSignup, formSetPassword, formJoin, formCreateWorkspace:
		return true
	}
	return false
}

// formState is a form.Form plus one text input per field.
type formState struct {
	kind   formKind
	seq    int
	f      *form.Form
	inputs []textinput.Model
	focus  int
}

func newFormState(kind formKind, seq int, f *form.Form) *formState {
	fs := &formState{kind: kind, seq: seq, f: f}
	for _, fd := range f.Fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 256
		ti.Placeholder = fd.Placeholder
		if ti.Placeholder == "" {
			ti.Placeholder = fd.Label
		}
		if fd.Secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		fs.inputs = append(fs.inputs, ti)
	}
	if len(fs.inputs) > 0 {
		fs.inputs[0].Focus()
	}
	return fs
}

func (fs *formState) setFocus(i int) tea.Cmd {
	if len(fs.inputs) == 0 {
		return nil
	}
	i = (i + len(fs.inputs)) % len(fs.inputs)
	fs.inputs[fs.focus].Blur()
	fs.focus = i
	return fs.inputs[i].Focus()
}

// sync copies the input values into the form.
func (fs *formState) sync() {
	for i, fd := range fs.f.Fields {
		fs.f.Set(fd.Name, fs.inputs[i].Value())
	}
}

// fill copies loaded form values back into the inputs.
func (fs *formState) fill() {
	for i, fd := range fs.f.Fields {
		fs.inputs[i].SetValue(fs.f.Value(fd.Name))
	}
}

func (fs *formState) update(msg tea.Msg) tea.Cmd {
	if len(fs.inputs) == 0 {
		return nil
	}
	var cmd tea.Cmd
	fs.inputs[fs.focus], cmd = fs.inputs[fs.focus].Update(msg)
	return cmd
}

func (fs *formState) view(width int, spin string) string {
	bodyW := width - 4
	if bodyW < 20 {
		bodyW = 20
	}
	var lines []string
	for i, fd := range fs.f.Fields {
		label := fd.Label
		if fd.Required {
			label += " *"
		}
		ls := styleMuted()
		if i == fs.focus {
			ls = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
		}
		fs.inputs[i].Width = bodyW - 3
		lines = append(lines, ls.Render(label), renderInputLine(bodyW, fs.inputs[i].View()), "")
	}
	switch {
	case !fs.f.Ready():
		lines = append(lines, styleMuted().Render(spin+" loading…"))
	case fs.f.Busy():
		lines = append(lines, styleMuted().Render(spin+" submitting…"))
	case fs.f.Error() != "":
		lines = append(lines, styleError().Render(fs.f.Error()))
	}
	return strings.Join(lines, "\n")
}

func renderInputLine(bodyW int, inputView string) string {
	inputView = strings.NewReplacer("\n", " ", "\r", " ").Replace(inputView)
	line := lipgloss.PlaceHorizontal(bodyW, lipgloss.Left, " "+inputView+" ",
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
	return truncateText(line, bodyW)
}

// formTitleFor names the panel that hosts an onboarding form.
func formTitleFor(kind formKind) string {
	switch kind {
	case formLogin, formSignup:
		return "TaskLync"
	case formSetPassword:
		return "Set a new password to continue"
	case formJoin, formCreateWorkspace:
		return "Select a workspace"
	}
	return ""
}

// switchTarget is the form ctrl+n flips to.
func switchTarget(kind formKind) (formKind, bool) {
	switch kind {
	case formLogin:
		return formSignup, true
	case formSignup:
		return formLogin, true
	case formJoin:
		return formCreateWorkspace, true
	case formCreateWorkspace:
		return formJoin, true
	}
	return formNone, false
}
