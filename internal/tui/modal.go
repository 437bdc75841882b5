package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func modalBodyWidth(width int) int {
	w := width - 10
	if w > 60 {
		w = 60
	}
	if w < 24 {
		w = 24
	}
	return w
}

func renderModalBox(width int, title, content string) string {
	bodyW := modalBodyWidth(width)
	head := lipgloss.NewStyle().Bold(true).Width(bodyW).Render(title)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorModalBorder).
		Padding(0, 1).
		Width(bodyW + 2)
	return box.Render(head + "\n\n" + content)
}

// renderConfirmModal renders a yes/no question. cancel may be empty for an
// acknowledgement-only modal.
func renderConfirmModal(width int, title, body, confirm, cancel string) string {
	btn := lipgloss.NewStyle().Padding(0, 1).Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)
	btnAlt := lipgloss.NewStyle().Padding(0, 1).Foreground(colorSurfaceFg).Background(colorControlBg)
	controls := btn.Render(confirm + " (enter)")
	helpText := "enter: " + strings.ToLower(confirm)
	if cancel != "" {
		controls = lipgloss.JoinHorizontal(lipgloss.Top, controls, " ", btnAlt.Render(cancel+" (esc)"))
		helpText += "   esc: " + strings.ToLower(cancel)
	}
	bodyW := modalBodyWidth(width)
	content := strings.Join([]string{
		lipgloss.NewStyle().Width(bodyW).Render(body),
		"",
		controls,
		"",
		styleMuted().Width(bodyW).Render(helpText),
	}, "\n")
	return renderModalBox(width, title, content)
}

// overlay centers a modal on an otherwise blank screen.
func overlay(width, height int, modal string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal,
		lipgloss.WithWhitespaceChars(" "))
}
