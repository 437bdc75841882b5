package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"tasklync-cli/internal/derive"
	"tasklync-cli/internal/model"
	"tasklync-cli/internal/statusutil"
)

// boardSelection tracks the focused card. TaskID wins over the indexes so
// focus follows a task across moves and reloads.
type boardSelection struct {
	Col    int
	Item   int
	TaskID string
}

type board struct {
	cols []derive.Column
}

func buildBoard(tasks []model.Task) board {
	return board{cols: derive.Kanban(tasks)}
}

func (b board) indexOf(taskID string) (int, int, bool) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return 0, 0, false
	}
	for ci, c := range b.cols {
		for ii, t := range c.Tasks {
			if t.ID == taskID {
				return ci, ii, true
			}
		}
	}
	return 0, 0, false
}

func (b board) clamp(sel boardSelection) boardSelection {
	if len(b.cols) == 0 {
		return boardSelection{Item: -1}
	}
	if ci, ii, ok := b.indexOf(sel.TaskID); ok {
		sel.Col, sel.Item = ci, ii
	} else {
		sel.TaskID = ""
	}
	sel.Col = max(0, min(sel.Col, len(b.cols)-1))
	n := len(b.cols[sel.Col].Tasks)
	if n == 0 {
		sel.Item = -1
		return sel
	}
	sel.Item = max(0, min(sel.Item, n-1))
	sel.TaskID = b.cols[sel.Col].Tasks[sel.Item].ID
	return sel
}

func (b board) selected(sel boardSelection) (model.Task, bool) {
	sel = b.clamp(sel)
	if sel.Item < 0 {
		return model.Task{}, false
	}
	return b.cols[sel.Col].Tasks[sel.Item], true
}

// step moves the cursor by columns (dc) or cards (di).
func (b board) step(sel boardSelection, dc, di int) boardSelection {
	sel = b.clamp(sel)
	if len(b.cols) == 0 {
		return sel
	}
	if dc != 0 {
		sel.Col = max(0, min(sel.Col+dc, len(b.cols)-1))
		sel.TaskID = ""
	}
	if di != 0 {
		sel.Item += di
		sel.TaskID = ""
	}
	return b.clamp(sel)
}

func renderBoard(b board, sel boardSelection, inflight func(string) bool, now time.Time, width, height int) string {
	n := len(b.cols)
	if n == 0 || width <= 0 {
		return normalizePane("", width, height)
	}
	sel = b.clamp(sel)

	gap := 2
	colW := (width - gap*(n-1)) / n
	if colW < 12 {
		colW = 12
	}
	innerW := colW - 2

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg).Background(colorControlBg)
	headerSelected := lipgloss.NewStyle().Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg)
	cardStyle := lipgloss.NewStyle().Width(colW).Padding(0, 1)
	cardSelected := cardStyle.Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)

	renderCard := func(t model.Task, selected bool) string {
		title := strings.TrimSpace(t.Title)
		if title == "" {
			title = "(untitled)"
		}
		titleStyle := lipgloss.NewStyle().Bold(true)
		if statusutil.IsEndState(derive.ColumnOf(t)) && !selected {
			titleStyle = faintIfDark(lipgloss.NewStyle()).Foreground(colorMuted).Strikethrough(true)
		}
		var lines []string
		for _, ln := range wrapText(title, innerW) {
			lines = append(lines, titleStyle.Render(ln))
		}
		if meta := cardMeta(t, now, inflight != nil && inflight(t.ID)); meta != "" {
			for _, ln := range wrapText(meta, innerW) {
				lines = append(lines, styleMuted().Render(ln))
			}
		}
		inner := normalizePane(strings.Join(lines, "\n"), innerW, 0)
		if selected {
			return cardSelected.Render(inner)
		}
		return cardStyle.Render(inner)
	}

	rendered := make([]string, 0, n)
	for ci, c := range b.cols {
		hs := headerStyle
		if ci == sel.Col {
			hs = headerSelected
		}
		lines := []string{hs.Width(colW).Render(truncateText(fmt.Sprintf("%s (%d)", c.Label, len(c.Tasks)), colW))}
		if len(c.Tasks) == 0 {
			lines = append(lines, styleMuted().Render("(empty)"))
		} else {
			lines = append(lines, "")
		}
		for i, t := range c.Tasks {
			lines = append(lines, strings.Split(renderCard(t, ci == sel.Col && i == sel.Item), "\n")...)
			if i < len(c.Tasks)-1 {
				lines = append(lines, styleMuted().Render(" "+strings.Repeat("─", max(0, colW-2))+" "))
			}
		}
		rendered = append(rendered, normalizePane(strings.Join(lines, "\n"), colW, height))
	}

	out := rendered[0]
	sep := strings.Repeat(" ", gap)
	for i := 1; i < len(rendered); i++ {
		out = lipgloss.JoinHorizontal(lipgloss.Top, out, sep, rendered[i])
	}
	return normalizePane(out, width, height)
}

// cardMeta is the secondary line of a card: priority, due, assignee, and a
// marker while a move is unconfirmed.
func cardMeta(t model.Task, now time.Time, pending bool) string {
	var parts []string
	if p := statusutil.PriorityOrDefault(t.Priority); p != model.PriorityMedium {
		parts = append(parts, string(p))
	}
	if d := derive.DueLabel(t, now); d != "" {
		parts = append(parts, d)
	}
	if t.AssignedTo != nil && strings.TrimSpace(t.AssignedTo.Name) != "" {
		parts = append(parts, "@"+t.AssignedTo.Name)
	}
	if pending {
		parts = append(parts, "saving…")
	}
	return strings.Join(parts, " · ")
}
