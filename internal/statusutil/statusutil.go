package statusutil

import (
	"fmt"
	"strings"

	"tasklync-cli/internal/model"
)

// NormalizeStatus maps user/server spellings onto the three board statuses.
func NormalizeStatus(s string) (model.Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "todo", "to-do", "to do":
		return model.StatusTodo, nil
	case "in-progress", "in progress", "inprogress", "doing":
		return model.StatusInProgress, nil
	case "done", "complete", "completed":
		return model.StatusDone, nil
	case "":
		return "", fmt.Errorf("invalid status: empty")
	default:
		return "", fmt.Errorf("invalid status: %s", strings.TrimSpace(s))
	}
}

// StatusOrDefault is used when decoding server data: anything unknown is "todo".
func StatusOrDefault(s model.Status) model.Status {
	st, err := NormalizeStatus(string(s))
	if err != nil {
		return model.StatusTodo
	}
	return st
}

func NormalizePriority(s string) (model.Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return model.PriorityLow, nil
	case "medium", "":
		return model.PriorityMedium, nil
	case "high":
		return model.PriorityHigh, nil
	default:
		return "", fmt.Errorf("invalid priority: %s", strings.TrimSpace(s))
	}
}

func PriorityOrDefault(p model.Priority) model.Priority {
	pr, err := NormalizePriority(string(p))
	if err != nil {
		return model.PriorityMedium
	}
	return pr
}

func IsEndState(s model.Status) bool { return s == model.StatusDone }

func Label(s model.Status) string {
	switch s {
	case model.StatusTodo:
		return "Todo"
	case model.StatusInProgress:
		return "In Progress"
	case model.StatusDone:
		return "Done"
	default:
		return string(s)
	}
}

// Neighbor returns the column status delta steps away from s (board order),
// or false when that would leave the board.
func Neighbor(s model.Status, delta int) (model.Status, bool) {
	for i, st := range model.Statuses {
		if st != s {
			continue
		}
		j := i + delta
		if j < 0 || j >= len(model.Statuses) {
			return "", false
		}
		return model.Statuses[j], true
	}
	return "", false
}
