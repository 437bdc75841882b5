package derive

import (
	"time"

	"github.com/dustin/go-humanize"

	"tasklync-cli/internal/model"
)

// DueLabel renders a task's due date relative to today ("due today",
// "due 3 days ago", "due 2 days from now"). Tasks without one get "".
func DueLabel(t model.Task, now time.Time) string {
	d, ok := t.Due()
	if !ok {
		return ""
	}
	today := model.DayOf(now)
	if d == today {
		return "due today"
	}
	when, ok := d.Time()
	if !ok {
		return "due " + d.String()
	}
	midnight, _ := today.Time()
	return "due " + humanize.RelTime(when, midnight, "ago", "from now")
}
