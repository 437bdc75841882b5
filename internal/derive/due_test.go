package derive

import (
	"testing"
	"time"

	"tasklync-cli/internal/model"
)

func TestDueLabel(t *testing.T) {
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	cases := []struct {
		due  *model.Day
		want string
	}{
		{nil, ""},
		{day("2025-03-10"), "due today"},
		{day("2025-03-11"), "due 1 day from now"},
		{day("2025-03-12"), "due 2 days from now"},
		{day("2025-03-08"), "due 2 days ago"},
	}
	for _, c := range cases {
		if got := DueLabel(model.Task{DueDate: c.due}, now); got != c.want {
			t.Fatalf("%v: got %q want %q", c.due, got, c.want)
		}
	}
}
