package derive

import (
	"fmt"
	"testing"
	"time"

	"tasklync-cli/internal/model"
)

const today = model.Day("2025-03-10")

func day(s string) *model.Day {
	d := model.Day(s)
	return &d
}

func at(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func sample() []model.Task {
	return []model.Task{
		{ID: "past-open", Status: model.StatusTodo, DueDate: day("2025-03-09")},
		{ID: "past-done", Status: model.StatusDone, DueDate: day("2025-03-01")},
		{ID: "today-open", Status: model.StatusInProgress, DueDate: day("2025-03-10")},
		{ID: "future-done", Status: model.StatusDone, DueDate: day("2025-04-01")},
		{ID: "no-due", Status: model.StatusTodo},
		{ID: "no-due-done", Status: model.StatusDone},
		{ID: "weird-status", Status: "archived", DueDate: day("2025-02-01")},
	}
}

func ids(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func contains(tasks []model.Task, id string) bool {
	for _, t := range tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}

func TestDoneNeverOverdueOrUpcoming(t *testing.T) {
	tasks := sample()
	over := Overdue(tasks, today)
	up := Upcoming(tasks, today)
	for _, tk := range Completed(tasks) {
		if contains(over, tk.ID) || contains(up, tk.ID) {
			t.Fatalf("done task %q leaked into overdue/upcoming", tk.ID)
		}
	}
	if got := ids(Completed(tasks)); fmt.Sprint(got) != "[past-done future-done no-due-done]" {
		t.Fatalf("completed: %v", got)
	}
}

func TestPastDueOpenIsOverdueOnly(t *testing.T) {
	tasks := sample()
	over := Overdue(tasks, today)
	up := Upcoming(tasks, today)
	for _, id := range []string{"past-open", "weird-status"} {
		if !contains(over, id) {
			t.Fatalf("%q should be overdue", id)
		}
		if contains(up, id) {
			t.Fatalf("%q should not be upcoming", id)
		}
	}
	if contains(over, "today-open") || !contains(up, "today-open") {
		t.Fatalf("due today is upcoming, not overdue")
	}
	if !contains(up, "no-due") {
		t.Fatalf("no due date is upcoming")
	}
}

func TestKanbanPartition(t *testing.T) {
	tasks := sample()
	cols := Kanban(tasks)
	if len(cols) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(cols))
	}
	seen := map[string]int{}
	total := 0
	for _, c := range cols {
		total += len(c.Tasks)
		for _, tk := range c.Tasks {
			seen[tk.ID]++
		}
	}
	if total != len(tasks) {
		t.Fatalf("partition sizes %d != %d", total, len(tasks))
	}
	for _, tk := range tasks {
		if seen[tk.ID] != 1 {
			t.Fatalf("task %q appears %d times", tk.ID, seen[tk.ID])
		}
	}
	if cols[0].Label != "Todo" || cols[1].Label != "In Progress" || cols[2].Label != "Done" {
		t.Fatalf("labels: %q %q %q", cols[0].Label, cols[1].Label, cols[2].Label)
	}
	if !contains(cols[0].Tasks, "weird-status") {
		t.Fatalf("unknown status should land in todo")
	}
}

func TestKanbanEmpty(t *testing.T) {
	for _, c := range Kanban(nil) {
		if c.Tasks == nil || len(c.Tasks) != 0 {
			t.Fatalf("empty column should be an empty slice")
		}
	}
}

func TestInboxNewestFirst(t *testing.T) {
	me := &model.UserRef{ID: "u1"}
	other := &model.UserRef{ID: "u2"}
	tasks := []model.Task{
		{ID: "t1", Status: model.StatusTodo, AssignedTo: me, CreatedAt: at("2025-03-01T10:00:00Z")},
		{ID: "t3", Status: model.StatusInProgress, AssignedTo: me, CreatedAt: at("2025-03-03T10:00:00Z")},
		{ID: "nodate", Status: model.StatusTodo, AssignedTo: me},
		{ID: "t2", Status: model.StatusTodo, AssignedTo: me, CreatedAt: at("2025-03-02T10:00:00Z")},
		{ID: "done", Status: model.StatusDone, AssignedTo: me, CreatedAt: at("2025-03-04T10:00:00Z")},
		{ID: "theirs", Status: model.StatusTodo, AssignedTo: other, CreatedAt: at("2025-03-05T10:00:00Z")},
	}
	got := ids(Inbox(tasks, "u1"))
	if fmt.Sprint(got) != "[t3 t2 t1 nodate]" {
		t.Fatalf("inbox order: %v", got)
	}
}

func TestInboxStableOnTies(t *testing.T) {
	me := &model.UserRef{ID: "u1"}
	same := at("2025-03-01T10:00:00Z")
	tasks := []model.Task{
		{ID: "a", Status: model.StatusTodo, AssignedTo: me, CreatedAt: same},
		{ID: "b", Status: model.StatusTodo, AssignedTo: me, CreatedAt: same},
		{ID: "c", Status: model.StatusTodo, AssignedTo: me, CreatedAt: same},
	}
	if got := ids(Inbox(tasks, "u1")); fmt.Sprint(got) != "[a b c]" {
		t.Fatalf("ties should keep input order: %v", got)
	}
}

func TestScope(t *testing.T) {
	tasks := []model.Task{
		{ID: "mine", AssignedTo: &model.UserRef{ID: "u1"}},
		{ID: "theirs", AssignedTo: &model.UserRef{ID: "u2"}},
		{ID: "nobody"},
	}
	if got := ids(Scope(tasks, model.RoleMember, "u1")); fmt.Sprint(got) != "[mine]" {
		t.Fatalf("member scope: %v", got)
	}
	if got := Scope(tasks, model.RoleAdmin, "u1"); len(got) != 3 {
		t.Fatalf("admin scope: %v", ids(got))
	}
}

func TestBuildReport(t *testing.T) {
	tasks := []model.Task{
		{ID: "1", Status: model.StatusTodo, Priority: model.PriorityHigh, Project: &model.ProjectRef{Name: "Launch"}, DueDate: day("2025-03-01")},
		{ID: "2", Status: model.StatusDone, Priority: model.PriorityLow, Project: &model.ProjectRef{ID: "raw-string"}},
		{ID: "3", Status: model.StatusInProgress, Project: &model.ProjectRef{Name: "Launch"}},
		{ID: "4", Status: model.StatusTodo},
	}
	r := BuildReport(tasks, today)
	if r.Total != 4 || r.Completed != 1 || r.Pending != 3 || r.Overdue != 1 {
		t.Fatalf("totals: %+v", r)
	}
	if fmt.Sprint(r.ByStatus) != "[{Todo 2} {In Progress 1} {Done 1}]" {
		t.Fatalf("by status: %v", r.ByStatus)
	}
	if fmt.Sprint(r.ByPriority) != "[{High 1} {Medium 2} {Low 1}]" {
		t.Fatalf("by priority: %v", r.ByPriority)
	}
	if fmt.Sprint(r.ByProject) != "[{Launch 2} {raw-string 1} {Unknown 1}]" {
		t.Fatalf("by project: %v", r.ByProject)
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)
	s := Summarize("", sample(), now)
	if s.Greeting != "Good morning, unknown" {
		t.Fatalf("greeting: %q", s.Greeting)
	}
	if s.Total != 7 || s.Completed != 3 || s.Pending != 4 || s.Overdue != 2 || s.Upcoming != 2 {
		t.Fatalf("summary: %+v", s)
	}
	if got := Greeting("Ada", now.Add(6*time.Hour)); got != "Good afternoon, Ada" {
		t.Fatalf("afternoon: %q", got)
	}
}
