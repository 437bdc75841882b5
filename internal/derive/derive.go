// Package derive computes every grouping the views show from a task list.
//
// All functions are pure: they never modify their input and are recomputed on
// every render. "today" is passed in so date boundaries are testable; dates
// compare as calendar days with no time-of-day component.
package derive

import (
	"sort"
	"strings"
	"time"

	"tasklync-cli/internal/model"
	"tasklync-cli/internal/perm"
	"tasklync-cli/internal/statusutil"
)

// UnknownProject labels tasks with no usable project in reports.
const UnknownProject = "Unknown"

func isDone(t model.Task) bool {
	return statusutil.IsEndState(statusutil.StatusOrDefault(t.Status))
}

// IsOverdue: a due date strictly before today on a task that is not done.
func IsOverdue(t model.Task, today model.Day) bool {
	if isDone(t) {
		return false
	}
	due, ok := t.Due()
	return ok && due.Before(today)
}

// IsUpcoming: not done, and either no due date or due today or later.
func IsUpcoming(t model.Task, today model.Day) bool {
	if isDone(t) {
		return false
	}
	due, ok := t.Due()
	return !ok || !due.Before(today)
}

func filter(tasks []model.Task, keep func(model.Task) bool) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func Overdue(tasks []model.Task, today model.Day) []model.Task {
	return filter(tasks, func(t model.Task) bool { return IsOverdue(t, today) })
}

func Upcoming(tasks []model.Task, today model.Day) []model.Task {
	return filter(tasks, func(t model.Task) bool { return IsUpcoming(t, today) })
}

func Completed(tasks []model.Task) []model.Task {
	return filter(tasks, isDone)
}

// Scope narrows a backend task list to what role may see: admins get
// everything the backend returned, everyone else only their own tasks.
func Scope(tasks []model.Task, role model.Role, userID string) []model.Task {
	if perm.Can(role, perm.SeeAllTasks) {
		return filter(tasks, func(model.Task) bool { return true })
	}
	return filter(tasks, func(t model.Task) bool { return t.AssignedToUser(userID) })
}

// Inbox is the notification list: open tasks assigned to userID, newest
// first. Ties and tasks without a creation time keep their input order; the
// latter sort last.
func Inbox(tasks []model.Task, userID string) []model.Task {
	out := filter(tasks, func(t model.Task) bool { return t.AssignedToUser(userID) && !isDone(t) })
	sort.SliceStable(out, func(i, j int) bool {
		return createdUnix(out[i]) > createdUnix(out[j])
	})
	return out
}

func createdUnix(t model.Task) int64 {
	if t.CreatedAt == nil {
		return 0
	}
	return t.CreatedAt.UnixMilli()
}

// Column is one kanban column.
type Column struct {
	Status model.Status `json:"status"`
	Label  string       `json:"label"`
	Tasks  []model.Task `json:"tasks"`
}

// Kanban partitions tasks by status in board order. Unrecognized statuses
// land in todo so every task appears in exactly one column.
func Kanban(tasks []model.Task) []Column {
	cols := make([]Column, len(model.Statuses))
	idx := map[model.Status]int{}
	for i, st := range model.Statuses {
		cols[i] = Column{Status: st, Label: statusutil.Label(st), Tasks: []model.Task{}}
		idx[st] = i
	}
	for _, t := range tasks {
		i := idx[statusutil.StatusOrDefault(t.Status)]
		cols[i].Tasks = append(cols[i].Tasks, t)
	}
	return cols
}

// ColumnOf returns the board column a task belongs to.
func ColumnOf(t model.Task) model.Status { return statusutil.StatusOrDefault(t.Status) }

// Count is a labelled tally.
type Count struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

type Report struct {
	Total      int     `json:"total"`
	Completed  int     `json:"completed"`
	Pending    int     `json:"pending"`
	Overdue    int     `json:"overdue"`
	ByStatus   []Count `json:"byStatus"`
	ByPriority []Count `json:"byPriority"`
	ByProject  []Count `json:"byProject"`
}

// BuildReport tallies tasks by status, priority and project. Projects are
// ordered by first appearance.
func BuildReport(tasks []model.Task, today model.Day) Report {
	r := Report{Total: len(tasks)}
	status := map[model.Status]int{}
	priority := map[model.Priority]int{}
	project := map[string]int{}
	var projectOrder []string
	for _, t := range tasks {
		status[statusutil.StatusOrDefault(t.Status)]++
		priority[statusutil.PriorityOrDefault(t.Priority)]++
		name := ProjectLabel(t)
		if _, seen := project[name]; !seen {
			projectOrder = append(projectOrder, name)
		}
		project[name]++
		if IsOverdue(t, today) {
			r.Overdue++
		}
	}
	for _, st := range model.Statuses {
		r.ByStatus = append(r.ByStatus, Count{Label: statusutil.Label(st), Value: status[st]})
	}
	for _, p := range model.Priorities {
		r.ByPriority = append(r.ByPriority, Count{Label: string(p), Value: priority[p]})
	}
	r.ByProject = []Count{}
	for _, name := range projectOrder {
		r.ByProject = append(r.ByProject, Count{Label: name, Value: project[name]})
	}
	r.Completed = status[model.StatusDone]
	r.Pending = r.Total - r.Completed
	return r
}

// ProjectLabel is the project name used for grouping.
func ProjectLabel(t model.Task) string {
	if l := t.Project.Label(); l != "" {
		return l
	}
	return UnknownProject
}

// Summary is the dashboard header.
type Summary struct {
	Greeting  string `json:"greeting"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Pending   int    `json:"pending"`
	Upcoming  int    `json:"upcoming"`
	Overdue   int    `json:"overdue"`
}

func Summarize(name string, tasks []model.Task, now time.Time) Summary {
	today := model.DayOf(now)
	s := Summary{Greeting: Greeting(name, now), Total: len(tasks)}
	for _, t := range tasks {
		switch {
		case isDone(t):
			s.Completed++
		case IsOverdue(t, today):
			s.Overdue++
		default:
			s.Upcoming++
		}
	}
	s.Pending = s.Total - s.Completed
	return s
}

// Greeting greets name by time of day; a missing name reads "unknown".
func Greeting(name string, now time.Time) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "unknown"
	}
	part := "evening"
	switch h := now.Hour(); {
	case h < 12:
		part = "morning"
	case h < 18:
		part = "afternoon"
	}
	return "Good " + part + ", " + name
}

// ByProject returns tasks whose project name or id equals project.
func ByProject(tasks []model.Task, project string) []model.Task {
	project = strings.TrimSpace(project)
	return filter(tasks, func(t model.Task) bool {
		if t.Project == nil {
			return false
		}
		return t.Project.Name == project || t.Project.ID == project
	})
}
