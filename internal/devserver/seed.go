package devserver

import (
	"time"

	"github.com/google/uuid"

	"tasklync-cli/internal/model"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password"

// Demo holds the ids created by SeedDemo.
type Demo struct {
	AdminID   string
	MemberID  string
	PendingID string
	ProjectID string
	JoinCode  string
	TaskIDs   []string
}

// SeedDemo loads a small workspace: an admin, a member and a pending user, one
// project and a handful of tasks with due dates around today.
func (s *Server) SeedDemo() Demo {
	s.mu.Lock()
	defer s.mu.Unlock()

	var d Demo
	d.AdminID = s.addUserLocked("Ada Admin", "ada@example.com", DemoPassword, model.RoleAdmin, false)
	d.MemberID = s.addUserLocked("Milo Member", "milo@example.com", DemoPassword, model.RoleMember, false)
	d.PendingID = s.addUserLocked("Pat Pending", "pat@example.com", DemoPassword, model.RolePending, false)

	p := &project{
		Project: model.Project{
			ID:          uuid.NewString(),
			Name:        "Launch",
			CompanyName: "Example Co",
			Code:        newJoinCode(),
		},
		adminID: d.AdminID,
		members: map[string]bool{d.AdminID: true, d.MemberID: true},
	}
	s.projects[p.ID] = p
	d.ProjectID = p.ID
	d.JoinCode = p.Code

	now := s.now().UTC()
	day := func(offset int) *model.Day {
		v := model.DayOf(now.AddDate(0, 0, offset))
		return &v
	}
	seed := []struct {
		title    string
		status   model.Status
		priority model.Priority
		due      *model.Day
		assignee string
	}{
		{"Draft press release", model.StatusTodo, model.PriorityHigh, day(-2), d.MemberID},
		{"Book venue", model.StatusInProgress, model.PriorityMedium, day(3), d.MemberID},
		{"Pick launch date", model.StatusDone, model.PriorityLow, day(-5), d.AdminID},
		{"Write FAQ", model.StatusTodo, model.PriorityMedium, nil, d.AdminID},
	}
	for i, t := range seed {
		id := uuid.NewString()
		s.tasks = append(s.tasks, &task{
			id:         id,
			title:      t.title,
			status:     t.status,
			priority:   t.priority,
			dueDate:    t.due,
			assignedTo: t.assignee,
			projectID:  p.ID,
			createdAt:  now.Add(time.Duration(i) * time.Minute),
		})
		d.TaskIDs = append(d.TaskIDs, id)
	}
	return d
}
