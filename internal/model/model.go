package model

import (
	"encoding/json"
	"strings"
	"time"
)

type Role string

const (
	RolePending Role = "pending"
	RoleMember  Role = "member"
	RoleAdmin   Role = "admin"
)

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Statuses is the kanban column order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

type User struct {
	ID                 string `json:"_id"`
	Name               string `json:"name,omitempty"`
	Email              string `json:"email,omitempty"`
	Role               Role   `json:"role,omitempty"`
	NeedsPasswordReset bool   `json:"needsPasswordReset,omitempty"`
}

type Project struct {
	ID             string `json:"_id"`
	Name           string `json:"name"`
	CompanyName    string `json:"companyName,omitempty"`
	CompanyEmail   string `json:"companyEmail,omitempty"`
	CompanyAddress string `json:"companyAddress,omitempty"`
	Code           string `json:"code,omitempty"`
}

// UserRef is a task assignee. The backend sends either a populated user object
// or a bare user id.
type UserRef struct {
	ID   string `json:"_id"`
	Name string `json:"name,omitempty"`
}

func (u *UserRef) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		*u = UserRef{ID: id}
		return nil
	}
	type wire UserRef
	var w wire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*u = UserRef(w)
	return nil
}

// ProjectRef is a task's project: a populated object or a bare string.
type ProjectRef struct {
	ID   string `json:"_id,omitempty"`
	Name string `json:"name,omitempty"`
}

func (p *ProjectRef) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = ProjectRef{ID: s}
		return nil
	}
	type wire ProjectRef
	var w wire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*p = ProjectRef(w)
	return nil
}

// Label is the name used when grouping tasks by project.
func (p *ProjectRef) Label() string {
	if p == nil {
		return ""
	}
	if n := strings.TrimSpace(p.Name); n != "" {
		return n
	}
	return strings.TrimSpace(p.ID)
}

type Task struct {
	ID          string      `json:"_id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Status      Status      `json:"status"`
	Priority    Priority    `json:"priority,omitempty"`
	DueDate     *Day        `json:"dueDate,omitempty"`
	AssignedTo  *UserRef    `json:"assignedTo,omitempty"`
	Project     *ProjectRef `json:"project,omitempty"`
	CreatedAt   *time.Time  `json:"createdAt,omitempty"`
}

// AssignedToUser reports whether the task is assigned to userID.
func (t Task) AssignedToUser(userID string) bool {
	userID = strings.TrimSpace(userID)
	return userID != "" && t.AssignedTo != nil && strings.TrimSpace(t.AssignedTo.ID) == userID
}

// Clone returns a deep copy, so snapshots never alias the live cache.
func (t Task) Clone() Task {
	out := t
	if t.DueDate != nil {
		d := *t.DueDate
		out.DueDate = &d
	}
	if t.AssignedTo != nil {
		a := *t.AssignedTo
		out.AssignedTo = &a
	}
	if t.Project != nil {
		p := *t.Project
		out.Project = &p
	}
	if t.CreatedAt != nil {
		c := *t.CreatedAt
		out.CreatedAt = &c
	}
	return out
}

// Session is the authenticated identity of the current user.
type Session struct {
	Token              string `json:"-"`
	UserID             string `json:"userId,omitempty"`
	UserName           string `json:"userName,omitempty"`
	Email              string `json:"email,omitempty"`
	Role               Role   `json:"role,omitempty"`
	RoleResolved       bool   `json:"roleResolved"`
	NeedsPasswordReset bool   `json:"needsPasswordReset,omitempty"`
}

func (s Session) Authenticated() bool { return strings.TrimSpace(s.Token) != "" }

// EffectiveRole is pending until the role lookup has completed.
func (s Session) EffectiveRole() Role {
	if !s.RoleResolved {
		return RolePending
	}
	switch s.Role {
	case RoleAdmin, RoleMember:
		return s.Role
	default:
		return RolePending
	}
}

// Due returns the task's due day, if it has a usable one.
func (t Task) Due() (Day, bool) {
	if t.DueDate == nil || *t.DueDate == "" {
		return "", false
	}
	return *t.DueDate, true
}
