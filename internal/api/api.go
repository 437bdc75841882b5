// Package api is the client side of the TaskLync REST backend.
//
// Everything else in the client talks to the backend through Backend; the HTTP
// implementation lives in Client and an in-memory one in internal/testutil.
package api

import (
	"context"

	"tasklync-cli/internal/model"
)

type Backend interface {
	Login(ctx context.Context, email, password string) (AuthResult, error)
	Signup(ctx context.Context, name, email, password string) (AuthResult, error)
	SetPassword(ctx context.Context, userID, password string) error
	UserDetails(ctx context.Context, userID string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)

	CreateProject(ctx context.Context, in ProjectInput) (model.Project, error)
	UpdateProject(ctx context.Context, id string, in ProjectInput) (model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	ProjectDetails(ctx context.Context, id string) (model.Project, error)
	DeleteProject(ctx context.Context, id string) error
	JoinProject(ctx context.Context, code string) (model.Project, error)

	// ListTasks returns the tasks visible to the bearer; the backend scopes them by token.
	ListTasks(ctx context.Context) ([]model.Task, error)
	ProjectTasks(ctx context.Context, projectID string) ([]model.Task, error)
	CreateTask(ctx context.Context, in TaskInput) (CreatedTask, error)
	UpdateTask(ctx context.Context, id string, patch TaskPatch) error
	DeleteTask(ctx context.Context, id string) error

	VerifyInvite(ctx context.Context, token string) (Invite, error)
	AcceptInvite(ctx context.Context, token string) (InviteAcceptance, error)
}

type AuthResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

type ProjectInput struct {
	Name           string `json:"name"`
	CompanyName    string `json:"companyName"`
	CompanyEmail   string `json:"companyEmail"`
	CompanyAddress string `json:"companyAddress"`
}

// TaskInput is the create-task body. Exactly one of AssignedTo (existing user id)
// or AssignedEmail (invite a new user) is normally set.
type TaskInput struct {
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Project       string         `json:"project"`
	AssignedTo    *string        `json:"assignedTo"`
	AssignedEmail *string        `json:"assignedEmail"`
	Priority      model.Priority `json:"priority"`
	DueDate       *model.Day     `json:"dueDate"`
}

// TaskPatch is a partial update; nil fields are omitted from the body.
type TaskPatch struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Status      *model.Status   `json:"status,omitempty"`
	Priority    *model.Priority `json:"priority,omitempty"`
	DueDate     *model.Day      `json:"dueDate,omitempty"`
}

// CreatedTask is the create-task response. Invite is set when the assignee
// was invited by email and did not have an account yet.
type CreatedTask struct {
	Task   model.Task    `json:"task"`
	Invite *IssuedInvite `json:"invite,omitempty"`
}

type IssuedInvite struct {
	Token        string `json:"token"`
	TempPassword string `json:"tempPassword,omitempty"`
}

type Invite struct {
	Email     string `json:"email"`
	ProjectID string `json:"projectId,omitempty"`
}

type InviteAcceptance struct {
	Email  string `json:"email"`
	UserID string `json:"userId"`
}
