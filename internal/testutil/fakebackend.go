// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"tasklync-cli/internal/api"
	"tasklync-cli/internal/model"
)

// FakeBackend is an in-memory implementation of api.Backend for testing.
// It does not check tokens; ActingUser decides whose tasks ListTasks returns.
type FakeBackend struct {
	mu        sync.Mutex
	users     map[string]model.User
	passwords map[string]string
	projects  []model.Project
	tasks     []model.Task
	calls     map[string]int
	nextID    int

	// ActingUser scopes ListTasks to tasks of the user's projects. Empty means
	// every task.
	ActingUser string
	// Member project ids per user; used with ActingUser.
	Members map[string][]string

	// Error injection for testing
	LoginErr          error
	SignupErr         error
	SetPasswordErr    error
	UserDetailsErr    error
	ListUsersErr      error
	CreateProjectErr  error
	UpdateProjectErr  error
	ListProjectsErr   error
	ProjectDetailsErr error
	DeleteProjectErr  error
	JoinProjectErr    error
	ListTasksErr      error
	ProjectTasksErr   error
	CreateTaskErr     error
	UpdateTaskErr     error
	DeleteTaskErr     error
	VerifyInviteErr   error
	AcceptInviteErr   error

	// UpdateTaskHook, when set, runs before UpdateTask applies the patch and
	// its error is returned instead.
	UpdateTaskHook func(id string, patch api.TaskPatch) error
}

var _ api.Backend = (*FakeBackend)(nil)

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		users:     map[string]model.User{},
		passwords: map[string]string{},
		calls:     map[string]int{},
		Members:   map[string][]string{},
	}
}

// Calls returns how many times the named method ran.
func (f *FakeBackend) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *FakeBackend) record(method string) {
	f.mu.Lock()
	f.calls[method]++
	f.mu.Unlock()
}

// AddUser registers a user with a password.
func (f *FakeBackend) AddUser(u model.User, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
	f.passwords[strings.ToLower(u.Email)] = password
}

func (f *FakeBackend) AddProject(p model.Project) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects = append(f.projects, p)
}

func (f *FakeBackend) AddTask(t model.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, t.Clone())
}

// Task returns the backend's copy of a task.
func (f *FakeBackend) Task(id string) (model.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return model.Task{}, false
}

func (f *FakeBackend) newID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *FakeBackend) token(uid string) string { return "tok-" + uid }

// Login implements api.Backend.
func (f *FakeBackend) Login(ctx context.Context, email, password string) (api.AuthResult, error) {
	f.record("Login")
	if f.LoginErr != nil {
		return api.AuthResult{}, f.LoginErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	pw, ok := f.passwords[email]
	if !ok || pw != password {
		return api.AuthResult{}, &api.APIError{Op: "login", Status: 401, Message: "Invalid email or password"}
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return api.AuthResult{Token: f.token(u.ID), User: u}, nil
		}
	}
	return api.AuthResult{}, &api.APIError{Op: "login", Status: 401, Message: "Invalid email or password"}
}

// Signup implements api.Backend.
func (f *FakeBackend) Signup(ctx context.Context, name, email, password string) (api.AuthResult, error) {
	f.record("Signup")
	if f.SignupErr != nil {
		return api.AuthResult{}, f.SignupErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	if _, exists := f.passwords[email]; exists {
		return api.AuthResult{}, &api.APIError{Op: "signup", Status: 409, Message: "User already exists"}
	}
	u := model.User{ID: f.newID("user"), Name: name, Email: email, Role: model.RolePending}
	f.users[u.ID] = u
	f.passwords[email] = password
	return api.AuthResult{Token: f.token(u.ID), User: u}, nil
}

// SetPassword implements api.Backend.
func (f *FakeBackend) SetPassword(ctx context.Context, userID, password string) error {
	f.record("SetPassword")
	if f.SetPasswordErr != nil {
		return f.SetPasswordErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return &api.APIError{Op: "set password", Status: 404, Message: "User not found"}
	}
	u.NeedsPasswordReset = false
	f.users[userID] = u
	f.passwords[strings.ToLower(u.Email)] = password
	return nil
}

// UserDetails implements api.Backend.
func (f *FakeBackend) UserDetails(ctx context.Context, userID string) (model.User, error) {
	f.record("UserDetails")
	if f.UserDetailsErr != nil {
		return model.User{}, f.UserDetailsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return model.User{}, &api.APIError{Op: "user details", Status: 404, Message: "User not found"}
	}
	return u, nil
}

// ListUsers implements api.Backend.
func (f *FakeBackend) ListUsers(ctx context.Context) ([]model.User, error) {
	f.record("ListUsers")
	if f.ListUsersErr != nil {
		return nil, f.ListUsersErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateProject implements api.Backend.
func (f *FakeBackend) CreateProject(ctx context.Context, in api.ProjectInput) (model.Project, error) {
	f.record("CreateProject")
	if f.CreateProjectErr != nil {
		return model.Project{}, f.CreateProjectErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := model.Project{
		ID:             f.newID("project"),
		Name:           in.Name,
		CompanyName:    in.CompanyName,
		CompanyEmail:   in.CompanyEmail,
		CompanyAddress: in.CompanyAddress,
		Code:           strings.ToUpper(f.newID("code")),
	}
	f.projects = append(f.projects, p)
	return p, nil
}

// UpdateProject implements api.Backend.
func (f *FakeBackend) UpdateProject(ctx context.Context, id string, in api.ProjectInput) (model.Project, error) {
	f.record("UpdateProject")
	if f.UpdateProjectErr != nil {
		return model.Project{}, f.UpdateProjectErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.projects {
		if p.ID != id {
			continue
		}
		p.Name = in.Name
		p.CompanyName = in.CompanyName
		p.CompanyEmail = in.CompanyEmail
		p.CompanyAddress = in.CompanyAddress
		f.projects[i] = p
		return p, nil
	}
	return model.Project{}, &api.APIError{Op: "update project", Status: 404, Message: "Project not found"}
}

// ListProjects implements api.Backend.
func (f *FakeBackend) ListProjects(ctx context.Context) ([]model.Project, error) {
	f.record("ListProjects")
	if f.ListProjectsErr != nil {
		return nil, f.ListProjectsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Project, len(f.projects))
	copy(out, f.projects)
	return out, nil
}

// ProjectDetails implements api.Backend.
func (f *FakeBackend) ProjectDetails(ctx context.Context, id string) (model.Project, error) {
	f.record("ProjectDetails")
	if f.ProjectDetailsErr != nil {
		return model.Project{}, f.ProjectDetailsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Project{}, &api.APIError{Op: "project details", Status: 404, Message: "Project not found"}
}

// DeleteProject implements api.Backend.
func (f *FakeBackend) DeleteProject(ctx context.Context, id string) error {
	f.record("DeleteProject")
	if f.DeleteProjectErr != nil {
		return f.DeleteProjectErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.projects {
		if p.ID == id {
			f.projects = append(f.projects[:i], f.projects[i+1:]...)
			return nil
		}
	}
	return &api.APIError{Op: "delete project", Status: 404, Message: "Project not found"}
}

// JoinProject implements api.Backend.
func (f *FakeBackend) JoinProject(ctx context.Context, code string) (model.Project, error) {
	f.record("JoinProject")
	if f.JoinProjectErr != nil {
		return model.Project{}, f.JoinProjectErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.projects {
		if strings.EqualFold(p.Code, strings.TrimSpace(code)) {
			return p, nil
		}
	}
	return model.Project{}, &api.APIError{Op: "join project", Status: 404, Message: "Invalid workspace code"}
}

// ListTasks implements api.Backend.
func (f *FakeBackend) ListTasks(ctx context.Context) ([]model.Task, error) {
	f.record("ListTasks")
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	allowed := map[string]bool{}
	for _, id := range f.Members[f.ActingUser] {
		allowed[id] = true
	}
	out := make([]model.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		if f.ActingUser != "" && !t.AssignedToUser(f.ActingUser) && (t.Project == nil || !allowed[t.Project.ID]) {
			continue
		}
		out = append(out, t.Clone())
	}
	return out, nil
}

// ProjectTasks implements api.Backend.
func (f *FakeBackend) ProjectTasks(ctx context.Context, projectID string) ([]model.Task, error) {
	f.record("ProjectTasks")
	if f.ProjectTasksErr != nil {
		return nil, f.ProjectTasksErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Task, 0)
	for _, t := range f.tasks {
		if t.Project != nil && t.Project.ID == projectID {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

// CreateTask implements api.Backend.
func (f *FakeBackend) CreateTask(ctx context.Context, in api.TaskInput) (api.CreatedTask, error) {
	f.record("CreateTask")
	if f.CreateTaskErr != nil {
		return api.CreatedTask{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	t := model.Task{
		ID:          f.newID("task"),
		Title:       in.Title,
		Description: in.Description,
		Status:      model.StatusTodo,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		Project:     &model.ProjectRef{ID: in.Project},
		CreatedAt:   &now,
	}
	for _, p := range f.projects {
		if p.ID == in.Project {
			t.Project.Name = p.Name
		}
	}
	var out api.CreatedTask
	switch {
	case in.AssignedTo != nil && *in.AssignedTo != "":
		t.AssignedTo = &model.UserRef{ID: *in.AssignedTo, Name: f.users[*in.AssignedTo].Name}
	case in.AssignedEmail != nil && *in.AssignedEmail != "":
		u := model.User{ID: f.newID("user"), Email: *in.AssignedEmail, Role: model.RoleMember, NeedsPasswordReset: true}
		f.users[u.ID] = u
		f.passwords[strings.ToLower(u.Email)] = "temp-" + u.ID
		t.AssignedTo = &model.UserRef{ID: u.ID}
		out.Invite = &api.IssuedInvite{Token: "invite-" + u.ID, TempPassword: "temp-" + u.ID}
	}
	f.tasks = append(f.tasks, t)
	out.Task = t.Clone()
	return out, nil
}

// UpdateTask implements api.Backend.
func (f *FakeBackend) UpdateTask(ctx context.Context, id string, patch api.TaskPatch) error {
	f.record("UpdateTask")
	if f.UpdateTaskHook != nil {
		if err := f.UpdateTaskHook(id, patch); err != nil {
			return err
		}
	}
	if f.UpdateTaskErr != nil {
		return f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID != id {
			continue
		}
		if patch.Title != nil {
			t.Title = *patch.Title
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Status != nil {
			t.Status = *patch.Status
		}
		if patch.Priority != nil {
			t.Priority = *patch.Priority
		}
		if patch.DueDate != nil {
			d := *patch.DueDate
			t.DueDate = &d
		}
		f.tasks[i] = t
		return nil
	}
	return &api.APIError{Op: "update task", Status: 404, Message: "Task not found"}
}

// DeleteTask implements api.Backend.
func (f *FakeBackend) DeleteTask(ctx context.Context, id string) error {
	f.record("DeleteTask")
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return &api.APIError{Op: "delete task", Status: 404, Message: "Task not found"}
}

// VerifyInvite implements api.Backend.
func (f *FakeBackend) VerifyInvite(ctx context.Context, token string) (api.Invite, error) {
	f.record("VerifyInvite")
	if f.VerifyInviteErr != nil {
		return api.Invite{}, f.VerifyInviteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[strings.TrimPrefix(token, "invite-")]
	if !ok {
		return api.Invite{}, &api.APIError{Op: "verify invite", Status: 404, Message: "Invite is invalid or expired"}
	}
	return api.Invite{Email: u.Email}, nil
}

// AcceptInvite implements api.Backend.
func (f *FakeBackend) AcceptInvite(ctx context.Context, token string) (api.InviteAcceptance, error) {
	f.record("AcceptInvite")
	if f.AcceptInviteErr != nil {
		return api.InviteAcceptance{}, f.AcceptInviteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[strings.TrimPrefix(token, "invite-")]
	if !ok {
		return api.InviteAcceptance{}, &api.APIError{Op: "accept invite", Status: 404, Message: "Invite is invalid or expired"}
	}
	return api.InviteAcceptance{Email: u.Email, UserID: u.ID}, nil
}
