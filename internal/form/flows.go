package form

import (
	"context"
	"fmt"
	"strings"

	"tasklync-cli/internal/api"
	"tasklync-cli/internal/model"
	"tasklync-cli/internal/session"
	"tasklync-cli/internal/statusutil"
	"tasklync-cli/internal/store"
	"tasklync-cli/internal/view"
)

// Field names shared by the flows below.
const (
	FieldName           = "name"
	FieldEmail          = "email"
	FieldPassword       = "password"
	FieldConfirm        = "confirm"
	FieldCode           = "code"
	FieldCompanyName    = "companyName"
	FieldCompanyEmail   = "companyEmail"
	FieldCompanyAddress = "companyAddress"
	FieldTitle          = "title"
	FieldDescription    = "description"
	FieldAssignee       = "assignedTo"
	FieldAssigneeEmail  = "assignedEmail"
	FieldPriority       = "priority"
	FieldDueDate        = "dueDate"
)

func Login(sess *session.Manager) *Form {
	return New("Welcome back", []Field{
		{Name: FieldEmail, Label: "Email", Required: true},
		{Name: FieldPassword, Label: "Password", Required: true, Secret: true},
	}, "login Failed", func(ctx context.Context, v Values) (Result, error) {
		route, err := sess.Login(ctx, v.Get(FieldEmail), v[FieldPassword])
		if err != nil {
			return Result{}, err
		}
		return Result{Next: string(route)}, nil
	})
}

func Signup(sess *session.Manager) *Form {
	return New("Create your account", []Field{
		{Name: FieldName, Label: "Name", Required: true},
		{Name: FieldEmail, Label: "Email", Required: true},
		{Name: FieldPassword, Label: "Password", Required: true, Secret: true},
	}, "Signup failed", func(ctx context.Context, v Values) (Result, error) {
		route, err := sess.Signup(ctx, v.Get(FieldName), v.Get(FieldEmail), v[FieldPassword])
		if err != nil {
			return Result{}, err
		}
		return Result{Next: string(route)}, nil
	})
}

func workspaceFields() []Field {
	return []Field{
		{Name: FieldName, Label: "Workspace name", Placeholder: "e.g., Project Alpha", Required: true},
		{Name: FieldCompanyName, Label: "Company name", Placeholder: "e.g., TechNova Pvt Ltd"},
		{Name: FieldCompanyEmail, Label: "Company email", Placeholder: "e.g., contact@technova.com"},
		{Name: FieldCompanyAddress, Label: "Company address", Placeholder: "e.g., Hyderabad, India"},
	}
}

func projectInput(v Values) api.ProjectInput {
	return api.ProjectInput{
		Name:           v.Get(FieldName),
		CompanyName:    v.Get(FieldCompanyName),
		CompanyEmail:   v.Get(FieldCompanyEmail),
		CompanyAddress: v.Get(FieldCompanyAddress),
	}
}

// CreateWorkspace makes the creator the workspace admin and remembers the
// new workspace's join code.
func CreateWorkspace(backend api.Backend, sess *session.Manager) *Form {
	return New("Create Workspace", workspaceFields(), "Failed to create workspace",
		func(ctx context.Context, v Values) (Result, error) {
			p, err := backend.CreateProject(ctx, projectInput(v))
			if err != nil {
				return Result{}, err
			}
			if err := sess.SetRole(ctx, model.RoleAdmin); err != nil {
				return Result{}, err
			}
			return Result{
				Next: string(view.Home),
				Persist: []Persist{
					{Key: store.KeyJoinCode, Value: p.Code},
					{Key: store.KeyProjectID, Value: p.ID},
				},
				Data: p,
			}, nil
		})
}

// EditWorkspace loads the workspace by id before it accepts a submit.
func EditWorkspace(backend api.Backend, projectID string) *Form {
	load := func(ctx context.Context) (Values, error) {
		p, err := backend.ProjectDetails(ctx, projectID)
		if err != nil {
			return nil, err
		}
		return Values{
			FieldName:           p.Name,
			FieldCompanyName:    p.CompanyName,
			FieldCompanyEmail:   p.CompanyEmail,
			FieldCompanyAddress: p.CompanyAddress,
		}, nil
	}
	return NewEdit("Edit Workspace", workspaceFields(), "Failed to update workspace", load,
		func(ctx context.Context, v Values) (Result, error) {
			p, err := backend.UpdateProject(ctx, projectID, projectInput(v))
			if err != nil {
				return Result{}, err
			}
			return Result{Next: string(view.Workspace), Data: p}, nil
		})
}

// JoinWorkspace joins by code. A pending user becomes a member.
func JoinWorkspace(backend api.Backend, sess *session.Manager) *Form {
	return New("Join Workspace", []Field{
		{Name: FieldCode, Label: "Workspace code", Placeholder: "e.g., ALPHA123", Required: true},
	}, "Failed to join workspace", func(ctx context.Context, v Values) (Result, error) {
		p, err := backend.JoinProject(ctx, v.Get(FieldCode))
		if err != nil {
			return Result{}, err
		}
		if sess.Role() == model.RolePending {
			if err := sess.SetRole(ctx, model.RoleMember); err != nil {
				return Result{}, err
			}
		}
		return Result{
			Next:    string(view.Home),
			Persist: []Persist{{Key: store.KeyProjectID, Value: p.ID}},
			Data:    p,
		}, nil
	})
}

// CreateTask adds a task to a project, assigned to an existing user id or
// invited by email. The flow returns to the project's view.
func CreateTask(backend api.Backend, project model.Project) *Form {
	return New("New Task", []Field{
		{Name: FieldTitle, Label: "Title", Required: true},
		{Name: FieldDescription, Label: "Description"},
		{Name: FieldAssignee, Label: "Assignee id"},
		{Name: FieldAssigneeEmail, Label: "Or invite by email"},
		{Name: FieldPriority, Label: "Priority", Placeholder: "Low | Medium | High"},
		{Name: FieldDueDate, Label: "Due date", Placeholder: "YYYY-MM-DD"},
	}, "Failed to create task", func(ctx context.Context, v Values) (Result, error) {
		in, err := TaskInput(project.ID, v)
		if err != nil {
			return Result{}, err
		}
		created, err := backend.CreateTask(ctx, in)
		if err != nil {
			return Result{}, err
		}
		return Result{Next: string(view.ProjectTag(project.Name)), Data: created}, nil
	})
}

// TaskInput converts form values into a create-task body.
func TaskInput(projectID string, v Values) (api.TaskInput, error) {
	priority, err := statusutil.NormalizePriority(v.Get(FieldPriority))
	if err != nil {
		return api.TaskInput{}, err
	}
	in := api.TaskInput{
		Title:       v.Get(FieldTitle),
		Description: v.Get(FieldDescription),
		Project:     strings.TrimSpace(projectID),
		Priority:    priority,
	}
	if id := v.Get(FieldAssignee); id != "" {
		in.AssignedTo = &id
	} else if email := v.Get(FieldAssigneeEmail); email != "" {
		in.AssignedEmail = &email
	}
	if raw := v.Get(FieldDueDate); raw != "" {
		d, ok := model.ParseDay(raw)
		if !ok {
			return api.TaskInput{}, fmt.Errorf("invalid due date %q (want YYYY-MM-DD)", raw)
		}
		in.DueDate = &d
	}
	return in, nil
}

// AcceptInvite has no fields; submitting accepts the invite and goes to
// login with the invited email.
func AcceptInvite(sess *session.Manager, token string) *Form {
	return New("You're invited", nil, "Failed", func(ctx context.Context, v Values) (Result, error) {
		acc, err := sess.AcceptInvite(ctx, token)
		if err != nil {
			return Result{}, err
		}
		return Result{Next: string(session.RouteLogin), Data: acc}, nil
	})
}

// SetPassword replaces the password of userID (the signed-in user when
// empty) and sends the user back to login.
func SetPassword(sess *session.Manager, userID string) *Form {
	return New("Set your password", []Field{
		{Name: FieldPassword, Label: "New password", Required: true, Secret: true},
		{Name: FieldConfirm, Label: "Confirm password", Required: true, Secret: true},
	}, "Failed to set password", func(ctx context.Context, v Values) (Result, error) {
		route, err := sess.SetPassword(ctx, userID, v[FieldPassword], v[FieldConfirm])
		if err != nil {
			return Result{}, err
		}
		return Result{Next: string(route)}, nil
	})
}
