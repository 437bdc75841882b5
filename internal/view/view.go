// Package view is the client's router: it maps a view tag to the panel to
// render, gated by the session.
package view

import (
	"errors"
	"strings"

	"tasklync-cli/internal/model"
	"tasklync-cli/internal/perm"
	"tasklync-cli/internal/session"
)

// Tag selects a view. The zero value renders as home.
type Tag string

const (
	Home       Tag = "home"
	Tasks      Tag = "tasks"
	Inbox      Tag = "inbox"
	Reporting  Tag = "reporting"
	Portfolios Tag = "portfolios"
	Goals      Tag = "goals"
	Workspace  Tag = "workspace"

	projectPrefix = "project-"
)

// ProjectTag is the view tag of a project detail panel.
func ProjectTag(name string) Tag { return Tag(projectPrefix + name) }

type Kind string

const (
	KindHome            Kind = "home"
	KindTasks           Kind = "tasks"
	KindInbox           Kind = "inbox"
	KindReporting       Kind = "reporting"
	KindPortfolios      Kind = "portfolios"
	KindGoals           Kind = "goals"
	KindWorkspace       Kind = "workspace"
	KindProject         Kind = "project"
	KindLogin           Kind = "login"
	KindSetPassword     Kind = "set-password"
	KindSelectWorkspace Kind = "select-workspace"
)

// Panel is what to render. Project is set for KindProject.
type Panel struct {
	Kind    Kind   `json:"kind"`
	Project string `json:"project,omitempty"`
}

// Resolve maps tag to a panel. Unknown tags fall back to home. Admin-only
// views still resolve for other roles: only the navigation hides them.
func Resolve(tag Tag, role model.Role) Panel {
	switch tag {
	case Home, "":
		return Panel{Kind: KindHome}
	case Tasks:
		return Panel{Kind: KindTasks}
	case Inbox:
		return Panel{Kind: KindInbox}
	case Reporting:
		return Panel{Kind: KindReporting}
	case Portfolios:
		return Panel{Kind: KindPortfolios}
	case Goals:
		return Panel{Kind: KindGoals}
	case Workspace:
		return Panel{Kind: KindWorkspace}
	}
	if name, ok := strings.CutPrefix(string(tag), projectPrefix); ok && strings.TrimSpace(name) != "" {
		return Panel{Kind: KindProject, Project: name}
	}
	return Panel{Kind: KindHome}
}

// Gate is the session view the router needs.
type Gate interface {
	Require() error
	Role() model.Role
}

// Router holds the active view. SetActiveView is its only mutator.
type Router struct {
	gate   Gate
	active Tag
}

func NewRouter(gate Gate) *Router {
	return &Router{gate: gate, active: Home}
}

func (r *Router) SetActiveView(tag Tag) { r.active = tag }

func (r *Router) Active() Tag {
	if r.active == "" {
		return Home
	}
	return r.active
}

// Current is the panel to render now. Signed-out sessions get the login
// panel and a pending password replacement gets the set-password panel,
// whatever the active view.
func (r *Router) Current() Panel {
	if err := r.gate.Require(); err != nil {
		if errors.Is(err, session.ErrPasswordResetRequired) {
			return Panel{Kind: KindSetPassword}
		}
		return Panel{Kind: KindLogin}
	}
	return Resolve(r.Active(), r.gate.Role())
}

// Entry is one navigation affordance.
type Entry struct {
	Tag   Tag    `json:"tag,omitempty"`
	Label string `json:"label"`
	// Action is set for onboarding entries that open a form instead of a view.
	Action string `json:"action,omitempty"`
}

const (
	ActionJoin   = "join"
	ActionCreate = "create"
)

// Nav lists the navigation entries for role: the fixed views, insights for
// admins, one entry per project, the workspace view, and join/create for
// pending users.
func Nav(role model.Role, projects []model.Project) []Entry {
	out := []Entry{
		{Tag: Home, Label: "Home"},
		{Tag: Tasks, Label: "My Tasks"},
		{Tag: Inbox, Label: "Inbox"},
	}
	if perm.Can(role, perm.ViewInsights) {
		out = append(out,
			Entry{Tag: Reporting, Label: "Reporting"},
			Entry{Tag: Portfolios, Label: "Portfolios"},
			Entry{Tag: Goals, Label: "Goals"},
		)
	}
	if perm.Can(role, perm.CreateProject) {
		out = append(out, Entry{Label: "New project", Action: ActionCreate})
	}
	for _, p := range projects {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		out = append(out, Entry{Tag: ProjectTag(p.Name), Label: p.Name})
	}
	out = append(out, Entry{Tag: Workspace, Label: "My Workspace"})
	if perm.Can(role, perm.SelectWorkspace) {
		out = append(out,
			Entry{Label: "Join Workspace", Action: ActionJoin},
			Entry{Label: "Create Workspace", Action: ActionCreate},
		)
	}
	return out
}
