// Package perm maps workspace roles to what the client lets them do.
//
// Checks are affordance-level only: the backend enforces the real rules.
package perm

import "tasklync-cli/internal/model"

type Capability int

const (
	// ViewInsights covers the reporting, portfolios and goals views.
	ViewInsights Capability = iota
	// ManageTasks is creating and deleting tasks in a project.
	ManageTasks
	// CreateProject shows the "create" affordance in the project list.
	CreateProject
	EditProject
	// SeeAllTasks widens the task scope from "assigned to me" to every task
	// the backend returns.
	SeeAllTasks
	// SelectWorkspace is the join/create onboarding for pending users.
	SelectWorkspace
	MoveTasks
)

func (c Capability) String() string {
	switch c {
	case ViewInsights:
		return "view-insights"
	case ManageTasks:
		return "manage-tasks"
	case CreateProject:
		return "create-project"
	case EditProject:
		return "edit-project"
	case SeeAllTasks:
		return "see-all-tasks"
	case SelectWorkspace:
		return "select-workspace"
	case MoveTasks:
		return "move-tasks"
	default:
		return "unknown"
	}
}

// Can reports whether role holds capability c.
func Can(role model.Role, c Capability) bool {
	switch role {
	case model.RoleAdmin:
		return c != SelectWorkspace
	case model.RoleMember:
		return c == MoveTasks
	case model.RolePending:
		return c == SelectWorkspace || c == MoveTasks
	default:
		return false
	}
}

// Capabilities lists every capability role holds, in declaration order.
func Capabilities(role model.Role) []Capability {
	var out []Capability
	for c := ViewInsights; c <= MoveTasks; c++ {
		if Can(role, c) {
			out = append(out, c)
		}
	}
	return out
}
