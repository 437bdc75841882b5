package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"tasklync-cli/internal/api"
	"tasklync-cli/internal/app"
	"tasklync-cli/internal/form"
	"tasklync-cli/internal/model"
	"tasklync-cli/internal/mutate"
	"tasklync-cli/internal/taskstore"
)

// Loads are keyed so that a result arriving after its panel was left is
// dropped: task loads by store ticket, everything else by generation.

type projectsMsg struct {
	projects []model.Project
	err      error
}

type dashboardMsg struct {
	gen      int
	projects []model.Project
	tasks    []model.Task
	err      error
}

type tasksMsg struct {
	ticket taskstore.Ticket
	scope  taskstore.Scope
	tasks  []model.Task
	err    error
}

type workspaceMsg struct {
	gen     int
	project model.Project
	ok      bool
	err     error
}

type moveMsg struct {
	attempt mutate.Attempt
	err     error
}

type deleteMsg struct {
	taskID string
	err    error
}

type formDoneMsg struct {
	seq int
	res form.Result
	err error
}

type formLoadedMsg struct {
	seq    int
	values form.Values
	err    error
}

func loadProjectsCmd(ctx context.Context, backend api.Backend) tea.Cmd {
	return func() tea.Msg {
		ps, err := backend.ListProjects(ctx)
		return projectsMsg{projects: ps, err: err}
	}
}

func loadDashboardCmd(ctx context.Context, backend api.Backend, gen int) tea.Cmd {
	return func() tea.Msg {
		ps, ts, err := app.FetchDashboard(ctx, backend)
		return dashboardMsg{gen: gen, projects: ps, tasks: ts, err: err}
	}
}

func loadTasksCmd(ctx context.Context, backend api.Backend, ticket taskstore.Ticket, scope taskstore.Scope, role model.Role, userID string) tea.Cmd {
	return func() tea.Msg {
		effective, ts, err := taskstore.Fetch(ctx, backend, scope, role, userID)
		return tasksMsg{ticket: ticket, scope: effective, tasks: ts, err: err}
	}
}

func loadProjectTasksCmd(ctx context.Context, backend api.Backend, ticket taskstore.Ticket, projectID string) tea.Cmd {
	return func() tea.Msg {
		ts, err := backend.ProjectTasks(ctx, projectID)
		return tasksMsg{ticket: ticket, scope: taskstore.ScopeAll, tasks: ts, err: err}
	}
}

func loadWorkspaceCmd(ctx context.Context, st *app.State, gen int) tea.Cmd {
	return func() tea.Msg {
		p, ok, err := st.CurrentProject(ctx)
		return workspaceMsg{gen: gen, project: p, ok: ok, err: err}
	}
}

func sendMoveCmd(ctx context.Context, backend api.Backend, a mutate.Attempt) tea.Cmd {
	return func() tea.Msg {
		return moveMsg{attempt: a, err: mutate.Send(ctx, backend, a)}
	}
}

func deleteTaskCmd(ctx context.Context, backend api.Backend, taskID string) tea.Cmd {
	return func() tea.Msg {
		return deleteMsg{taskID: taskID, err: backend.DeleteTask(ctx, taskID)}
	}
}

func submitFormCmd(ctx context.Context, f *form.Form, seq int, v form.Values) tea.Cmd {
	return func() tea.Msg {
		res, err := f.Send(ctx, v)
		return formDoneMsg{seq: seq, res: res, err: err}
	}
}

func loadFormCmd(ctx context.Context, f *form.Form, seq int) tea.Cmd {
	return func() tea.Msg {
		v, err := f.Fetch(ctx)
		return formLoadedMsg{seq: seq, values: v, err: err}
	}
}
