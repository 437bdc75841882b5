package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tasklync-cli/internal/api"
	appstate "tasklync-cli/internal/app"
	"tasklync-cli/internal/derive"
	"tasklync-cli/internal/form"
	"tasklync-cli/internal/model"
	"tasklync-cli/internal/mutate"
	"tasklync-cli/internal/perm"
	"tasklync-cli/internal/statusutil"
	"tasklync-cli/internal/taskstore"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Task commands",
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksBoardCmd(app))
	cmd.AddCommand(newTasksInboxCmd(app))
	cmd.AddCommand(newTasksCreateCmd(app))
	cmd.AddCommand(newTasksDeleteCmd(app))
	cmd.AddCommand(newTasksMoveCmd(app))
	return cmd
}

// taskRow is a task plus its relative due label.
type taskRow struct {
	model.Task
	DueLabel string `json:"dueLabel,omitempty"`
}

func taskRows(st *appstate.State, tasks []model.Task) []taskRow {
	now := st.Now()
	out := make([]taskRow, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskRow{Task: t, DueLabel: derive.DueLabel(t, now)})
	}
	return out
}

// defaultScope is "all" for roles that may see every task, else "mine".
func defaultScope(st *appstate.State, raw string) (taskstore.Scope, error) {
	if strings.TrimSpace(raw) == "" {
		if perm.Can(st.Session.Role(), perm.SeeAllTasks) {
			return taskstore.ScopeAll, nil
		}
		return taskstore.ScopeMine, nil
	}
	return taskstore.ParseScope(raw)
}

// loadTasks fills the task cache for a project or a scope.
func loadTasks(ctx context.Context, st *appstate.State, project, rawScope string) error {
	if strings.TrimSpace(project) != "" {
		p, err := findProject(ctx, st, project)
		if err != nil {
			return err
		}
		return st.Tasks.LoadProject(ctx, st.Backend, p.ID)
	}
	scope, err := defaultScope(st, rawScope)
	if err != nil {
		return err
	}
	return st.LoadTasks(ctx, scope)
}

func newTasksListCmd(app *App) *cobra.Command {
	var scope, project, filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, st *appstate.State) error {
				if err := loadTasks(ctx, st, project, scope); err != nil {
					return err
				}
				tasks := st.Tasks.Tasks()
				switch strings.ToLower(strings.TrimSpace(filter)) {
				case "":
				case "upcoming":
					tasks = derive.Upcoming(tasks, st.Today())
				case "overdue":
					tasks = derive.Overdue(tasks, st.Today())
				case "completed", "done":
					tasks = derive.Completed(tasks)
				default:
					return fmt.Errorf("invalid filter %q (want upcoming|overdue|completed)", filter)
				}
				return writeOut(cmd, app, map[string]any{
					"data":   taskRows(st, tasks),
					"_scope": st.Tasks.Scope(),
				})
			})
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "", "mine|all (default: all for admins, mine otherwise)")
	cmd.Flags().StringVar(&project, "project", "", "Only tasks of this project (name or id)")
	cmd.Flags().StringVar(&filter, "filter", "", "upcoming|overdue|completed")
	return cmd
}

func newTasksBoardCmd(app *App) *cobra.Command {
	var scope, project string

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show tasks as kanban columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, st *appstate.State) error {
				if err := loadTasks(ctx, st, project, scope); err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": derive.Kanban(st.Tasks.Tasks())})
			})
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "", "mine|all (default: all for admins, mine otherwise)")
	cmd.Flags().StringVar(&project, "project", "", "Only tasks of this project (name or id)")
	return cmd
}

func newTasksInboxCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "inbox",
		Short: "Overdue tasks and tasks assigned to you",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, st *appstate.State) error {
				if err := st.LoadTasks(ctx, taskstore.ScopeMine); err != nil {
					return err
				}
				tasks := st.Tasks.Tasks()
				return writeOut(cmd, app, map[string]any{"data": map[string]any{
					"overdue":  taskRows(st, derive.Overdue(tasks, st.Today())),
					"assigned": taskRows(st, derive.Inbox(tasks, st.Session.Current().UserID)),
				}})
			})
		},
	}
}

func newTasksCreateCmd(app *App) *cobra.Command {
	var project, title, description, assignee, assigneeEmail, priority, due string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task in a project (admins)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, st *appstate.State) error {
				if !perm.Can(st.Session.Role(), perm.ManageTasks) {
					return errPermission(perm.ManageTasks)
				}
				p, err := findProject(ctx, st, project)
				if err != nil {
					return err
				}
				res, err := submitForm(ctx, form.CreateTask(st.Backend, p), form.Values{
					form.FieldTitle:         title,
					form.FieldDescription:   description,
					form.FieldAssignee:      assignee,
					form.FieldAssigneeEmail: assigneeEmail,
					form.FieldPriority:      priority,
					form.FieldDueDate:       due,
				})
				if err != nil {
					return err
				}
				out := map[string]any{"data": res.Data}
				if created, ok := res.Data.(api.CreatedTask); ok && created.Invite != nil {
					out["_hints"] = []string{"tasklync invite accept " + created.Invite.Token}
				}
				return writeOut(cmd, app, out)
			})
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project name or id")
	cmd.Flags().StringVar(&title, "title", "", "Task title")
	cmd.Flags().StringVar(&description, "description", "", "Task description (markdown)")
	cmd.Flags().StringVar(&assignee, "assignee", "", "Assign to an existing user id")
	cmd.Flags().StringVar(&assigneeEmail, "assignee-email", "", "Invite and assign a user by email")
	cmd.Flags().StringVar(&priority, "priority", "", "Low|Medium|High (default Medium)")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newTasksDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task (admins)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, st *appstate.State) error {
				if !perm.Can(st.Session.Role(), perm.ManageTasks) {
					return errPermission(perm.ManageTasks)
				}
				id := strings.TrimSpace(args[0])
				if err := mutate.DeleteTask(ctx, st.Backend, st.Tasks, id); err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"id": id, "deleted": true}})
			})
		},
	}
}

func newTasksMoveCmd(app *App) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "move <task-id>",
		Short: "Move a task to another column",
		Long: strings.TrimSpace(`
Move a task to todo, in-progress or done.

The move is applied locally first and confirmed by the backend. If the
backend rejects it the task is put back and the reason is printed on stderr.
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, st *appstate.State) error {
				status, err := statusutil.NormalizeStatus(to)
				if err != nil {
					return err
				}
				if err := st.LoadTasks(ctx, taskstore.ScopeAll); err != nil {
					return err
				}
				id := strings.TrimSpace(args[0])
				phase, err := st.Tracker.Move(ctx, st.Backend, id, status)
				if err != nil {
					return err
				}
				t, _ := st.Tasks.Get(id)
				return writeOut(cmd, app, map[string]any{"data": map[string]any{
					"id":     id,
					"status": t.Status,
					"result": phase.String(),
				}})
			})
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Target status (todo|in-progress|done)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
