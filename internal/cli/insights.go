package cli

import (
	"context"

	"github.com/spf13/cobra"

	appstate "tasklync-cli/internal/app"
	"tasklync-cli/internal/derive"
	"tasklync-cli/internal/perm"
	"tasklync-cli/internal/taskstore"
)

func newUsersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "User commands",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, st *appstate.State) error {
				users, err := st.Backend.ListUsers(ctx)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": users})
			})
		},
	})
	return cmd
}

func newReportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Task counts by status, priority and project (admins)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, st *appstate.State) error {
				if !perm.Can(st.Session.Role(), perm.ViewInsights) {
					return errPermission(perm.ViewInsights)
				}
				if err := st.LoadTasks(ctx, taskstore.ScopeAll); err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": derive.BuildReport(st.Tasks.Tasks(), st.Today())})
			})
		},
	}
}

func newDashboardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Greeting, totals and the upcoming/overdue/completed lists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, st *appstate.State) error {
				d, err := st.LoadDashboard(ctx)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": d})
			})
		},
	}
}
