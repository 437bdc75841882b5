package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	appstate "tasklync-cli/internal/app"
	"tasklync-cli/internal/view"
)

func newViewCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "View routing commands",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "resolve <tag>",
		Short: "Print the panel a view tag opens for the current session",
		Example: strings.TrimSpace(`
tasklync view resolve reporting
tasklync view resolve project-Launch
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withState(cmd, app, func(ctx context.Context, st *appstate.State) error {
				st.Router.SetActiveView(view.Tag(strings.TrimSpace(args[0])))
				return writeOut(cmd, app, map[string]any{"data": map[string]any{
					"tag":   st.Router.Active(),
					"role":  st.Session.Role(),
					"panel": st.Router.Current(),
				}})
			})
		},
	})
	return cmd
}

func newNavCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "nav",
		Short: "List the navigation entries for the current role",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, st *appstate.State) error {
				ps, err := st.LoadProjects(ctx)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": view.Nav(st.Session.Role(), ps)})
			})
		},
	}
}
