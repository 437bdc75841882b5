package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	appstate "tasklync-cli/internal/app"
	"tasklync-cli/internal/publish"
	"tasklync-cli/internal/taskstore"
)

func newPublishCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Export tasks and project boards as Markdown",
	}
	cmd.AddCommand(newPublishTaskCmd(app))
	cmd.AddCommand(newPublishProjectCmd(app))
	return cmd
}

func newPublishTaskCmd(app *App) *cobra.Command {
	var to string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "task <task-id>",
		Short: "Write one task page (stdout when --to is empty)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, st *appstate.State) error {
				if err := st.LoadTasks(ctx, taskstore.ScopeAll); err != nil {
					return err
				}
				id := strings.TrimSpace(args[0])
				t, ok := st.Tasks.Get(id)
				if !ok {
					return errNotFound("task", id)
				}
				opt := publish.RenderOptions{Now: st.Now()}
				if strings.TrimSpace(to) == "" {
					md, err := publish.RenderTaskMarkdown(t, opt)
					if err != nil {
						return err
					}
					_, err = cmd.OutOrStdout().Write([]byte(md))
					return err
				}
				res, err := publish.WriteTask(t, to, publish.WriteOptions{Overwrite: overwrite, Render: opt})
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": res})
			})
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Output directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing files")
	return cmd
}

func newPublishProjectCmd(app *App) *cobra.Command {
	var to string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "project <name-or-id>",
		Short: "Write a project board index plus one page per task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, st *appstate.State) error {
				p, err := findProject(ctx, st, args[0])
				if err != nil {
					return err
				}
				if err := st.Tasks.LoadProject(ctx, st.Backend, p.ID); err != nil {
					return err
				}
				res, err := publish.WriteProject(p, st.Tasks.Tasks(), to, publish.WriteOptions{
					Overwrite: overwrite,
					Render:    publish.RenderOptions{Now: st.Now()},
				})
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": res})
			})
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Output directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing files")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
