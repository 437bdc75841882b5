package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	appstate "tasklync-cli/internal/app"
	"tasklync-cli/internal/form"
	"tasklync-cli/internal/model"
	"tasklync-cli/internal/perm"
)

func newProjectsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"workspaces"},
		Short:   "Project (workspace) commands",
	}
	cmd.AddCommand(newProjectsListCmd(app))
	cmd.AddCommand(newProjectsShowCmd(app))
	cmd.AddCommand(newProjectsCreateCmd(app))
	cmd.AddCommand(newProjectsUpdateCmd(app))
	cmd.AddCommand(newProjectsDeleteCmd(app))
	cmd.AddCommand(newProjectsJoinCmd(app))
	cmd.AddCommand(newProjectsCurrentCmd(app))
	return cmd
}

// findProject resolves a project by name or id from the backend's list.
func findProject(ctx context.Context, st *appstate.State, ref string) (model.Project, error) {
	if _, err := st.LoadProjects(ctx); err != nil {
		return model.Project{}, err
	}
	p, ok := st.ProjectByName(ref)
	if !ok {
		return model.Project{}, errNotFound("project", ref)
	}
	return p, nil
}

func newProjectsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, st *appstate.State) error {
				ps, err := st.LoadProjects(ctx)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": ps})
			})
		},
	}
}

func newProjectsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name-or-id>",
		Short: "Show one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, st *appstate.State) error {
				p, err := findProject(ctx, st, args[0])
				if err != nil {
					return err
				}
				p, err = st.Backend.ProjectDetails(ctx, p.ID)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": p})
			})
		},
	}
}

func newProjectsCurrentCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the workspace joined or created last",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, st *appstate.State) error {
				p, ok, err := st.CurrentProject(ctx)
				if err != nil {
					return err
				}
				if !ok {
					return writeOut(cmd, app, map[string]any{
						"data":   nil,
						"_hints": []string{"tasklync projects join --code <code>", "tasklync projects create --name <name>"},
					})
				}
				return writeOut(cmd, app, map[string]any{"data": p})
			})
		},
	}
}

type projectFlags struct {
	name, companyName, companyEmail, companyAddress string
}

func (f *projectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Workspace name")
	cmd.Flags().StringVar(&f.companyName, "company-name", "", "Company name")
	cmd.Flags().StringVar(&f.companyEmail, "company-email", "", "Company email")
	cmd.Flags().StringVar(&f.companyAddress, "company-address", "", "Company address")
}

// values returns only the flags given on the command line, so an update
// keeps every field that was not mentioned.
func (f *projectFlags) values(cmd *cobra.Command) form.Values {
	v := form.Values{}
	set := func(flag, field, value string) {
		if cmd.Flags().Changed(flag) {
			v[field] = value
		}
	}
	set("name", form.FieldName, f.name)
	set("company-name", form.FieldCompanyName, f.companyName)
	set("company-email", form.FieldCompanyEmail, f.companyEmail)
	set("company-address", form.FieldCompanyAddress, f.companyAddress)
	return v
}

func newProjectsCreateCmd(app *App) *cobra.Command {
	var flags projectFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a workspace (you become its admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, st *appstate.State) error {
				f := form.CreateWorkspace(st.Backend, st.Session).WithStore(st.KV)
				res, err := submitForm(ctx, f, flags.values(cmd))
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": res.Data})
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newProjectsUpdateCmd(app *App) *cobra.Command {
	var flags projectFlags

	cmd := &cobra.Command{
		Use:   "update <name-or-id>",
		Short: "Edit a workspace (admins)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, st *appstate.State) error {
				if !perm.Can(st.Session.Role(), perm.EditProject) {
					return errPermission(perm.EditProject)
				}
				p, err := findProject(ctx, st, args[0])
				if err != nil {
					return err
				}
				res, err := submitForm(ctx, form.EditWorkspace(st.Backend, p.ID), flags.values(cmd))
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": res.Data})
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newProjectsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name-or-id>",
		Short: "Delete a workspace (admins)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, st *appstate.State) error {
				if !perm.Can(st.Session.Role(), perm.EditProject) {
					return errPermission(perm.EditProject)
				}
				p, err := findProject(ctx, st, args[0])
				if err != nil {
					return err
				}
				if err := st.Backend.DeleteProject(ctx, p.ID); err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"id": p.ID, "deleted": true}})
			})
		},
	}
}

func newProjectsJoinCmd(app *App) *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join a workspace with its code",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, st *appstate.State) error {
				f := form.JoinWorkspace(st.Backend, st.Session).WithStore(st.KV)
				res, err := submitForm(ctx, f, form.Values{form.FieldCode: strings.TrimSpace(code)})
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": res.Data})
			})
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "Workspace join code")
	return cmd
}
