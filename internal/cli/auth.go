package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"tasklync-cli/internal/api"
	appstate "tasklync-cli/internal/app"
	"tasklync-cli/internal/form"
)

// sessionView is the signed-in identity as printed by login/whoami.
func sessionView(st *appstate.State) map[string]any {
	cur := st.Session.Current()
	return map[string]any{
		"authenticated":      cur.Authenticated(),
		"userId":             cur.UserID,
		"name":               cur.UserName,
		"email":              cur.Email,
		"role":               st.Session.Role(),
		"needsPasswordReset": cur.NeedsPasswordReset,
		"next":               st.Session.Next(),
	}
}

func newLoginCmd(app *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withState(cmd, app, func(ctx context.Context, st *appstate.State) error {
				res, err := submitForm(ctx, form.Login(st.Session), form.Values{
					form.FieldEmail:    email,
					form.FieldPassword: password,
				})
				if err != nil {
					return err
				}
				out := sessionView(st)
				out["next"] = res.Next
				return writeOut(cmd, app, map[string]any{"data": out})
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", envOr("TASKLYNC_PASSWORD", ""), "Account password")
	return cmd
}

func newSignupCmd(app *App) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withState(cmd, app, func(ctx context.Context, st *appstate.State) error {
				res, err := submitForm(ctx, form.Signup(st.Session), form.Values{
					form.FieldName:     name,
					form.FieldEmail:    email,
					form.FieldPassword: password,
				})
				if err != nil {
					return err
				}
				out := sessionView(st)
				out["next"] = res.Next
				return writeOut(cmd, app, map[string]any{
					"data":   out,
					"_hints": []string{"tasklync projects join --code <code>", "tasklync projects create --name <name>"},
				})
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withState(cmd, app, func(ctx context.Context, st *appstate.State) error {
				if err := st.Teardown(ctx); err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"loggedOut": true}})
			})
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withState(cmd, app, func(ctx context.Context, st *appstate.State) error {
				return writeOut(cmd, app, map[string]any{"data": sessionView(st)})
			})
		},
	}
}

func newPasswordCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Password commands",
	}
	cmd.AddCommand(newPasswordSetCmd(app))
	return cmd
}

func newPasswordSetCmd(app *App) *cobra.Command {
	var userID, password, confirm string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace a password (the signed-in user's by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withState(cmd, app, func(ctx context.Context, st *appstate.State) error {
				res, err := submitForm(ctx, form.SetPassword(st.Session, strings.TrimSpace(userID)), form.Values{
					form.FieldPassword: password,
					form.FieldConfirm:  confirm,
				})
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{
					"data":   map[string]any{"updated": true, "next": res.Next},
					"_hints": []string{"tasklync login --email <email> --password <new password>"},
				})
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "User id (default: signed-in user)")
	cmd.Flags().StringVar(&password, "password", "", "New password (at least 6 characters)")
	cmd.Flags().StringVar(&confirm, "confirm", "", "Repeat the new password")
	return cmd
}

func newInviteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Invite commands",
	}
	cmd.AddCommand(newInviteVerifyCmd(app))
	cmd.AddCommand(newInviteAcceptCmd(app))
	return cmd
}

func newInviteVerifyCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <token>",
		Short: "Show who an invite is for",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withState(cmd, app, func(ctx context.Context, st *appstate.State) error {
				inv, err := st.Backend.VerifyInvite(ctx, strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": inv})
			})
		},
	}
}

func newInviteAcceptCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "accept <token>",
		Short: "Accept an invite; then sign in with the temporary password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withState(cmd, app, func(ctx context.Context, st *appstate.State) error {
				res, err := submitForm(ctx, form.AcceptInvite(st.Session, strings.TrimSpace(args[0])), nil)
				if err != nil {
					return err
				}
				out := map[string]any{"next": res.Next}
				hints := []string{}
				if acc, ok := res.Data.(api.InviteAcceptance); ok {
					out["email"] = acc.Email
					out["userId"] = acc.UserID
					hints = append(hints, "tasklync login --email "+acc.Email+" --password <temporary password>")
				}
				return writeOut(cmd, app, map[string]any{"data": out, "_hints": hints})
			})
		},
	}
}
