package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	appstate "tasklync-cli/internal/app"
	"tasklync-cli/internal/config"
	"tasklync-cli/internal/format"
	"tasklync-cli/internal/tui"
)

type App struct {
	ConfigDir  string
	API        string
	Format     string
	PrettyJSON bool

	cfg *config.Config
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "tasklync",
		Short:        "TaskLync CLI + TUI",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  tasklync

  # Run a local in-memory backend with demo data
  tasklync devserver --seed

  # Scriptable commands
  tasklync login --email ada@example.com --password password
  tasklync tasks board
  tasklync tasks move <task-id> --to done
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.ConfigDir, "config-dir", envOr("TASKLYNC_CONFIG_DIR", ""), "Config and session directory (default ~/.tasklync)")
	cmd.PersistentFlags().StringVar(&app.API, "api", "", "Backend base URL (overrides config)")
	cmd.PersistentFlags().StringVar(&app.Format, "format", "", "Output format (json|edn|yaml); default from config")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print output")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newSignupCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newPasswordCmd(app))
	cmd.AddCommand(newInviteCmd(app))
	cmd.AddCommand(newProjectsCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newUsersCmd(app))
	cmd.AddCommand(newReportCmd(app))
	cmd.AddCommand(newDashboardCmd(app))
	cmd.AddCommand(newViewCmd(app))
	cmd.AddCommand(newNavCmd(app))
	cmd.AddCommand(newPublishCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDevserverCmd(app))

	return cmd
}

func runTUI(cmd *cobra.Command, app *App) error {
	st, err := openState(cmd, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer func() { _ = st.Close() }()
	return tui.Run(cmd.Context(), st)
}

// loadConfig resolves the config once per invocation: defaults, config.yaml
// and env, then the --api and --format flags.
func loadConfig(app *App) (*config.Config, error) {
	if app.cfg != nil {
		return app.cfg, nil
	}
	cfg, err := config.Load(app.ConfigDir)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(app.API); v != "" {
		cfg.API = strings.TrimRight(v, "/")
	}
	if strings.TrimSpace(app.Format) == "" {
		app.Format = cfg.Format
	}
	if !format.Valid(app.Format) {
		return nil, fmt.Errorf("unknown format %q (want %s)", app.Format, strings.Join(format.Formats, "|"))
	}
	app.cfg = cfg
	return cfg, nil
}

// openState builds the application state and restores the stored session.
// Commands see rollbacks as the error returned by Tracker.Move.
func openState(cmd *cobra.Command, app *App) (*appstate.State, error) {
	cfg, err := loadConfig(app)
	if err != nil {
		return nil, err
	}
	st, err := appstate.Open(cmd.Context(), *cfg, appstate.Options{})
	if err != nil {
		return nil, err
	}
	if err := st.Init(cmd.Context()); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// withState runs fn against a freshly opened state and reports its error.
func withState(cmd *cobra.Command, app *App, fn func(ctx context.Context, st *appstate.State) error) error {
	st, err := openState(cmd, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer func() { _ = st.Close() }()
	if err := fn(cmd.Context(), st); err != nil {
		return writeErr(cmd, err)
	}
	return nil
}

// withSession is withState for commands that need a signed-in user.
func withSession(cmd *cobra.Command, app *App, fn func(ctx context.Context, st *appstate.State) error) error {
	return withState(cmd, app, func(ctx context.Context, st *appstate.State) error {
		if err := st.Session.Require(); err != nil {
			return err
		}
		return fn(ctx, st)
	})
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
