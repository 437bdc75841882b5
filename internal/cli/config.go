package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tasklync-cli/internal/config"
	"tasklync-cli/internal/format"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change client settings",
	}
	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigSetCmd(app))
	return cmd
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"dir":      cfg.Dir,
				"path":     config.Path(cfg.Dir),
				"api":      cfg.API,
				"format":   cfg.Format,
				"timeout":  cfg.Timeout.String(),
				"debugLog": cfg.DebugLog,
				"tuiTheme": cfg.TUI.Theme,
			}})
		},
	}
}

func newConfigSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Persist a setting (api|format|timeout|debug_log|tui.theme)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Read the file without flag overrides so they are not persisted.
			cfg, err := config.Load(app.ConfigDir)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			if err := config.Save(cfg); err != nil {
				return writeErr(cmd, err)
			}
			if strings.TrimSpace(app.Format) == "" {
				app.Format = cfg.Format
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"key": args[0], "value": args[1], "path": config.Path(cfg.Dir)}})
		},
	}
}

func setConfigValue(cfg *config.Config, key, value string) error {
	value = strings.TrimSpace(value)
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "api":
		cfg.API = strings.TrimRight(value, "/")
	case "format":
		if !format.Valid(value) {
			return fmt.Errorf("unknown format %q (want %s)", value, strings.Join(format.Formats, "|"))
		}
		cfg.Format = value
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid timeout %q (e.g. 10s)", value)
		}
		cfg.Timeout = d
	case "debug_log", "debug-log":
		cfg.DebugLog = value
	case "tui.theme", "theme":
		switch value {
		case "auto", "light", "dark":
			cfg.TUI.Theme = value
		default:
			return fmt.Errorf("invalid theme %q (want auto|light|dark)", value)
		}
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}
