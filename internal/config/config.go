// Package config loads client settings from <dir>/config.yaml and TASKLYNC_* env vars.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	AppName    = "tasklync"
	ConfigFile = "config.yaml"

	DefaultAPI     = "http://localhost:3005"
	DefaultFormat  = "json"
	DefaultTimeout = 10 * time.Second
)

type Config struct {
	// Dir is where config.yaml and session.sqlite live. Not persisted.
	Dir string `mapstructure:"-" yaml:"-"`

	API      string        `mapstructure:"api" yaml:"api"`
	Format   string        `mapstructure:"format" yaml:"format"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	DebugLog string        `mapstructure:"debug_log" yaml:"debug_log,omitempty"`

	TUI TUIConfig `mapstructure:"tui" yaml:"tui"`
}

type TUIConfig struct {
	// Theme is light|dark|auto.
	Theme string `mapstructure:"theme" yaml:"theme,omitempty"`
}

func Default() *Config {
	return &Config{
		API:     DefaultAPI,
		Format:  DefaultFormat,
		Timeout: DefaultTimeout,
		TUI:     TUIConfig{Theme: "auto"},
	}
}

// DefaultDir resolves the config directory:
// TASKLYNC_CONFIG_DIR, else ~/.tasklync.
func DefaultDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("TASKLYNC_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "."+AppName), nil
}

func Path(dir string) string { return filepath.Join(dir, ConfigFile) }

// Load layers defaults < config.yaml < environment. A missing file is not an error.
func Load(dir string) (*Config, error) {
	if strings.TrimSpace(dir) == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	def := Default()
	v := viper.New()
	v.SetDefault("api", def.API)
	v.SetDefault("format", def.Format)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("debug_log", "")
	v.SetDefault("tui.theme", def.TUI.Theme)

	v.SetEnvPrefix("TASKLYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := Path(dir)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Dir = dir
	cfg.API = strings.TrimRight(strings.TrimSpace(cfg.API), "/")
	if cfg.API == "" {
		cfg.API = DefaultAPI
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return cfg, nil
}

func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0o700)
}

func (c *Config) SessionDBPath() string {
	return filepath.Join(c.Dir, "session.sqlite")
}

// Save writes config.yaml atomically.
func Save(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if err := cfg.EnsureDir(); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return atomicWriteFile(cfg.Dir, "config.yaml.*.tmp", Path(cfg.Dir), b, 0o600)
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}
