// Package config loads and saves the pburn TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/pburn/internal/budget"

	"github.com/BurntSushi/toml"
)

// Config holds all pburn configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Budget     BudgetConfig     `toml:"budget"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DataDir      string `toml:"data_dir,omitempty"`
	DefaultSort  string `toml:"default_sort"`
	ExpenseLimit int    `toml:"expense_limit"`
}

// BudgetConfig holds budget evaluation settings.
type BudgetConfig struct {
	// NegativeAmounts is "reject" or "clamp".
	NegativeAmounts string `toml:"negative_amounts"`
	// WarnPercent marks projects at or above this share of budget spent.
	WarnPercent float64 `toml:"warn_percent"`
}

// DaemonConfig holds background service settings.
type DaemonConfig struct {
	Addr         string `toml:"addr"`
	IntervalSec  int    `toml:"interval_sec"`
	EventsBuffer int    `toml:"events_buffer"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DefaultSort:  "newest",
			ExpenseLimit: 5,
		},
		Budget: BudgetConfig{
			NegativeAmounts: "reject",
			WarnPercent:     80,
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8788",
			IntervalSec:  30,
			EventsBuffer: 200,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pburn")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "pburn")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's own config
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if _, err := budget.ParsePolicy(cfg.Budget.NegativeAmounts); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo writes the config to path, creating parent directories.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // path is the user's own config
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// DataDir returns the fixture directory: PBURN_DATA_DIR, then the config
// value, then ~/.local/share/pburn/projects.
func DataDir(cfg Config) string {
	if dir := os.Getenv("PBURN_DATA_DIR"); dir != "" {
		return dir
	}
	if cfg.General.DataDir != "" {
		return cfg.General.DataDir
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "pburn", "projects")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "pburn", "projects")
}

// Engine returns the budget engine configured by the [budget] section.
func Engine(cfg Config) budget.Engine {
	policy, err := budget.ParsePolicy(cfg.Budget.NegativeAmounts)
	if err != nil {
		policy = budget.PolicyReject
	}
	return budget.Engine{Policy: policy}
}

// DaemonInterval returns the configured refresh interval, at least 2s.
func DaemonInterval(cfg Config) time.Duration {
	d := time.Duration(cfg.Daemon.IntervalSec) * time.Second
	if d < 2*time.Second {
		return 30 * time.Second
	}
	return d
}
