package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/pburn/internal/budget"
)

func TestLoadFrom_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Budget.NegativeAmounts != "reject" {
		t.Errorf("NegativeAmounts = %q, want reject", cfg.Budget.NegativeAmounts)
	}
	if cfg.General.ExpenseLimit != 5 {
		t.Errorf("ExpenseLimit = %d, want 5", cfg.General.ExpenseLimit)
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pburn", "config.toml")

	cfg := DefaultConfig()
	cfg.Budget.NegativeAmounts = "clamp"
	cfg.General.DataDir = "/srv/fixtures"
	cfg.Appearance.Theme = "terminal"

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config perm = %o, want 600", perm)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.General.DataDir != "/srv/fixtures" || got.Appearance.Theme != "terminal" {
		t.Errorf("round trip lost values: %+v", got)
	}
	if Engine(got).Policy != budget.PolicyClamp {
		t.Errorf("Engine policy = %v, want clamp", Engine(got).Policy)
	}
}

func TestLoadFrom_RejectsUnknownPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[budget]\nnegative_amounts = \"ignore\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("LoadFrom accepted an unknown negative_amounts policy")
	}
}

func TestDataDir_EnvWins(t *testing.T) {
	t.Setenv("PBURN_DATA_DIR", "/tmp/from-env")
	cfg := DefaultConfig()
	cfg.General.DataDir = "/tmp/from-config"
	if got := DataDir(cfg); got != "/tmp/from-env" {
		t.Errorf("DataDir = %q, want /tmp/from-env", got)
	}
}

func TestDaemonInterval_Floor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Daemon.IntervalSec = 1
	if got := DaemonInterval(cfg); got != 30*time.Second {
		t.Errorf("DaemonInterval = %s, want 30s", got)
	}
}
