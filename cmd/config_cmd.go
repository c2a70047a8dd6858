package cmd

import (
	"fmt"

	"github.com/theirongolddev/pburn/internal/config"
	"github.com/theirongolddev/pburn/internal/pipeline"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Data directory: %s\n", dataDir())
	fmt.Printf("    Default sort:   %s\n", cfg.General.DefaultSort)
	fmt.Printf("    Expense limit:  %d\n", cfg.General.ExpenseLimit)
	fmt.Printf("    Cache:          %s\n", pipeline.CachePath())
	fmt.Println()

	fmt.Println("  [Budget]")
	fmt.Printf("    Negative amounts: %s\n", config.Engine(cfg).Policy)
	fmt.Printf("    Warn at:          %.0f%% spent\n", cfg.Budget.WarnPercent)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:       %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval:      %s\n", config.DaemonInterval(cfg))
	fmt.Printf("    Events buffer: %d\n", cfg.Daemon.EventsBuffer)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `pburn setup` to reconfigure.")
	return nil
}
