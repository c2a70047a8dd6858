package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/pburn/internal/config"
	"github.com/theirongolddev/pburn/internal/pipeline"
	"github.com/theirongolddev/pburn/internal/tui"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	dir := dataDir()
	found := 0
	if result, err := pipeline.Load(dir, nil); err == nil {
		found = len(result.Projects)
	}

	form, result := tui.NewSetupForm(found, dir, appCfg)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled; nothing saved.")
			return nil
		}
		return err
	}

	cfg := result()
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	appCfg = cfg

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Println("  Run `pburn setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
