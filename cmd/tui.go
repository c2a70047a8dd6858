package cmd

import (
	"fmt"

	"github.com/theirongolddev/pburn/internal/config"
	"github.com/theirongolddev/pburn/internal/tui"
	"github.com/theirongolddev/pburn/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive budget dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	theme.SetActive(appCfg.Appearance.Theme)

	// Background fills need a color profile even when stdout is not
	// detected as a color terminal.
	lipgloss.SetColorProfile(termenv.TrueColor)

	opts := tui.Options{
		DataDir:   dataDir(),
		UseCache:  !flagNoCache,
		Config:    appCfg,
		NeedSetup: !config.Exists(),
	}
	if flagAsOf != "" {
		asOf, err := asOfDate()
		if err != nil {
			return err
		}
		opts.AsOf = asOf
	}

	p := tea.NewProgram(tui.NewApp(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
