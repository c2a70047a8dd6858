package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/pburn/internal/budget"
	"github.com/theirongolddev/pburn/internal/config"
	"github.com/theirongolddev/pburn/internal/pipeline"
	"github.com/theirongolddev/pburn/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// setupValues holds the first-run form answers.
type setupValues struct {
	dataDir     string
	defaultSort string
	negative    string
	warnPercent string
	theme       string
}

func setupValuesFrom(cfg config.Config) setupValues {
	return setupValues{
		dataDir:     cfg.General.DataDir,
		defaultSort: cfg.General.DefaultSort,
		negative:    config.Engine(cfg).Policy.String(),
		warnPercent: strconv.FormatFloat(cfg.Budget.WarnPercent, 'f', -1, 64),
		theme:       cfg.Appearance.Theme,
	}
}

// apply copies validated answers onto cfg.
func (v setupValues) apply(cfg config.Config) config.Config {
	cfg.General.DataDir = strings.TrimSpace(v.dataDir)
	if key, err := pipeline.ParseSortKey(v.defaultSort); err == nil {
		cfg.General.DefaultSort = string(key)
	}
	if p, err := budget.ParsePolicy(v.negative); err == nil {
		cfg.Budget.NegativeAmounts = p.String()
	}
	if pct, err := parseWarnPercent(v.warnPercent); err == nil {
		cfg.Budget.WarnPercent = pct
	}
	cfg.Appearance.Theme = theme.ByName(v.theme).Name
	return cfg
}

func parseWarnPercent(s string) (float64, error) {
	pct, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || pct <= 0 || pct > 100 {
		return 0, fmt.Errorf("enter a percentage between 1 and 100")
	}
	return pct, nil
}

// NewSetupForm builds the standalone setup form used by `pburn setup`.
func NewSetupForm(projectCount int, dataDir string, cfg config.Config) (*huh.Form, func() config.Config) {
	vals := setupValuesFrom(cfg)
	form := newSetupForm(projectCount, dataDir, &vals)
	return form, func() config.Config { return vals.apply(cfg) }
}

func newSetupForm(projectCount int, dataDir string, vals *setupValues) *huh.Form {
	welcome := fmt.Sprintf("Found %d projects in %s.\nAnswer a few questions; everything can be changed later with `pburn setup`.",
		projectCount, dataDir)

	sortOpts := make([]huh.Option[string], len(pipeline.SortKeys))
	for i, k := range pipeline.SortKeys {
		sortOpts[i] = huh.NewOption(string(k), string(k))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to pburn").
				Description(welcome),
			huh.NewInput().
				Title("Project data directory").
				Description("Leave blank to use the default location.").
				Placeholder(dataDir).
				Value(&vals.dataDir),
			huh.NewSelect[string]().
				Title("Default project sort").
				Options(sortOpts...).
				Value(&vals.defaultSort),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Negative budget or spend amounts").
				Options(
					huh.NewOption("Reject the project as invalid", budget.PolicyReject.String()),
					huh.NewOption("Treat them as zero", budget.PolicyClamp.String()),
				).
				Value(&vals.negative),
			huh.NewInput().
				Title("Warn when spend reaches (% of budget)").
				Value(&vals.warnPercent).
				Validate(func(s string) error {
					_, err := parseWarnPercent(s)
					return err
				}),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(huh.NewOptions(theme.Names()...)...).
				Value(&vals.theme),
		),
	).WithTheme(huh.ThemeCharm())
}
