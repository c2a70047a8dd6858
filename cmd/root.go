package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/theirongolddev/pburn/internal/budget"
	"github.com/theirongolddev/pburn/internal/cli"
	"github.com/theirongolddev/pburn/internal/config"
	"github.com/theirongolddev/pburn/internal/model"
	"github.com/theirongolddev/pburn/internal/pipeline"
	"github.com/theirongolddev/pburn/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagDataDir  string
	flagAsOf     string
	flagNoCache  bool
	flagQuiet    bool
	flagLogLevel string
)

// appCfg is loaded once before any command runs.
var appCfg = config.DefaultConfig()

var logger = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "pburn",
	Short: "Project budget burn analytics",
	Long:  "Track project budgets: spend, burn rate, projections and over-budget warnings.",
	RunE:  runSummary,

	SilenceUsage:      true,
	PersistentPreRunE: prepare,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Project fixture directory (default from config or PBURN_DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&flagAsOf, "as-of", "", "Evaluate budgets as of this date (YYYY-MM-DD, default today)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip SQLite cache, reparse everything")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (default warn or PBURN_LOG_LEVEL)")
}

// prepare configures logging and loads the config file.
func prepare(_ *cobra.Command, _ []string) error {
	level := flagLogLevel
	if level == "" {
		level = os.Getenv("PBURN_LOG_LEVEL")
	}
	if level == "" {
		level = "warn"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	logger.SetOutput(os.Stderr)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	appCfg = cfg
	return nil
}

// dataDir resolves the fixture directory: flag, env, config, default.
func dataDir() string {
	if flagDataDir != "" {
		return flagDataDir
	}
	return config.DataDir(appCfg)
}

// asOfDate returns the evaluation date from --as-of, or today.
func asOfDate() (time.Time, error) {
	if strings.TrimSpace(flagAsOf) == "" {
		return budget.Today(), nil
	}
	return budget.ParseDate(budget.FieldAsOf, flagAsOf)
}

// loadData is the shared data loading path used by all commands.
// Uses SQLite cache when available for fast subsequent runs.
func loadData() (*pipeline.LoadResult, error) {
	dir := dataDir()
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Scanning %s...\n", dir)
	}

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		if current%50 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Parsing %s", cli.RenderLoadProgress(current, total, 20))
		}
	}

	cache, err := store.Open(pipeline.CachePath())
	if err != nil {
		logger.WithError(err).Warn("cache unavailable, manual expenses will not be applied")
	} else {
		defer func() { _ = cache.Close() }()
	}

	if cache != nil && !flagNoCache {
		cr, err := pipeline.LoadWithCache(dir, cache, progressFn)
		if err == nil {
			if !flagQuiet && cr.TotalFiles > 0 {
				fmt.Fprintf(os.Stderr, "\r  %d cached + %d reparsed (%d projects)            \n",
					cr.CacheHits, cr.Reparsed, len(cr.Projects))
			}
			reportProblems(&cr.LoadResult)
			return &cr.LoadResult, nil
		}
		logger.WithError(err).Warn("cache error, falling back to full parse")
	}

	result, err := pipeline.Load(dir, progressFn)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		if err := pipeline.MergeManualExpenses(result, cache); err != nil {
			logger.WithError(err).Warn("manual expenses not applied")
		}
	}

	if !flagQuiet && result.TotalFiles > 0 {
		fmt.Fprintf(os.Stderr, "\r  Parsed %d files (%d projects)            \n",
			result.ParsedFiles, len(result.Projects))
	}
	reportProblems(result)
	return result, nil
}

func reportProblems(result *pipeline.LoadResult) {
	for _, p := range result.Problems {
		logger.WithError(p).Debug("skipped record")
	}
	if result.ParseErrors > 0 || result.FileErrors > 0 {
		logger.WithFields(logrus.Fields{
			"records": result.ParseErrors,
			"files":   result.FileErrors,
		}).Warn("some fixture data could not be parsed (use --log-level debug for details)")
	}
	if result.Duplicates > 0 {
		logger.WithField("count", result.Duplicates).Warn("projects with duplicate ids were skipped")
	}
	if result.ManualOrphaned > 0 {
		logger.WithField("count", result.ManualOrphaned).Warn("manual expenses reference unknown projects")
	}
}

// analyzeAll loads every project and computes its metrics.
func analyzeAll() ([]model.ProjectReport, *pipeline.LoadResult, time.Time, error) {
	asOf, err := asOfDate()
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	result, err := loadData()
	if err != nil {
		return nil, nil, asOf, err
	}
	reports := pipeline.Analyze(result.Projects, config.Engine(appCfg), asOf)
	for _, r := range reports {
		if !r.Valid() {
			logger.WithField("project", r.Project.ID).WithError(r.Err).Info("metrics unavailable")
		}
	}
	return reports, result, asOf, nil
}
