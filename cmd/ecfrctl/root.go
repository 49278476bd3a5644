package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ecfr-dashboard/internal/config"
	"ecfr-dashboard/internal/dashboard"
	"ecfr-dashboard/internal/ecfr"
	"ecfr-dashboard/internal/logging"
	"ecfr-dashboard/internal/metrics"
	"ecfr-dashboard/internal/output"
)

// app carries the state every subcommand shares once the root has run.
type app struct {
	cfgFile string
	verbose bool
	noColor bool
	baseURL string

	cfg     *config.Config
	log     *zap.Logger
	client  *ecfr.Client
	printer *output.Printer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "ecfrctl",
		Short: "Explore eCFR titles from the terminal",
		Long: `ecfrctl fetches a CFR title from the eCFR public API and prints the same
charts the dashboard shows.

Example usage:
  ecfrctl titles                          # List every title
  ecfrctl structure --title 40            # Hierarchy of title 40 at its latest date
  ecfrctl wordcount --title 12 --json     # Estimated words per chapter
  ecfrctl amendments --title 21           # Monthly amendments and trend
  ecfrctl agencies --title 7              # Agencies ranked by estimated words`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is .ecfrdash.yaml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	flags.StringVar(&a.baseURL, "base-url", "", "eCFR API base URL (overrides config)")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newTitlesCmd(a),
		newStructureCmd(a),
		newWordCountCmd(a),
		newAmendmentsCmd(a),
		newAgenciesCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.baseURL != "" {
		cfg.BaseURL = a.baseURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	level := cfg.Log.Level
	if a.verbose {
		level = "debug"
	}
	log, err := logging.New(level, "console")
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	a.client = ecfr.NewClient(cfg.BaseURL, cfg.Fetch.Timeout, ecfr.WithRateLimit(cfg.Fetch.RatePerSecond, cfg.Fetch.Burst))
	a.printer = output.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ResolveColors(a.noColor))
	log.Debug("configuration loaded",
		zap.String("base_url", cfg.BaseURL),
		zap.String("default_title", cfg.DefaultTitle),
	)
	return nil
}

func (a *app) loader(sections metrics.SectionEstimator) *dashboard.Loader {
	return dashboard.NewLoader(a.client, sections, nil)
}

// selection fills the title and date defaults the same way the dashboard
// does, falling back to today when the titles list is unavailable.
func (a *app) selection(ctx context.Context, title, date string, view dashboard.View) (dashboard.Selection, error) {
	sel := dashboard.Selection{Title: title, Date: date, View: view}
	if sel.Title == "" {
		sel.Title = a.cfg.DefaultTitle
	}
	if sel.Date == "" && (view == dashboard.ViewTitleStructure || view == dashboard.ViewWordCount) {
		d, err := a.loader(nil).DefaultDate(ctx)
		if err != nil {
			a.log.Debug("titles unavailable", zap.Error(err))
			a.printer.Warning("could not resolve the latest amendment date, using today")
			d = dashboard.DefaultDate(nil, time.Now())
		}
		sel.Date = d
		a.log.Debug("using default date", zap.String("date", d))
	}
	if sel.Date == "" {
		return sel, nil
	}
	return sel, sel.Validate()
}
