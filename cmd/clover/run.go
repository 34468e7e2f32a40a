package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/clover/internal/cache"
	"github.com/Ramsey-B/clover/pkg/baseline"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/report"
	"github.com/Ramsey-B/clover/pkg/runner"
	"github.com/Ramsey-B/clover/pkg/search"
	"github.com/Ramsey-B/clover/pkg/suite"
)

var (
	// Suite source flags
	suiteFile      string
	workbookFile   string
	sheetName      string
	tsvFile        string
	referencesFile string
	entityType     string

	// Runner flags
	workers       int
	showFailures  bool
	stopOnFailure bool
	reportFormats []string
)

var regressionCmd = &cobra.Command{
	Use:   "regression",
	Short: "Reconcile current search results against a legacy baseline workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMode(cmd.Context(), suite.ModeRegression)
	},
}

var relevanceCmd = &cobra.Command{
	Use:   "relevance",
	Short: "Score every returned name against its search term",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMode(cmd.Context(), suite.ModeRelevance)
	},
}

var targetedCmd = &cobra.Command{
	Use:   "targeted",
	Short: "Judge results with per-case rules and expected records",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMode(cmd.Context(), suite.ModeTargeted)
	},
}

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Compare results for an original search term and a variation",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMode(cmd.Context(), suite.ModeBenchmark)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a suite in the mode it declares",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMode(cmd.Context(), "")
	},
}

func init() {
	for _, cmd := range []*cobra.Command{regressionCmd, relevanceCmd, targetedCmd, benchmarkCmd, runCmd} {
		cmd.Flags().StringVar(&suiteFile, "suite", "", "YAML suite file")
		cmd.Flags().StringVar(&workbookFile, "workbook", "", "xlsx workbook of cases or baselines")
		cmd.Flags().StringVar(&sheetName, "sheet", "", "Workbook sheet (default: first sheet)")
		cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent cases (default: RUNNER_WORKERS)")
		cmd.Flags().BoolVar(&showFailures, "show-failures", true, "Print failure reasons for failed cases")
		cmd.Flags().BoolVar(&stopOnFailure, "stop-on-failure", false, "Stop after the first failed case")
		cmd.Flags().StringSliceVar(&reportFormats, "format", nil, "Report formats: xlsx, html, json (default: REPORT_FORMATS)")
	}
	for _, cmd := range []*cobra.Command{relevanceCmd, targetedCmd} {
		cmd.Flags().StringVar(&tsvFile, "tsv", "", "Tab-separated case file")
	}
	relevanceCmd.Flags().StringVar(&referencesFile, "references", "", "Reference keyword file, one case per term")
	relevanceCmd.Flags().StringVar(&entityType, "entity-type", "", "Entity type for reference cases: P or E")
}

// runMode loads the suite, runs it, writes reports and records a failing exit when any case failed
func runMode(ctx context.Context, mode string) error {
	s, err := loadSuite(mode)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(ctx)
	defer cancel()

	client, closeClient, err := newSearchClient()
	if err != nil {
		return err
	}
	defer closeClient()

	publisher, err := newPublisher()
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close event publisher")
		}
	}()

	rcfg := runner.Config{
		Verbose:       verbose,
		ShowFailures:  showFailures,
		Workers:       cfg.Workers,
		CaseTimeout:   cfg.CaseTimeout,
		StopOnFailure: stopOnFailure,
	}
	if workers > 0 {
		rcfg.Workers = workers
	}

	r := runner.New(client, rcfg, logger, runner.WithPublisher(publisher))
	result, err := r.Run(ctx, s, mode)
	if err != nil {
		return err
	}
	r.PrintSummary(result)

	formats := cfg.ReportFormats
	if len(reportFormats) > 0 {
		formats = reportFormats
	}
	paths, err := report.NewWriter(cfg.ResultsDir, logger).Write(result, formats...)
	if err != nil {
		return fmt.Errorf("failed to write reports: %w", err)
	}
	for _, p := range paths {
		fmt.Printf("Report: %s\n", p)
	}

	writeMetrics()

	if result.Status() == models.StatusFail {
		exitErr = fmt.Errorf("%d of %d cases failed", result.Failed, result.Total)
	}
	return nil
}

func loadSuite(mode string) (*suite.Suite, error) {
	switch {
	case suiteFile != "":
		return suite.Load(suiteFile)
	case workbookFile != "" && mode == suite.ModeRegression:
		entities, err := baseline.NewLoader(logger).LoadWorkbook(workbookFile, sheetName)
		if err != nil {
			return nil, err
		}
		return suite.FromBaseline(baseName(workbookFile), entities), nil
	case workbookFile != "":
		return suite.LoadWorkbook(workbookFile, sheetName)
	case tsvFile != "":
		return suite.LoadTSV(tsvFile)
	case referencesFile != "":
		refs, err := baseline.LoadReferencesFile(referencesFile)
		if err != nil {
			return nil, err
		}
		return suite.FromReferences(baseName(referencesFile), refs, entityType), nil
	}
	return nil, fmt.Errorf("no cases given: pass --suite, --workbook, --tsv or --references")
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// newSearchClient builds the API client, with the Redis response cache when enabled
func newSearchClient() (*search.Client, func(), error) {
	scfg := cfg.SearchConfig()
	if scfg.URL == "" {
		return nil, nil, fmt.Errorf("SEARCH_API_URL is not set")
	}
	if !cfg.CacheEnabled {
		return search.NewClient(scfg, logger), func() {}, nil
	}

	rc, err := cache.NewCache(cfg.CacheConfig(), logger)
	if err != nil {
		return nil, nil, err
	}
	closeCache := func() {
		if err := rc.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close response cache")
		}
	}
	return search.NewClient(scfg, logger, search.WithCache(rc)), closeCache, nil
}

func newPublisher() (events.Publisher, error) {
	if !cfg.EventsEnabled {
		return events.NewNoop(), nil
	}
	return events.NewKafkaPublisher(cfg.EventsConfig(), logger)
}

func writeMetrics() {
	if !cfg.MetricsEnabled {
		return
	}
	path := filepath.Join(cfg.ResultsDir, "clover.prom")
	if err := metrics.WriteTextfile(path); err != nil {
		logger.WithError(err).Warn("Failed to write metrics")
		return
	}
	logger.WithField("path", path).Debug("Metrics written")
}
