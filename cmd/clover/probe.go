package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/clover/pkg/probe"
	"github.com/Ramsey-B/clover/pkg/report"
)

var (
	probeInjection bool
	probeEdge      bool
	probeLimit     int
	probeQueries   string
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Send malformed and edge case queries and summarize how the API copes",
	Long: `probe sends injection style and edge case queries one at a time and records
status, latency and result counts for each. Without --injection or --edge both sets run.`,
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().BoolVar(&probeInjection, "injection", false, "Run the injection queries")
	probeCmd.Flags().BoolVar(&probeEdge, "edge", false, "Run the edge case queries")
	probeCmd.Flags().IntVar(&probeLimit, "limit", 0, "Maximum queries per set, 0 runs all")
	probeCmd.Flags().StringVar(&probeQueries, "queries", "", "YAML query file replacing the built-in sets")
}

func runProbe(cmd *cobra.Command, args []string) error {
	queries, err := probeSet()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	client, closeClient, err := newSearchClient()
	if err != nil {
		return err
	}
	defer closeClient()

	fmt.Printf("Probing with %d queries\n", len(queries))
	results, runErr := probe.NewProber(client, cfg.ProbeConfig(), logger).Run(ctx, queries)
	if runErr != nil {
		logger.WithError(runErr).Warnf("Probe stopped after %d of %d queries", len(results), len(queries))
	}

	analysis := probe.Analyze(results)
	fmt.Printf("\n%d total, %d successful, %d failed, average %s, max %s\n",
		analysis.Total, analysis.Successful, analysis.Failed, analysis.AverageResponseTime, analysis.MaxResponseTime)
	statuses := make([]string, 0, len(analysis.StatusCodes))
	for status := range analysis.StatusCodes {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		fmt.Printf("  %s: %d\n", status, analysis.StatusCodes[status])
	}
	for _, finding := range analysis.Findings {
		fmt.Printf("- %s\n", finding)
	}

	path, err := report.NewWriter(cfg.ResultsDir, logger).Probe(results, analysis)
	if err != nil {
		return fmt.Errorf("failed to write probe report: %w", err)
	}
	fmt.Printf("Report: %s\n", path)

	writeMetrics()

	if analysis.ServerErrors {
		exitErr = fmt.Errorf("search API returned server errors")
	}
	return runErr
}

func probeSet() ([]probe.Query, error) {
	if probeQueries != "" {
		queries, err := probe.LoadQueryFile(probeQueries)
		if err != nil {
			return nil, err
		}
		return probe.Take(queries, probeLimit), nil
	}

	both := !probeInjection && !probeEdge
	var queries []probe.Query
	if probeInjection || both {
		queries = append(queries, probe.Take(probe.InjectionCases(), probeLimit)...)
	}
	if probeEdge || both {
		queries = append(queries, probe.Take(probe.EdgeCases(), probeLimit)...)
	}
	return queries, nil
}
