package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ramsey-B/clover/config"
)

var (
	// Global flags
	envFile    string
	verbose    bool
	resultsDir string

	cfg     *config.Config
	zlog    *zap.Logger
	logger  ectologger.Logger
	exitErr error
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "clover",
	Short: "clover - search API regression and relevance harness",
	Long: `clover replays search terms against a search API and grades the results.

Regression runs reconcile current results against a legacy baseline workbook.
Relevance and targeted runs score every returned name against the search term.
Benchmark runs compare an original spelling against a variation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(envFile)
		if err != nil {
			return err
		}
		if resultsDir != "" {
			cfg.ResultsDir = resultsDir
		}

		zlog, err = buildZap(cfg, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = zapadapter.NewZapEctoLogger(zlog, nil)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if zlog != nil {
			_ = zlog.Sync()
		}
	},
}

func buildZap(cfg *config.Config, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Env file loaded before the environment is bound")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	rootCmd.PersistentFlags().StringVar(&resultsDir, "results-dir", "", "Report directory (default: RESULTS_DIR)")

	rootCmd.AddCommand(regressionCmd)
	rootCmd.AddCommand(relevanceCmd)
	rootCmd.AddCommand(targetedCmd)
	rootCmd.AddCommand(benchmarkCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(mockCmd)
	rootCmd.AddCommand(cacheCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if exitErr != nil {
		fmt.Fprintln(os.Stderr, exitErr)
		os.Exit(2)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
