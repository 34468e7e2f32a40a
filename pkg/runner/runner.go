// Package runner executes harness suites against the search API
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/relevance"
	"github.com/Ramsey-B/clover/pkg/search"
	"github.com/Ramsey-B/clover/pkg/suite"
)

// Searcher fetches records for a query
type Searcher interface {
	NewRequest(query, entityType string) search.Request
	Records(ctx context.Context, req search.Request) (models.RecordSet, error)
}

// Config holds the configuration for running suites
type Config struct {
	Verbose      bool
	ShowFailures bool // Show failure reasons without verbose output
	Workers      int  // Number of parallel workers (<= 1 = sequential)
	CaseTimeout  time.Duration
	// StopOnFailure skips the remaining cases after the first FAIL
	StopOnFailure bool
}

// Result holds the suite execution results
type Result struct {
	RunID     string        `json:"run_id"`
	Suite     string        `json:"suite"`
	Mode      string        `json:"mode"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Total     int           `json:"total"`
	Passed    int           `json:"passed"`
	Warned    int           `json:"warned"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Cases     []CaseResult  `json:"cases"`
}

// Status returns the worst case status of the run
func (r *Result) Status() models.Status {
	status := models.StatusPass
	for _, c := range r.Cases {
		status = status.Worse(c.Status)
	}
	return status
}

// Runner executes suites
type Runner struct {
	searcher  Searcher
	evaluator *relevance.Evaluator
	publisher events.Publisher
	cfg       Config
	logger    ectologger.Logger

	outMu sync.Mutex
	out   io.Writer
}

// Option configures a Runner
type Option func(*Runner)

// WithPublisher emits case and run events
func WithPublisher(p events.Publisher) Option {
	return func(r *Runner) {
		r.publisher = p
	}
}

// WithEvaluator replaces the default relevance evaluator
func WithEvaluator(e *relevance.Evaluator) Option {
	return func(r *Runner) {
		r.evaluator = e
	}
}

// WithOutput redirects progress lines
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.out = w
	}
}

// New creates a Runner
func New(searcher Searcher, cfg Config, logger ectologger.Logger, opts ...Option) *Runner {
	r := &Runner{
		searcher:  searcher,
		evaluator: relevance.NewEvaluator(nil, nil),
		publisher: events.NewNoop(),
		cfg:       cfg,
		logger:    logger,
		out:       os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every case of s. mode overrides the suite's own mode when set.
// Case failures never abort the run; only an unknown mode is an error.
func (r *Runner) Run(ctx context.Context, s *suite.Suite, mode string) (*Result, error) {
	if mode == "" {
		mode = s.Mode
	}
	if mode == "" {
		mode = suite.ModeRelevance
	}
	exec, err := r.executor(mode)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:     uuid.NewString(),
		Suite:     s.Name,
		Mode:      mode,
		StartedAt: time.Now(),
		Total:     len(s.Cases),
	}
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id": result.RunID,
		"suite":  s.Name,
		"mode":   mode,
		"cases":  len(s.Cases),
	}).Info("Starting run")

	var cases []CaseResult
	if r.cfg.Workers > 1 && len(s.Cases) > 1 {
		cases = r.runParallel(ctx, result, s.Cases, exec)
	} else {
		cases = r.runSequential(ctx, result, s.Cases, exec)
	}

	result.Cases = cases
	result.Passed = ectolinq.Count(cases, func(c CaseResult) bool { return c.Status == models.StatusPass })
	result.Warned = ectolinq.Count(cases, func(c CaseResult) bool { return c.Status == models.StatusWarn })
	result.Failed = ectolinq.Count(cases, func(c CaseResult) bool { return c.Status == models.StatusFail })
	result.Skipped = result.Total - len(cases)
	result.Duration = time.Since(result.StartedAt)

	r.publishRun(ctx, result)
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id":  result.RunID,
		"passed":  result.Passed,
		"warned":  result.Warned,
		"failed":  result.Failed,
		"skipped": result.Skipped,
	}).Infof("Run finished in %s", result.Duration)
	return result, nil
}

// runSequential executes cases one at a time
func (r *Runner) runSequential(ctx context.Context, result *Result, cases []suite.Case, exec executor) []CaseResult {
	out := make([]CaseResult, 0, len(cases))
	for i := range cases {
		if ctx.Err() != nil {
			break
		}
		cr := r.runCase(ctx, result, cases[i], exec)
		out = append(out, cr)
		if r.cfg.StopOnFailure && cr.Status == models.StatusFail {
			r.printf("Stopping after failure: %s\n", cr.Name)
			break
		}
	}
	return out
}

// runParallel executes cases concurrently with a worker pool. Results keep suite order.
func (r *Runner) runParallel(ctx context.Context, result *Result, cases []suite.Case, exec executor) []CaseResult {
	numWorkers := r.cfg.Workers
	if numWorkers > len(cases) {
		numWorkers = len(cases)
	}

	type done struct {
		index  int
		result CaseResult
	}

	jobs := make(chan int, len(cases))
	results := make(chan done, len(cases))
	var stop atomic.Bool

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if stop.Load() || ctx.Err() != nil {
					continue
				}
				cr := r.runCase(ctx, result, cases[idx], exec)
				if r.cfg.StopOnFailure && cr.Status == models.StatusFail {
					stop.Store(true)
				}
				results <- done{index: idx, result: cr}
			}
		}()
	}

	for i := range cases {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	slots := make([]*CaseResult, len(cases))
	for d := range results {
		cr := d.result
		slots[d.index] = &cr
	}

	out := make([]CaseResult, 0, len(cases))
	for _, cr := range slots {
		if cr != nil {
			out = append(out, *cr)
		}
	}
	return out
}

// runCase executes one case under the case timeout and reports it
func (r *Runner) runCase(ctx context.Context, result *Result, c suite.Case, exec executor) CaseResult {
	caseCtx := ctx
	if r.cfg.CaseTimeout > 0 {
		var cancel context.CancelFunc
		caseCtx, cancel = context.WithTimeout(ctx, r.cfg.CaseTimeout)
		defer cancel()
	}

	if r.cfg.Verbose {
		r.printf("▶ Running: %s\n", c.Name)
	}

	start := time.Now()
	cr := exec(caseCtx, c)
	cr.Name = c.Name
	cr.SearchTerm = c.SearchTerm
	cr.EntityType = c.EntityType
	cr.Notes = c.Notes
	cr.Row = c.Row
	cr.Duration = time.Since(start)

	r.report(cr)
	r.recordCase(ctx, result, cr)
	return cr
}

func (r *Runner) report(cr CaseResult) {
	switch cr.Status {
	case models.StatusPass:
		r.printf("✓ PASSED: %s\n", cr.Name)
		if r.cfg.Verbose {
			r.printf("  %s\n", cr.Reason)
		}
	case models.StatusWarn:
		r.printf("⚠ WARN: %s\n", cr.Name)
		if r.cfg.Verbose || r.cfg.ShowFailures {
			r.printf("  %s\n", cr.Reason)
		}
	default:
		r.printf("✗ FAILED: %s\n", cr.Name)
		if r.cfg.Verbose || r.cfg.ShowFailures {
			r.printf("  Reason: %s\n", cr.Reason)
			for _, reason := range cr.FailureReasons {
				r.printf("    - %s\n", reason)
			}
			if cr.FetchError != "" {
				r.printf("  Error: %s\n\n", cr.FetchError)
			}
		}
	}
}

func (r *Runner) printf(format string, args ...any) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

// PrintSummary writes the run totals
func (r *Runner) PrintSummary(result *Result) {
	r.printf("\n%s (%s): %d total, %d passed, %d warned, %d failed",
		result.Suite, result.Mode, result.Total, result.Passed, result.Warned, result.Failed)
	if result.Skipped > 0 {
		r.printf(", %d skipped", result.Skipped)
	}
	r.printf(" in %s\n", result.Duration.Round(time.Millisecond))
}
