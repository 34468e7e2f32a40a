package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectoerror/httperror"

	"github.com/Ramsey-B/clover/pkg/benchmark"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/reconcile"
	"github.com/Ramsey-B/clover/pkg/relevance"
	"github.com/Ramsey-B/clover/pkg/suite"
)

// CaseResult holds the outcome of a single case. Exactly one of the mode payloads is set.
type CaseResult struct {
	Name           string        `json:"name"`
	SearchTerm     string        `json:"search_term"`
	EntityType     string        `json:"entity_type,omitempty"`
	Notes          string        `json:"notes,omitempty"`
	Row            int           `json:"row,omitempty"`
	Status         models.Status `json:"status"`
	Reason         string        `json:"reason"`
	FailureReasons []string      `json:"failure_reasons,omitempty"`
	FetchError     string        `json:"fetch_error,omitempty"`
	Duration       time.Duration `json:"duration"`

	Current        models.RecordSet               `json:"current,omitempty"`
	Reconciliation *reconcile.EntityReconciliation `json:"reconciliation,omitempty"`
	Assessment     *reconcile.Assessment           `json:"assessment,omitempty"`
	Evaluation     *relevance.Evaluation           `json:"evaluation,omitempty"`
	Comparison     *benchmark.Comparison           `json:"comparison,omitempty"`
	Variation      string                          `json:"variation,omitempty"`
}

type executor func(ctx context.Context, c suite.Case) CaseResult

func (r *Runner) executor(mode string) (executor, error) {
	switch mode {
	case suite.ModeRegression:
		return r.regression, nil
	case suite.ModeRelevance:
		return r.relevance, nil
	case suite.ModeTargeted:
		return r.targeted, nil
	case suite.ModeBenchmark:
		return r.benchmark, nil
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}

// fetch searches a term. Errors yield an empty set and the error text.
func (r *Runner) fetch(ctx context.Context, query, entityType string) (models.RecordSet, string) {
	set, err := r.searcher.Records(ctx, r.searcher.NewRequest(query, entityType))
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"query":       query,
			"entity_type": entityType,
			"status_code": httperror.GetStatusCode(err),
		}).Error("Search failed, continuing with empty results")
		return models.NewRecordSet(), err.Error()
	}
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"query":     query,
		"by_source": set.CountsBySource(),
	}).Debugf("Search returned %d records", set.Count())
	return set, ""
}

// regression reconciles current results against the stored baseline and assesses the differences
func (r *Runner) regression(ctx context.Context, c suite.Case) CaseResult {
	current, fetchErr := r.fetch(ctx, c.SearchTerm, c.EntityType)
	baseline := c.BaselineRecords
	if baseline == nil || c.BaselineError != nil {
		baseline = models.NewRecordSet()
	}
	if c.BaselineError != nil {
		fields := map[string]any{"case": c.Name}
		if c.HasBaseline() {
			fields["baseline"] = c.Baseline
		}
		r.logger.WithContext(ctx).WithError(c.BaselineError).WithFields(fields).
			Warn("Baseline unavailable, comparing against an empty baseline")
	}

	rec := reconcile.ReconcileSets(c.SearchTerm, baseline, current)
	assessment := reconcile.Assess(rec, current)

	for _, res := range rec.Results {
		sum := res.Summary()
		src := string(res.Source)
		metrics.RecordPartition(src, "exact", sum.ExactMatches)
		metrics.RecordPartition(src, "modified", sum.ModifiedRecords)
		metrics.RecordPartition(src, "missing", sum.MissingRecords)
		metrics.RecordPartition(src, "new", sum.NewRecords)
	}

	cr := CaseResult{
		Status:         assessment.Status,
		FailureReasons: assessment.FailureReasons,
		Current:        current,
		Reconciliation: &rec,
		Assessment:     &assessment,
	}
	cr.Reason = regressionReason(rec, assessment)
	if c.BaselineError != nil {
		note := fmt.Sprintf("Baseline unavailable: %v", c.BaselineError)
		cr.Status = cr.Status.Worse(models.StatusWarn)
		cr.FailureReasons = append(cr.FailureReasons, note)
		cr.Reason = note + "; " + cr.Reason
	}
	return withFetchError(cr, fetchErr)
}

func regressionReason(rec reconcile.EntityReconciliation, a reconcile.Assessment) string {
	t := rec.Totals
	summary := fmt.Sprintf("%d exact, %d modified, %d missing, %d new", t.Exact, t.Modified, t.Missing, t.New)
	if len(a.FailureReasons) > 0 {
		return a.FailureReasons[0] + " (" + summary + ")"
	}
	return "No relevant regressions (" + summary + ")"
}

// relevance scores every returned record against the expected result type threshold
func (r *Runner) relevance(ctx context.Context, c suite.Case) CaseResult {
	current, fetchErr := r.fetch(ctx, c.SearchTerm, c.EntityType)
	ev := r.evaluator.Evaluate(c.SearchTerm, current.All(), c.ExpectedResultType)
	observeScores(ev)

	cr := CaseResult{
		Status:         ev.Status,
		Reason:         ev.Reason,
		FailureReasons: ev.FailureReasons,
		Current:        current,
		Evaluation:     &ev,
	}
	return withFetchError(cr, fetchErr)
}

// targeted classifies records with the case rules and checks the expected records came back
func (r *Runner) targeted(ctx context.Context, c suite.Case) CaseResult {
	current, fetchErr := r.fetch(ctx, c.SearchTerm, c.EntityType)
	ev := r.evaluator.EvaluateTargeted(c.SearchTerm, current.All(), c.RuleSet, c.Expected)
	observeScores(ev)

	cr := CaseResult{
		Status:         ev.Status,
		Reason:         ev.Reason,
		FailureReasons: ev.FailureReasons,
		Current:        current,
		Evaluation:     &ev,
	}
	return withFetchError(cr, fetchErr)
}

// benchmark compares the records returned for the original term and its variation
func (r *Runner) benchmark(ctx context.Context, c suite.Case) CaseResult {
	if c.Variation == "" {
		return CaseResult{Status: models.StatusFail, Reason: "No variation term"}
	}
	original, origErr := r.fetch(ctx, c.SearchTerm, c.EntityType)
	variation, varErr := r.fetch(ctx, c.Variation, c.EntityType)

	cmp := benchmark.Compare(original.All(), variation.All())
	cr := CaseResult{
		Status:     cmp.Status,
		Reason:     cmp.Reason,
		Current:    original,
		Comparison: &cmp,
		Variation:  c.Variation,
	}
	cr = withFetchError(cr, origErr)
	return withFetchError(cr, varErr)
}

// withFetchError fails a case whose search could not be completed
func withFetchError(cr CaseResult, fetchErr string) CaseResult {
	if fetchErr == "" {
		return cr
	}
	cr.Status = models.StatusFail
	if cr.FetchError == "" {
		cr.FetchError = fetchErr
		cr.Reason = "Search failed: " + cr.Reason
	} else {
		cr.FetchError += "; " + fetchErr
	}
	return cr
}

func observeScores(ev relevance.Evaluation) {
	for _, j := range ev.Relevant {
		metrics.RelevanceScores.Observe(j.Score)
	}
	for _, j := range ev.Irrelevant {
		metrics.RelevanceScores.Observe(j.Score)
	}
}

func (r *Runner) recordCase(ctx context.Context, result *Result, cr CaseResult) {
	metrics.RecordCase(result.Mode, string(cr.Status), cr.Duration.Seconds())

	err := r.publisher.PublishCase(ctx, &events.CaseCompletedEvent{
		EventType:  events.TypeCaseCompleted,
		RunID:      result.RunID,
		Suite:      result.Suite,
		Mode:       result.Mode,
		Case:       cr.Name,
		SearchTerm: cr.SearchTerm,
		Status:     cr.Status,
		Reason:     cr.Reason,
		DurationMs: cr.Duration.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Warnf("Failed to publish case event for %s", cr.Name)
	}
}

func (r *Runner) publishRun(ctx context.Context, result *Result) {
	err := r.publisher.PublishRun(ctx, &events.RunCompletedEvent{
		EventType:  events.TypeRunCompleted,
		RunID:      result.RunID,
		Suite:      result.Suite,
		Mode:       result.Mode,
		Status:     result.Status(),
		Total:      result.Total,
		Passed:     result.Passed,
		Warned:     result.Warned,
		Failed:     result.Failed,
		DurationMs: result.Duration.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Warn("Failed to publish run event")
	}
}
