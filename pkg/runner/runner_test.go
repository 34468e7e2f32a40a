package runner

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/mockapi"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/relevance"
	"github.com/Ramsey-B/clover/pkg/search"
	"github.com/Ramsey-B/clover/pkg/suite"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type recordingPublisher struct {
	mu    sync.Mutex
	cases []events.CaseCompletedEvent
	runs  []events.RunCompletedEvent
}

func (p *recordingPublisher) PublishCase(_ context.Context, e *events.CaseCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cases = append(p.cases, *e)
	return nil
}

func (p *recordingPublisher) PublishRun(_ context.Context, e *events.RunCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runs = append(p.runs, *e)
	return errors.New("broker unavailable")
}

func (p *recordingPublisher) Close() error { return nil }

func newSearcher(t *testing.T) *search.Client {
	t.Helper()
	fx := mockapi.NewFixtures()
	fx.AddJSON("mirage aircraft", []byte(`{"results":[
		{"_index":"watch","_source":{"recid":1001,"Full_Name":"Mirage Aircraft"}},
		{"_index":"watch","_source":{"recid":1002,"Full_Name":"Totally Different Corp"}}
	]}`))
	fx.AddJSON("acme trading", []byte(`{"results":[
		{"_index":"watch","_source":{"recid":2001,"Full_Name":"Acme Trading"}}
	]}`))
	fx.AddJSON("akme trading", []byte(`{"results":[
		{"_index":"watch","_source":{"recid":2001,"Full_Name":"Acme Trading"}}
	]}`))
	require.NoError(t, fx.Add(mockapi.Fixture{Query: "down", Status: http.StatusServiceUnavailable, Body: map[string]any{"message": "down"}}))

	srv := httptest.NewServer(mockapi.New(fx, "token", testLogger()))
	t.Cleanup(srv.Close)

	return search.NewClient(search.Config{URL: srv.URL, Token: "token"}, testLogger())
}

func acmeBaseline(extra ...models.NormalizedRecord) models.RecordSet {
	set := models.NewRecordSet()
	set.Add(models.NormalizedRecord{RecordID: "2001", ExternalID: "2001", Source: models.SourceWatch, FullName: "Acme Trading"})
	for _, rec := range extra {
		set.Add(rec)
	}
	return set
}

func newRunner(t *testing.T, cfg Config, opts ...Option) (*Runner, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	opts = append(opts, WithOutput(out))
	return New(newSearcher(t), cfg, testLogger(), opts...), out
}

func TestRun_Relevance(t *testing.T) {
	r, out := newRunner(t, Config{Verbose: true})
	s := &suite.Suite{Name: "smoke", Cases: []suite.Case{
		{Name: "mirage", SearchTerm: "Mirage Aircraft", ExpectedResultType: relevance.ExactMatch},
		{Name: "nothing", SearchTerm: "unknown query", ExpectedResultType: relevance.ExactMatch},
	}}

	result, err := r.Run(context.Background(), s, suite.ModeRelevance)
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, models.StatusFail, result.Status())

	mirage := result.Cases[0]
	assert.Equal(t, models.StatusPass, mirage.Status)
	assert.Equal(t, "Found 1 relevant results", mirage.Reason)
	require.NotNil(t, mirage.Evaluation)
	assert.Len(t, mirage.Evaluation.Irrelevant, 1)
	assert.Equal(t, 2, mirage.Current.Count())

	assert.Equal(t, "No results returned", result.Cases[1].Reason)

	assert.Contains(t, out.String(), "▶ Running: mirage")
	assert.Contains(t, out.String(), "✓ PASSED: mirage")
	assert.Contains(t, out.String(), "✗ FAILED: nothing")
}

func TestRun_FetchErrorFailsSoft(t *testing.T) {
	r, out := newRunner(t, Config{ShowFailures: true})
	s := &suite.Suite{Name: "errors", Cases: []suite.Case{
		{Name: "down", SearchTerm: "down"},
		{Name: "acme", SearchTerm: "acme trading"},
	}}

	result, err := r.Run(context.Background(), s, suite.ModeRelevance)
	require.NoError(t, err)
	require.Len(t, result.Cases, 2)

	down := result.Cases[0]
	assert.Equal(t, models.StatusFail, down.Status)
	assert.Contains(t, down.FetchError, "503")
	assert.Contains(t, down.Reason, "Search failed")
	assert.Equal(t, models.StatusPass, result.Cases[1].Status)
	assert.Contains(t, out.String(), "Error:")
}

func TestRun_Regression(t *testing.T) {
	r, _ := newRunner(t, Config{})
	s := &suite.Suite{Name: "regression", Cases: []suite.Case{
		{Name: "unchanged", SearchTerm: "acme trading", BaselineRecords: acmeBaseline()},
		{Name: "dropped", SearchTerm: "acme trading", BaselineRecords: acmeBaseline(models.NormalizedRecord{
			RecordID: "2002", ExternalID: "2002", Source: models.SourceWatch, FullName: "Acme Trading Ltd",
		})},
		{Name: "broken", SearchTerm: "acme trading", BaselineError: errors.New("bad payload")},
	}}

	result, err := r.Run(context.Background(), s, suite.ModeRegression)
	require.NoError(t, err)
	require.Len(t, result.Cases, 3)

	unchanged := result.Cases[0]
	assert.Equal(t, models.StatusPass, unchanged.Status)
	require.NotNil(t, unchanged.Reconciliation)
	assert.Equal(t, 1, unchanged.Reconciliation.Totals.Exact)
	assert.Equal(t, "No relevant regressions (1 exact, 0 modified, 0 missing, 0 new)", unchanged.Reason)

	dropped := result.Cases[1]
	assert.Equal(t, models.StatusFail, dropped.Status)
	require.NotNil(t, dropped.Assessment)
	require.Len(t, dropped.Assessment.RelevantMissing, 1)
	assert.Equal(t, models.RecordID("2002"), dropped.Assessment.RelevantMissing[0].Record.RecordID)

	broken := result.Cases[2]
	assert.Equal(t, models.StatusWarn, broken.Status)
	require.NotNil(t, broken.Reconciliation)
	assert.Equal(t, 1, broken.Reconciliation.Totals.New)
	assert.Equal(t, 1, broken.Current.Count())
	assert.Equal(t, "Baseline unavailable: bad payload; No relevant regressions (0 exact, 0 modified, 0 missing, 1 new)", broken.Reason)
	assert.Contains(t, broken.FailureReasons, "Baseline unavailable: bad payload")
}

func TestRun_Targeted(t *testing.T) {
	r, _ := newRunner(t, Config{})
	s := &suite.Suite{Name: "targeted", Cases: []suite.Case{
		{
			Name:       "acme",
			SearchTerm: "acme trading",
			Expected:   relevance.Expected{models.SourceWatch: {{ID: "2001"}}},
		},
		{
			Name:       "mirage",
			SearchTerm: "mirage aircraft",
		},
	}}

	result, err := r.Run(context.Background(), s, suite.ModeTargeted)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPass, result.Cases[0].Status)
	assert.Equal(t, 1, result.Cases[0].Evaluation.ExpectedFound)
	assert.Equal(t, models.StatusFail, result.Cases[1].Status)
	assert.NotEmpty(t, result.Cases[1].FailureReasons)
}

func TestRun_Benchmark(t *testing.T) {
	r, _ := newRunner(t, Config{})
	s := &suite.Suite{Name: "variations", Mode: suite.ModeBenchmark, Cases: []suite.Case{
		{Name: "typo", SearchTerm: "acme trading", Variation: "akme trading"},
		{Name: "miss", SearchTerm: "acme trading", Variation: "nothing here"},
		{Name: "no variation", SearchTerm: "acme trading"},
	}}

	result, err := r.Run(context.Background(), s, "")
	require.NoError(t, err)
	assert.Equal(t, suite.ModeBenchmark, result.Mode)

	typo := result.Cases[0]
	assert.Equal(t, models.StatusPass, typo.Status)
	require.NotNil(t, typo.Comparison)
	assert.Equal(t, 1.0, typo.Comparison.OverlapRatio)
	assert.Equal(t, "akme trading", typo.Variation)

	assert.Equal(t, models.StatusFail, result.Cases[1].Status)
	assert.Equal(t, "No variation term", result.Cases[2].Reason)
}

func TestRun_ParallelKeepsOrder(t *testing.T) {
	pub := &recordingPublisher{}
	r, _ := newRunner(t, Config{Workers: 4}, WithPublisher(pub))

	var cases []suite.Case
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		cases = append(cases, suite.Case{Name: name, SearchTerm: "acme trading"})
	}
	s := &suite.Suite{Name: "parallel", Cases: cases}

	result, err := r.Run(context.Background(), s, suite.ModeRelevance)
	require.NoError(t, err)

	require.Len(t, result.Cases, 6)
	for i, c := range result.Cases {
		assert.Equal(t, cases[i].Name, c.Name)
	}
	assert.Equal(t, 6, result.Passed)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Len(t, pub.cases, 6)
	require.Len(t, pub.runs, 1)
	assert.Equal(t, result.RunID, pub.runs[0].RunID)
	assert.Equal(t, models.StatusPass, pub.runs[0].Status)
	assert.Equal(t, events.TypeRunCompleted, pub.runs[0].EventType)
}

func TestRun_StopOnFailure(t *testing.T) {
	r, out := newRunner(t, Config{StopOnFailure: true})
	s := &suite.Suite{Name: "stop", Cases: []suite.Case{
		{Name: "first", SearchTerm: "unknown"},
		{Name: "second", SearchTerm: "acme trading"},
	}}

	result, err := r.Run(context.Background(), s, suite.ModeRelevance)
	require.NoError(t, err)

	assert.Len(t, result.Cases, 1)
	assert.Equal(t, 1, result.Skipped)
	assert.Contains(t, out.String(), "Stopping after failure: first")

	r.PrintSummary(result)
	assert.Contains(t, out.String(), "stop (relevance): 2 total, 0 passed, 0 warned, 1 failed, 1 skipped")
}

func TestRun_UnknownMode(t *testing.T) {
	r, _ := newRunner(t, Config{})
	_, err := r.Run(context.Background(), &suite.Suite{Name: "x"}, "fuzz")
	assert.Error(t, err)
}
