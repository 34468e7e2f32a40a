package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/mockapi"
	"github.com/Ramsey-B/clover/pkg/search"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func newProber(t *testing.T, cfg Config) *Prober {
	t.Helper()
	fx := mockapi.NewFixtures()
	fx.AddJSON("acme", []byte(`{"results":[{"_index":"watch","_source":{"recid":1}},{"_index":"pep","_source":{"recid":2}}]}`))
	require.NoError(t, fx.Add(mockapi.Fixture{Query: "slow", Delay: 200 * time.Millisecond}))
	require.NoError(t, fx.Add(mockapi.Fixture{Query: "boom", Status: http.StatusInternalServerError, Body: map[string]any{"message": "stack trace here"}}))

	srv := httptest.NewServer(mockapi.New(fx, "token", testLogger()))
	t.Cleanup(srv.Close)

	client := search.NewClient(search.Config{URL: srv.URL, Token: "token"}, testLogger())
	return NewProber(client, cfg, testLogger())
}

func TestBuiltInQueries(t *testing.T) {
	injection := InjectionCases()
	edge := EdgeCases()

	require.NotEmpty(t, injection)
	require.NotEmpty(t, edge)
	assert.Equal(t, KindInjection, injection[0].Kind)
	assert.Equal(t, KindEdgeCase, edge[0].Kind)
	assert.Equal(t, "", edge[0].Text)
	assert.Len(t, Take(edge, 3), 3)
	assert.Len(t, Take(edge, 0), len(edge))
}

func TestLoadQueries(t *testing.T) {
	queries, err := LoadQueries(strings.NewReader(`
injection:
  - "' OR 1=1"
edge_cases:
  - "a"
  - "b"
`))
	require.NoError(t, err)
	require.Len(t, queries, 3)
	assert.Equal(t, Query{Text: "' OR 1=1", Kind: KindInjection}, queries[0])
	assert.Equal(t, KindEdgeCase, queries[2].Kind)

	_, err = LoadQueries(strings.NewReader("injection: [oops"))
	assert.Error(t, err)
}

func TestProbe(t *testing.T) {
	p := newProber(t, Config{Timeout: 50 * time.Millisecond})
	ctx := context.Background()

	ok := p.Probe(ctx, Query{Text: "acme", Kind: KindEdgeCase})
	assert.True(t, ok.Success)
	assert.Equal(t, "200", ok.Status)
	assert.Equal(t, 2, ok.ResultCount)
	assert.Positive(t, ok.ResponseSize)
	assert.Empty(t, ok.ErrorMessage)

	empty := p.Probe(ctx, Query{Text: "", Kind: KindEdgeCase})
	assert.False(t, empty.Success)
	assert.Equal(t, "400", empty.Status)
	assert.NotEmpty(t, empty.ErrorMessage)

	long := p.Probe(ctx, Query{Text: strings.Repeat("A", 10000), Kind: KindInjection})
	assert.Equal(t, "400", long.Status)

	boom := p.Probe(ctx, Query{Text: "boom", Kind: KindInjection})
	assert.Equal(t, "500", boom.Status)
	assert.Contains(t, boom.ErrorMessage, "stack trace here")

	slow := p.Probe(ctx, Query{Text: "slow", Kind: KindInjection})
	assert.Equal(t, StatusTimeout, slow.Status)
	assert.Equal(t, "Request timed out", slow.ErrorMessage)
	assert.False(t, slow.Success)
}

func TestProbe_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewProber(search.NewClient(search.Config{URL: url}, testLogger()), Config{}, testLogger())
	res := p.Probe(context.Background(), Query{Text: "acme", Kind: KindInjection})

	assert.Equal(t, StatusError, res.Status)
	assert.NotEmpty(t, res.ErrorMessage)
}

func TestRun(t *testing.T) {
	p := newProber(t, Config{InjectionDelay: time.Millisecond, EdgeDelay: time.Millisecond})

	results, err := p.Run(context.Background(), []Query{
		{Text: "acme", Kind: KindEdgeCase},
		{Text: "boom", Kind: KindInjection},
		{Text: "", Kind: KindEdgeCase},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "acme", results[0].Query)
	assert.Equal(t, "500", results[1].Status)
}

func TestRun_Cancelled(t *testing.T) {
	p := newProber(t, Config{InjectionDelay: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	results, err := p.Run(ctx, []Query{
		{Text: "acme", Kind: KindInjection},
		{Text: "acme", Kind: KindInjection},
	})
	assert.Error(t, err)
	assert.Len(t, results, 1)
}

func TestAnalyze(t *testing.T) {
	results := []Result{
		{Kind: KindEdgeCase, Status: "200", Success: true, ResponseTime: 100 * time.Millisecond},
		{Kind: KindEdgeCase, Status: "200", Success: true, ResponseTime: 100 * time.Millisecond},
		{Kind: KindEdgeCase, Status: "200", Success: true, ResponseTime: 100 * time.Millisecond},
		{Kind: KindEdgeCase, Status: "200", Success: true, ResponseTime: 100 * time.Millisecond},
		{Kind: KindInjection, Status: "200", Success: true, ResponseTime: 6 * time.Second},
		{Kind: KindInjection, Status: "500", ErrorMessage: "internal failure"},
		{Kind: KindInjection, Status: "400", ErrorMessage: "bad request"},
		{Kind: KindInjection, Status: "400", ErrorMessage: "bad request"},
		{Kind: KindInjection, Status: StatusTimeout, ErrorMessage: strings.Repeat("x", 80)},
	}

	a := Analyze(results)

	assert.Equal(t, 9, a.Total)
	assert.Equal(t, 5, a.Successful)
	assert.Equal(t, 4, a.Failed)
	assert.Equal(t, 5, a.InjectionTests)
	assert.Equal(t, 4, a.EdgeCaseTests)
	assert.Equal(t, map[string]int{"200": 5, "500": 1, "400": 2, StatusTimeout: 1}, a.StatusCodes)
	assert.Equal(t, 1280*time.Millisecond, a.AverageResponseTime)
	assert.Equal(t, 6*time.Second, a.MaxResponseTime)
	require.Len(t, a.SlowResponses, 1)
	assert.Equal(t, 6*time.Second, a.SlowResponses[0].ResponseTime)

	require.Len(t, a.ErrorPatterns, 3)
	assert.Equal(t, ErrorPattern{Message: "bad request", Count: 2}, a.ErrorPatterns[0])
	assert.Equal(t, strings.Repeat("x", 50), a.ErrorPatterns[2].Message)

	assert.True(t, a.HighFailureRate)
	assert.True(t, a.ServerErrors)
	assert.True(t, a.SlowQueries)
	assert.Len(t, a.Findings, 4)
}

func TestAnalyze_Stable(t *testing.T) {
	a := Analyze([]Result{{Status: "200", Success: true, ResponseTime: time.Second}})

	assert.False(t, a.HighFailureRate)
	assert.False(t, a.ServerErrors)
	assert.False(t, a.SlowQueries)
	assert.Empty(t, a.ErrorPatterns)
	assert.Equal(t, []string{"Low failure rate: the API appears stable"}, a.Findings)
}
