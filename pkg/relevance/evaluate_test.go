package relevance

import (
	"testing"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id, name string, src models.Source) models.NormalizedRecord {
	return models.NormalizedRecord{RecordID: models.RecordID(id), ExternalID: id, FullName: name, Source: src}
}

func TestEvaluateNoResults(t *testing.T) {
	ev := NewEvaluator(nil, nil).Evaluate("Microsoft", nil, ExactMatch)
	assert.Equal(t, models.StatusFail, ev.Status)
	assert.Equal(t, "No results returned", ev.Reason)
	assert.Equal(t, 0.0, ev.AverageScore)
}

func TestEvaluatePass(t *testing.T) {
	records := []models.NormalizedRecord{
		record("1", "Microsoft Corporation", models.SourceWatch),
		record("2", "Microsoft", models.SourceSanction),
		record("3", "Coca-Cola Bottling", models.SourceSOE),
	}
	ev := NewEvaluator(nil, nil).Evaluate("Microsoft", records, ExactMatch)

	assert.Equal(t, models.StatusPass, ev.Status)
	assert.Len(t, ev.Relevant, 2)
	assert.Len(t, ev.Irrelevant, 1)
	assert.Equal(t, 0.6, ev.Threshold)
	assert.Equal(t, 3, ev.TotalResults)
	assert.Equal(t, "Found 2 relevant results", ev.Reason)
	assert.Greater(t, ev.AverageScore, 0.6)
}

func TestEvaluateWarnWhenMostlyIrrelevant(t *testing.T) {
	records := []models.NormalizedRecord{
		record("1", "Microsoft", models.SourceWatch),
		record("2", "Zenith Holdings", models.SourceWatch),
		record("3", "Blue Harbor Shipping", models.SourceWatch),
	}
	ev := NewEvaluator(nil, nil).Evaluate("Microsoft", records, ExactMatch)
	assert.Equal(t, models.StatusWarn, ev.Status)
	assert.Equal(t, "More irrelevant (2) than relevant (1) results", ev.Reason)
}

func TestEvaluateFailWhenNothingRelevant(t *testing.T) {
	records := []models.NormalizedRecord{record("1", "unrelated corp", models.SourceWatch)}
	ev := NewEvaluator(nil, nil).Evaluate("coca-cola", records, BroadButRelevant)
	assert.Equal(t, models.StatusFail, ev.Status)
	assert.Equal(t, "No relevant results found (threshold: 0.25)", ev.Reason)
}

func TestEvaluateTargetedWithRules(t *testing.T) {
	rules, err := Rules{
		{Pattern: "microsoft corporation", Verdict: models.Relevant},
		{Pattern: "microsoft ireland", Verdict: models.Excluded, Reason: "subsidiary"},
		{Pattern: "microsoft", Verdict: models.Relevant},
	}.Compile()
	require.NoError(t, err)

	records := []models.NormalizedRecord{
		record("20201", "Microsoft Corporation", models.SourceWatch),
		record("20202", "Microsoft Ireland Operations", models.SourceWatch),
	}
	ev := NewEvaluator(nil, nil).EvaluateTargeted("Microsoft", records, rules, nil)

	assert.Equal(t, models.StatusFail, ev.Status)
	require.Len(t, ev.Irrelevant, 1)
	assert.Equal(t, models.Excluded, ev.Irrelevant[0].Classification)
	assert.Equal(t, "subsidiary", ev.Irrelevant[0].Reason)
	assert.Equal(t, []string{"Searched for 'Microsoft' but got 'Microsoft Ireland Operations'"}, ev.FailureReasons)
}

func TestEvaluateTargetedExpectedRecords(t *testing.T) {
	expected := Expected{
		models.SourceWatch: {{ID: "20200088215", Name: "Thomas Nikolaus"}},
		models.SourcePEP:   {{ID: "10100000001", Name: "Thomas Nikolaus"}},
	}
	records := []models.NormalizedRecord{record("20200088215", "Thomas Nikolaus", models.SourceWatch)}

	ev := NewEvaluator(nil, nil).EvaluateTargeted("Thomas Nikolaus", records, nil, expected)
	assert.Equal(t, models.StatusWarn, ev.Status)
	assert.Equal(t, 1, ev.ExpectedFound)
	assert.True(t, ev.Relevant[0].Expected)
	assert.Equal(t, []string{"10100000001 - Thomas Nikolaus (pep)"}, ev.MissingExpected)

	delete(expected, models.SourcePEP)
	ev = NewEvaluator(nil, nil).EvaluateTargeted("Thomas Nikolaus", records, nil, expected)
	assert.Equal(t, models.StatusPass, ev.Status)
	assert.Equal(t, "Found 1 relevant results (1 match expected records)", ev.Reason)
}

func TestEvaluateTargetedNoResults(t *testing.T) {
	expected := Expected{models.SourceWatch: {{ID: "1", Name: "A"}, {ID: "2", Name: "B"}}}
	ev := NewEvaluator(nil, nil).EvaluateTargeted("nbd", nil, nil, expected)
	assert.Equal(t, models.StatusFail, ev.Status)
	assert.Equal(t, "No results returned (expected 2 baseline records)", ev.Reason)
	assert.Len(t, ev.MissingExpected, 2)
}

func TestExpectedNormalize(t *testing.T) {
	t.Run("should canonicalize and merge source keys", func(t *testing.T) {
		exp, err := Expected{
			"WATCH": {{ID: "999", Name: "Acme Trading LLC"}},
			"watch": {{ID: "1000"}},
		}.Normalize()
		require.NoError(t, err)
		assert.Len(t, exp[models.SourceWatch], 2)

		ev := NewEvaluator(nil, nil).EvaluateTargeted("Acme Trading",
			[]models.NormalizedRecord{record("1000", "Acme Trading", models.SourceWatch)}, nil, exp)
		assert.Equal(t, models.StatusWarn, ev.Status)
		assert.Equal(t, []string{"999 - Acme Trading LLC (watch)"}, ev.MissingExpected)
	})

	t.Run("should reject unknown sources", func(t *testing.T) {
		_, err := Expected{"sanctions": {{ID: "1"}}}.Normalize()
		assert.ErrorContains(t, err, `unknown source "sanctions"`)
	})
}
