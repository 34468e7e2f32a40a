package reconcile

import (
	"testing"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevantMissing(t *testing.T) {
	baseline := models.RecordSet{
		models.SourceWatch: {
			rec("1", "National Bank of Dubai"),
			rec("2", "Emirates Islamic Finance"),
			rec("3", "Dubai Holdings Group"),
		},
	}
	out := ReconcileSets("National Bank of Dubai", baseline, models.NewRecordSet())

	findings := RelevantMissing(out)
	require.Len(t, findings, 1)
	assert.Equal(t, models.RecordID("1"), findings[0].Record.RecordID)
	assert.Equal(t, 1.0, findings[0].OverlapRatio)
	assert.Equal(t, 1.0, findings[0].SpecificOverlapRatio)
}

func TestRelevantMissingGenericOnlyEntity(t *testing.T) {
	baseline := models.RecordSet{
		models.SourceSOE: {rec("1", "United States Company"), rec("2", "Unity Holdings")},
	}
	out := ReconcileSets("United States", baseline, nil)

	findings := RelevantMissing(out)
	require.Len(t, findings, 1)
	assert.Equal(t, models.RecordID("1"), findings[0].Record.RecordID)
}

func TestIrrelevantReturned(t *testing.T) {
	current := models.RecordSet{
		models.SourceWatch: {
			rec("1", "Sigma Airlines"),
			rec("2", "Blue Harbor Shipping"),
		},
		models.SourceSanction: {rec("3", "Air Sigma")},
	}

	findings := IrrelevantReturned("Sigma Airline", current)
	require.Len(t, findings, 1)
	assert.Equal(t, models.RecordID("2"), findings[0].Record.RecordID)
	assert.Equal(t, models.SourceWatch, findings[0].Source)
	assert.Equal(t, 0.0, findings[0].OverlapRatio)
}

func TestIrrelevantReturnedSingleWordThreshold(t *testing.T) {
	current := models.RecordSet{
		models.SourceWatch: {
			{RecordID: "1", FullName: "Rbi Trading Company Limited International"},
			{RecordID: "2", FullName: "Acme Trading Company Limited"},
		},
	}
	findings := IrrelevantReturned("RBI", current)
	require.Len(t, findings, 1)
	assert.Equal(t, models.RecordID("2"), findings[0].Record.RecordID)
}

func TestAssess(t *testing.T) {
	baseline := models.RecordSet{models.SourceWatch: {rec("1", "Thomas Nikolaus"), rec("2", "Nikolaus Thomas Gmbh")}}
	current := models.RecordSet{models.SourceWatch: {rec("2", "Nikolaus Thomas Gmbh"), rec("3", "Delta Cargo")}}

	a := Assess(ReconcileSets("Thomas Nikolaus", baseline, current), current)
	assert.Equal(t, models.StatusFail, a.Status)
	assert.Len(t, a.RelevantMissing, 1)
	assert.Len(t, a.Irrelevant, 1)
	assert.Equal(t, []string{
		"Missing 1 relevant records in current results that exist in baseline",
		"Current results returned 1 irrelevant entities",
	}, a.FailureReasons)

	clean := models.RecordSet{models.SourceWatch: {rec("1", "Thomas Nikolaus")}}
	a = Assess(ReconcileSets("Thomas Nikolaus", clean, clean), clean)
	assert.Equal(t, models.StatusPass, a.Status)
	assert.Empty(t, a.FailureReasons)
}
