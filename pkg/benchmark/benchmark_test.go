package benchmark

import (
	"testing"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id string, src models.Source, name, normalized string) models.NormalizedRecord {
	return models.NormalizedRecord{
		RecordID:       models.RecordID(id),
		ExternalID:     id,
		Source:         src,
		FullName:       name,
		NameNormalized: normalized,
	}
}

func watchRecords(ids ...string) []models.NormalizedRecord {
	out := make([]models.NormalizedRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, rec(id, models.SourceWatch, "Name "+id, ""))
	}
	return out
}

func TestCompare_IdenticalResults(t *testing.T) {
	records := watchRecords("1", "2", "3")

	c := Compare(records, records)

	assert.Equal(t, 1.0, c.OverlapRatio)
	assert.Len(t, c.CommonIDs, 3)
	assert.Empty(t, c.OriginalOnlyIDs)
	assert.Empty(t, c.VariationOnly)
	assert.Equal(t, models.StatusPass, c.Status)
	assert.Equal(t, "High overlap: 100.0% common results, ICIJ validation: 100.0%", c.Reason)
	assert.Equal(t, "No ICIJ results found", c.ICIJ.Details)
}

func TestCompare_PartialOverlap(t *testing.T) {
	original := watchRecords("1", "2", "3", "4")
	variation := watchRecords("2", "3", "4", "5")

	c := Compare(original, variation)

	// 3 common out of 5 unique
	assert.InDelta(t, 0.6, c.OverlapRatio, 1e-9)
	assert.Equal(t, []models.RecordID{"2", "3", "4"}, c.CommonIDs)
	assert.Equal(t, []models.RecordID{"1"}, c.OriginalOnlyIDs)
	assert.Equal(t, []models.RecordID{"5"}, c.VariationOnly)
	assert.Equal(t, models.StatusWarn, c.Status)
	assert.Contains(t, c.Reason, "Moderate overlap: 60.0%")
}

func TestCompare_LowOverlap(t *testing.T) {
	c := Compare(watchRecords("1", "2"), watchRecords("3", "4"))

	assert.Equal(t, 0.0, c.OverlapRatio)
	assert.Equal(t, models.StatusFail, c.Status)
	assert.Contains(t, c.Reason, "Low overlap")
}

func TestCompare_BothEmpty(t *testing.T) {
	c := Compare(nil, nil)

	assert.Equal(t, 0.0, c.OverlapRatio)
	assert.Equal(t, models.StatusFail, c.Status)
	assert.Empty(t, c.Hits)
}

func TestCompare_HitPresence(t *testing.T) {
	original := []models.NormalizedRecord{
		rec("1", models.SourceWatch, "John Smith", ""),
		rec("2", models.SourceWatch, "Jane Doe", ""),
	}
	variation := []models.NormalizedRecord{
		rec("1", models.SourceWatch, "John Smyth", ""),
		rec("3", models.SourceWatch, "Jon Smith", ""),
	}

	c := Compare(original, variation)

	require.Len(t, c.Hits, 3)
	assert.Equal(t, PresenceCommon, c.Hits[0].Presence)
	assert.Equal(t, "John Smith", c.Hits[0].OriginalName)
	assert.Equal(t, "John Smyth", c.Hits[0].VariationName)
	assert.Equal(t, PresenceOriginalOnly, c.Hits[1].Presence)
	assert.Equal(t, models.RecordID("2"), c.Hits[1].RecordID)
	assert.Empty(t, c.Hits[1].VariationName)
	assert.Equal(t, PresenceVariationOnly, c.Hits[2].Presence)
	assert.Empty(t, c.Hits[2].ICIJStatus)
}

func TestValidateICIJ(t *testing.T) {
	tests := []struct {
		name      string
		original  []models.NormalizedRecord
		variation []models.NormalizedRecord
		score     float64
		common    int
		matches   int
		details   string
	}{
		{
			name:      "no icij records",
			original:  watchRecords("1"),
			variation: watchRecords("1"),
			score:     1.0,
			details:   "No ICIJ results found",
		},
		{
			name:      "names agree ignoring case and spaces",
			original:  []models.NormalizedRecord{rec("801", models.SourceICIJ, "", "acme holdings")},
			variation: []models.NormalizedRecord{rec("801", models.SourceICIJ, "", " ACME Holdings ")},
			score:     1.0,
			common:    1,
			matches:   1,
			details:   "ICIJ: 1 common, 1 name matches",
		},
		{
			name: "one mismatch",
			original: []models.NormalizedRecord{
				rec("801", models.SourceICIJ, "", "acme holdings"),
				rec("802", models.SourceICIJ, "", "beta trading"),
			},
			variation: []models.NormalizedRecord{
				rec("801", models.SourceICIJ, "", "acme holdings"),
				rec("802", models.SourceICIJ, "", "gamma trading"),
			},
			score:   0.5,
			common:  2,
			matches: 1,
			details: "ICIJ: 2 common, 1 name matches",
		},
		{
			name:      "no common ids",
			original:  []models.NormalizedRecord{rec("801", models.SourceICIJ, "", "acme")},
			variation: []models.NormalizedRecord{rec("802", models.SourceICIJ, "", "acme")},
			score:     0.0,
			details:   "ICIJ: 0 common, 0 name matches",
		},
		{
			name:      "missing normalized name does not match",
			original:  []models.NormalizedRecord{rec("801", models.SourceICIJ, "Acme", "")},
			variation: []models.NormalizedRecord{rec("801", models.SourceICIJ, "Acme", "acme")},
			score:     0.0,
			common:    1,
			details:   "ICIJ: 1 common, 0 name matches",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ValidateICIJ(tt.original, tt.variation)
			assert.InDelta(t, tt.score, v.Score, 1e-9)
			assert.Equal(t, tt.common, v.CommonCount)
			assert.Equal(t, tt.matches, v.NameMatches)
			assert.Equal(t, tt.details, v.Details)
		})
	}
}

func TestCompare_ICIJMismatchFailsHighOverlap(t *testing.T) {
	original := []models.NormalizedRecord{rec("801", models.SourceICIJ, "", "acme holdings")}
	variation := []models.NormalizedRecord{rec("801", models.SourceICIJ, "", "other name")}

	c := Compare(original, variation)

	assert.Equal(t, 1.0, c.OverlapRatio)
	assert.Equal(t, 0.0, c.ICIJ.Score)
	assert.Equal(t, models.StatusFail, c.Status)
	require.Len(t, c.Hits, 1)
	assert.Equal(t, ICIJNameMismatch, c.Hits[0].ICIJStatus)
}

func TestCompare_ICIJHitStatus(t *testing.T) {
	original := []models.NormalizedRecord{
		rec("801", models.SourceICIJ, "", "acme"),
		rec("802", models.SourceICIJ, "", "beta"),
	}
	variation := []models.NormalizedRecord{rec("801", models.SourceICIJ, "", "ACME")}

	c := Compare(original, variation)

	require.Len(t, c.Hits, 2)
	assert.Equal(t, ICIJNameMatch, c.Hits[0].ICIJStatus)
	assert.Equal(t, ICIJMissingNormName, c.Hits[1].ICIJStatus)
}
