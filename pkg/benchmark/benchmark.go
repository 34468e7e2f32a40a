package benchmark

import (
	"fmt"
	"strings"

	"github.com/Gobusters/ectolinq"
	"github.com/Ramsey-B/clover/pkg/models"
)

const (
	passThreshold = 0.8
	warnThreshold = 0.5
)

// Per-hit ICIJ name check outcomes
const (
	ICIJNameMatch       = "Name Match"
	ICIJNameMismatch    = "Name Mismatch"
	ICIJMissingNormName = "Missing Name Normalized"
)

// Hit presence labels
const (
	PresenceCommon        = "Common"
	PresenceOriginalOnly  = "Original Only"
	PresenceVariationOnly = "Variation Only"
)

// ICIJValidation checks that ICIJ records returned by both searches carry the same normalized name
type ICIJValidation struct {
	Score          float64 `json:"icij_score"`
	OriginalCount  int     `json:"icij_original_count"`
	VariationCount int     `json:"icij_variation_count"`
	CommonCount    int     `json:"icij_common_count"`
	NameMatches    int     `json:"icij_name_matches"`
	Details        string  `json:"icij_validation_details"`
}

// Hit is one record id seen by either search
type Hit struct {
	RecordID                models.RecordID `json:"record_id"`
	Presence                string          `json:"presence"`
	OriginalName            string          `json:"original_name,omitempty"`
	VariationName           string          `json:"variation_name,omitempty"`
	OriginalSource          models.Source   `json:"original_source,omitempty"`
	VariationSource         models.Source   `json:"variation_source,omitempty"`
	OriginalNameNormalized  string          `json:"original_name_normalized,omitempty"`
	VariationNameNormalized string          `json:"variation_name_normalized,omitempty"`
	ICIJStatus              string          `json:"icij_status,omitempty"`
}

// Comparison is the overlap verdict between an original search and its variation
type Comparison struct {
	OriginalCount   int               `json:"original_count"`
	VariationCount  int               `json:"variation_count"`
	CommonIDs       []models.RecordID `json:"common_ids"`
	OriginalOnlyIDs []models.RecordID `json:"original_only_ids"`
	VariationOnly   []models.RecordID `json:"variation_only_ids"`
	OverlapRatio    float64           `json:"overlap_ratio"`
	ICIJ            ICIJValidation    `json:"icij_validation"`
	Status          models.Status     `json:"status"`
	Reason          string            `json:"reason"`
	Hits            []Hit             `json:"hits"`
}

// Compare measures how many records the variation search shares with the original search
func Compare(original, variation []models.NormalizedRecord) Comparison {
	origByID := index(original)
	varByID := index(variation)

	c := Comparison{
		OriginalCount:  len(original),
		VariationCount: len(variation),
	}
	for id := range origByID {
		if _, ok := varByID[id]; ok {
			c.CommonIDs = append(c.CommonIDs, id)
		} else {
			c.OriginalOnlyIDs = append(c.OriginalOnlyIDs, id)
		}
	}
	for id := range varByID {
		if _, ok := origByID[id]; !ok {
			c.VariationOnly = append(c.VariationOnly, id)
		}
	}
	sortIDs(c.CommonIDs)
	sortIDs(c.OriginalOnlyIDs)
	sortIDs(c.VariationOnly)

	union := len(c.CommonIDs) + len(c.OriginalOnlyIDs) + len(c.VariationOnly)
	if union > 0 {
		c.OverlapRatio = float64(len(c.CommonIDs)) / float64(union)
	}

	c.ICIJ = ValidateICIJ(original, variation)
	c.Status, c.Reason = verdict(c.OverlapRatio, c.ICIJ.Score)
	c.Hits = hits(c, origByID, varByID)
	return c
}

// ValidateICIJ scores the fraction of common ICIJ records whose normalized names agree.
// With no ICIJ records on either side the score is 1.
func ValidateICIJ(original, variation []models.NormalizedRecord) ICIJValidation {
	icijOriginal := ectolinq.Filter(original, isICIJ)
	icijVariation := ectolinq.Filter(variation, isICIJ)

	v := ICIJValidation{
		OriginalCount:  len(icijOriginal),
		VariationCount: len(icijVariation),
	}
	if len(icijOriginal) == 0 && len(icijVariation) == 0 {
		v.Score = 1.0
		v.Details = "No ICIJ results found"
		return v
	}

	origNames := normalizedNames(icijOriginal)
	varNames := normalizedNames(icijVariation)
	origIDs := index(icijOriginal)
	varIDs := index(icijVariation)

	for id := range origIDs {
		if _, ok := varIDs[id]; !ok {
			continue
		}
		v.CommonCount++
		o, okO := origNames[id]
		n, okN := varNames[id]
		if okO && okN && sameName(o, n) {
			v.NameMatches++
		}
	}
	if v.CommonCount > 0 {
		v.Score = float64(v.NameMatches) / float64(v.CommonCount)
	}
	v.Details = fmt.Sprintf("ICIJ: %d common, %d name matches", v.CommonCount, v.NameMatches)
	return v
}

func verdict(overlap, icij float64) (models.Status, string) {
	switch {
	case overlap >= passThreshold && icij >= passThreshold:
		return models.StatusPass, fmt.Sprintf("High overlap: %.1f%% common results, ICIJ validation: %.1f%%", overlap*100, icij*100)
	case overlap >= warnThreshold && icij >= warnThreshold:
		return models.StatusWarn, fmt.Sprintf("Moderate overlap: %.1f%% common results, ICIJ validation: %.1f%%", overlap*100, icij*100)
	default:
		return models.StatusFail, fmt.Sprintf("Low overlap: %.1f%% common results, ICIJ validation: %.1f%%", overlap*100, icij*100)
	}
}

func hits(c Comparison, origByID, varByID map[models.RecordID]models.NormalizedRecord) []Hit {
	out := make([]Hit, 0, len(c.CommonIDs)+len(c.OriginalOnlyIDs)+len(c.VariationOnly))
	add := func(ids []models.RecordID, presence string) {
		for _, id := range ids {
			o, inOrig := origByID[id]
			n, inVar := varByID[id]
			h := Hit{RecordID: id, Presence: presence}
			if inOrig {
				h.OriginalName = o.DisplayName()
				h.OriginalSource = o.Source
				h.OriginalNameNormalized = o.NameNormalized
			}
			if inVar {
				h.VariationName = n.DisplayName()
				h.VariationSource = n.Source
				h.VariationNameNormalized = n.NameNormalized
			}
			h.ICIJStatus = icijStatus(h)
			out = append(out, h)
		}
	}
	add(c.CommonIDs, PresenceCommon)
	add(c.OriginalOnlyIDs, PresenceOriginalOnly)
	add(c.VariationOnly, PresenceVariationOnly)
	return out
}

func icijStatus(h Hit) string {
	if h.OriginalSource != models.SourceICIJ && h.VariationSource != models.SourceICIJ {
		return ""
	}
	if h.OriginalNameNormalized == "" || h.VariationNameNormalized == "" {
		return ICIJMissingNormName
	}
	if sameName(h.OriginalNameNormalized, h.VariationNameNormalized) {
		return ICIJNameMatch
	}
	return ICIJNameMismatch
}

// index keys records by id; a repeated id keeps the first occurrence
func index(records []models.NormalizedRecord) map[models.RecordID]models.NormalizedRecord {
	out := make(map[models.RecordID]models.NormalizedRecord, len(records))
	for _, rec := range records {
		if _, ok := out[rec.RecordID]; !ok {
			out[rec.RecordID] = rec
		}
	}
	return out
}

func normalizedNames(records []models.NormalizedRecord) map[models.RecordID]string {
	out := make(map[models.RecordID]string, len(records))
	for _, rec := range records {
		if rec.NameNormalized != "" {
			out[rec.RecordID] = rec.NameNormalized
		}
	}
	return out
}

func isICIJ(rec models.NormalizedRecord) bool {
	return rec.Source == models.SourceICIJ
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func sortIDs(ids []models.RecordID) {
	ectolinq.SortWhere(ids, func(a, b models.RecordID) bool { return a < b })
}
