// Package reconcile diffs a baseline record set against a freshly fetched one
package reconcile

import (
	"github.com/Ramsey-B/clover/pkg/models"
)

// Reconcile partitions two record lists of one source by record id into matched
// (exact or modified), missing (baseline only) and new (current only).
// Duplicate ids within a side keep the last record seen, at the position the id first appeared.
func Reconcile(baseline, current []models.NormalizedRecord) models.ReconciliationResult {
	result := models.ReconciliationResult{
		BaselineCount: len(baseline),
		CurrentCount:  len(current),
		Matched:       []models.MatchedRecord{},
		Missing:       []models.NormalizedRecord{},
		New:           []models.NormalizedRecord{},
	}

	base := buildIndex(baseline)
	curr := buildIndex(current)

	for _, id := range base.order {
		b := base.byID[id]
		c, ok := curr.byID[id]
		if !ok {
			result.Missing = append(result.Missing, b)
			continue
		}
		changes := Diff(b, c)
		match := models.MatchedRecord{Record: b, Current: c, Status: models.MatchExact}
		if len(changes) > 0 {
			match.Status = models.MatchModified
			match.Changes = changes
		}
		result.Matched = append(result.Matched, match)
	}

	for _, id := range curr.order {
		if _, ok := base.byID[id]; !ok {
			result.New = append(result.New, curr.byID[id])
		}
	}

	return result
}

// Diff compares the tracked fields of two records and returns the differing ones
func Diff(baseline, current models.NormalizedRecord) map[string]models.FieldChange {
	var changes map[string]models.FieldChange
	for _, field := range models.TrackedFields {
		old, cur := baseline.Field(field), current.Field(field)
		if old == cur {
			continue
		}
		if changes == nil {
			changes = make(map[string]models.FieldChange)
		}
		changes[field] = models.FieldChange{Old: old, New: cur}
	}
	return changes
}

type index struct {
	order []models.RecordID
	byID  map[models.RecordID]models.NormalizedRecord
}

func buildIndex(records []models.NormalizedRecord) index {
	idx := index{
		order: make([]models.RecordID, 0, len(records)),
		byID:  make(map[models.RecordID]models.NormalizedRecord, len(records)),
	}
	for _, rec := range records {
		if _, seen := idx.byID[rec.RecordID]; !seen {
			idx.order = append(idx.order, rec.RecordID)
		}
		idx.byID[rec.RecordID] = rec
	}
	return idx
}
