package reconcile

import (
	"fmt"

	"github.com/Gobusters/ectolinq"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

const (
	// minWordLen excludes short words such as initials and particles from overlap checks
	minWordLen = 2

	specificOverlapThreshold = 0.5
	fullOverlapThreshold     = 0.99
	singleWordThreshold      = 0.2
	multiWordThreshold       = 0.4
)

// genericWords carry no identifying weight when matching entity names
var genericWords = map[string]struct{}{
	"national": {}, "international": {}, "global": {}, "company": {}, "ltd": {}, "llc": {},
	"inc": {}, "corp": {}, "limited": {}, "corporation": {}, "group": {}, "holdings": {},
	"the": {}, "and": {}, "of": {}, "for": {}, "dubai": {}, "emirates": {}, "saudi": {},
	"china": {}, "russia": {}, "america": {}, "united": {}, "states": {},
}

// MissingFinding is a baseline-only record whose name matches the searched entity
type MissingFinding struct {
	Source               models.Source           `json:"source"`
	Record               models.NormalizedRecord `json:"record"`
	OverlapRatio         float64                 `json:"overlap_ratio"`
	SpecificOverlapRatio float64                 `json:"specific_overlap_ratio"`
}

// IrrelevantFinding is a returned record whose name shares too little with the searched entity
type IrrelevantFinding struct {
	Source              models.Source           `json:"source"`
	Record              models.NormalizedRecord `json:"record"`
	OverlapRatio        float64                 `json:"overlap_ratio"`
	ReverseOverlapRatio float64                 `json:"reverse_overlap_ratio"`
}

// Assessment is the regression verdict for one entity
type Assessment struct {
	EntityName      string              `json:"entity_name"`
	Status          models.Status       `json:"status"`
	FailureReasons  []string            `json:"failure_reasons,omitempty"`
	RelevantMissing []MissingFinding    `json:"relevant_missing_records,omitempty"`
	Irrelevant      []IrrelevantFinding `json:"incorrect_entities,omitempty"`
}

// Assess fails an entity when relevant baseline records are missing from the current
// results or when the current results contain entities unrelated to the search
func Assess(rec EntityReconciliation, current models.RecordSet) Assessment {
	a := Assessment{EntityName: rec.EntityName, Status: models.StatusPass}

	a.RelevantMissing = RelevantMissing(rec)
	if len(a.RelevantMissing) > 0 {
		a.Status = models.StatusFail
		a.FailureReasons = append(a.FailureReasons,
			fmt.Sprintf("Missing %d relevant records in current results that exist in baseline", len(a.RelevantMissing)))
	}

	a.Irrelevant = IrrelevantReturned(rec.EntityName, current)
	if len(a.Irrelevant) > 0 {
		a.Status = models.StatusFail
		a.FailureReasons = append(a.FailureReasons,
			fmt.Sprintf("Current results returned %d irrelevant entities", len(a.Irrelevant)))
	}

	return a
}

// RelevantMissing returns the missing records whose names share the entity's specific
// words (at least half of them) or contain every entity word
func RelevantMissing(rec EntityReconciliation) []MissingFinding {
	entityWords := normalizers.NameWords(rec.EntityName, minWordLen)
	if len(entityWords) == 0 {
		return nil
	}
	entitySpecific := specific(entityWords)

	var findings []MissingFinding
	for _, res := range rec.Results {
		for _, missing := range res.Missing {
			recordWords := normalizers.NameWords(missing.AllNames(), minWordLen)
			if len(recordWords) == 0 {
				continue
			}
			specificRatio := float64(overlap(entitySpecific, specific(recordWords))) / float64(len(entitySpecific))
			totalRatio := float64(overlap(entityWords, recordWords)) / float64(len(entityWords))

			if specificRatio >= specificOverlapThreshold || totalRatio >= fullOverlapThreshold {
				findings = append(findings, MissingFinding{
					Source:               res.Source,
					Record:               missing,
					OverlapRatio:         totalRatio,
					SpecificOverlapRatio: specificRatio,
				})
			}
		}
	}
	return findings
}

// IrrelevantReturned returns current records sharing too few words with the entity in
// both directions. Single-word searches use a looser threshold.
func IrrelevantReturned(entity string, current models.RecordSet) []IrrelevantFinding {
	entityWords := normalizers.NameWords(entity, minWordLen)
	if len(entityWords) == 0 {
		return nil
	}
	threshold := multiWordThreshold
	if len(entityWords) == 1 {
		threshold = singleWordThreshold
	}

	var findings []IrrelevantFinding
	for _, src := range current.Sources() {
		for _, rec := range current.Get(src) {
			recordWords := normalizers.NameWords(rec.AllNames(), minWordLen)
			if len(recordWords) == 0 {
				continue
			}
			shared := float64(overlap(entityWords, recordWords))
			ratio := shared / float64(len(entityWords))
			reverse := shared / float64(len(recordWords))

			if ratio < threshold && reverse < threshold {
				findings = append(findings, IrrelevantFinding{
					Source:              src,
					Record:              rec,
					OverlapRatio:        ratio,
					ReverseOverlapRatio: reverse,
				})
			}
		}
	}
	return findings
}

// specific drops generic words, keeping all words when nothing specific remains
func specific(words []string) []string {
	out := ectolinq.Filter(words, func(w string) bool {
		_, generic := genericWords[w]
		return !generic
	})
	if len(out) == 0 {
		return words
	}
	return out
}

func overlap(a, b []string) int {
	return len(ectolinq.Intersect(a, b))
}
