package relevance

import (
	"fmt"

	"github.com/Gobusters/ectolinq"
	"github.com/Ramsey-B/clover/pkg/models"
)

// maxFailureReasons caps the irrelevant-result lines kept on a targeted evaluation
const maxFailureReasons = 5

// ExpectedRecord is a record a targeted search is expected to return
type ExpectedRecord struct {
	ID   string `yaml:"id" json:"id" validate:"required"`
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
}

// Expected maps a source to the records expected from it
type Expected map[models.Source][]ExpectedRecord

// Count returns the number of expected records
func (e Expected) Count() int {
	n := 0
	for _, recs := range e {
		n += len(recs)
	}
	return n
}

// Normalize returns a copy keyed by canonical source names. Keys naming the same source
// in different case are merged; unknown sources are an error.
func (e Expected) Normalize() (Expected, error) {
	if e == nil {
		return nil, nil
	}
	out := make(Expected, len(e))
	for key, recs := range e {
		src, err := models.ParseSource(string(key))
		if err != nil {
			return nil, fmt.Errorf("expected records: %w", err)
		}
		out[src] = append(out[src], recs...)
	}
	return out, nil
}

func (e Expected) contains(rec models.NormalizedRecord) bool {
	for _, exp := range e[rec.Source] {
		if exp.ID != "" && (exp.ID == rec.ExternalID || exp.ID == string(rec.RecordID)) {
			return true
		}
	}
	return false
}

// Evaluation is the relevance verdict for one search
type Evaluation struct {
	SearchTerm      string                     `json:"search_term"`
	ExpectedType    string                     `json:"expected_type,omitempty"`
	Threshold       float64                    `json:"threshold"`
	Status          models.Status              `json:"status"`
	Reason          string                     `json:"reason"`
	TotalResults    int                        `json:"total_results"`
	AverageScore    float64                    `json:"average_score"`
	Relevant        []models.RelevanceJudgment `json:"relevant"`
	Irrelevant      []models.RelevanceJudgment `json:"irrelevant"`
	ExpectedFound   int                        `json:"expected_found,omitempty"`
	MissingExpected []string                   `json:"missing_expected,omitempty"`
	FailureReasons  []string                   `json:"failure_reasons,omitempty"`
}

// Evaluator classifies search results for relevance
type Evaluator struct {
	scorer     *Scorer
	thresholds Thresholds
}

// NewEvaluator creates an Evaluator. A nil thresholds table uses DefaultThresholds.
func NewEvaluator(scorer *Scorer, thresholds Thresholds) *Evaluator {
	if scorer == nil {
		scorer = NewScorer()
	}
	if thresholds == nil {
		thresholds = DefaultThresholds()
	}
	return &Evaluator{scorer: scorer, thresholds: thresholds}
}

// Evaluate scores every record against the threshold for expectedType
func (e *Evaluator) Evaluate(searchTerm string, records []models.NormalizedRecord, expectedType string) Evaluation {
	threshold := e.thresholds.For(expectedType)
	ev := Evaluation{
		SearchTerm:   searchTerm,
		ExpectedType: expectedType,
		Threshold:    threshold,
		TotalResults: len(records),
	}

	if len(records) == 0 {
		ev.Status = models.StatusFail
		ev.Reason = "No results returned"
		return ev
	}

	judgments := ectolinq.Map(records, func(rec models.NormalizedRecord) models.RelevanceJudgment {
		return e.scorer.Judge(searchTerm, rec, threshold)
	})
	ev.Relevant, ev.Irrelevant = ectolinq.Partition(judgments, models.RelevanceJudgment.IsRelevant)
	ev.AverageScore = ectolinq.Average(ectolinq.Map(judgments, func(j models.RelevanceJudgment) float64 {
		return j.Score
	}))

	switch {
	case len(ev.Relevant) == 0:
		ev.Status = models.StatusFail
		ev.Reason = fmt.Sprintf("No relevant results found (threshold: %.2f)", threshold)
	case len(ev.Irrelevant) > len(ev.Relevant):
		ev.Status = models.StatusWarn
		ev.Reason = fmt.Sprintf("More irrelevant (%d) than relevant (%d) results", len(ev.Irrelevant), len(ev.Relevant))
	default:
		ev.Status = models.StatusPass
		ev.Reason = fmt.Sprintf("Found %d relevant results", len(ev.Relevant))
	}
	return ev
}

// EvaluateTargeted classifies records with a caller-supplied rule table, falling back to
// word overlap, and checks that the expected records were returned. Any irrelevant or
// excluded record fails the search.
func (e *Evaluator) EvaluateTargeted(searchTerm string, records []models.NormalizedRecord, rules *RuleSet, expected Expected) Evaluation {
	ev := Evaluation{
		SearchTerm:   searchTerm,
		TotalResults: len(records),
	}

	if len(records) == 0 {
		ev.Status = models.StatusFail
		ev.Reason = "No results returned"
		if n := expected.Count(); n > 0 {
			ev.Reason = fmt.Sprintf("No results returned (expected %d baseline records)", n)
			ev.MissingExpected = expectedLabels(expected, nil)
		}
		return ev
	}

	found := make(map[string]struct{})
	scores := make([]float64, 0, len(records))
	for _, rec := range records {
		verdict, ok := rules.Evaluate(rec)
		if !ok {
			verdict = DefaultVerdict(searchTerm, rec)
		}
		rs := e.scorer.ScoreRecord(searchTerm, rec)
		scores = append(scores, rs.Best)

		j := models.RelevanceJudgment{
			SearchTerm:      searchTerm,
			Record:          rec,
			Score:           rs.Best,
			FullNameScore:   rs.FullName,
			OtherNamesScore: rs.OtherNames,
			Classification:  verdict.Classification,
			Reason:          verdict.Reason,
			Expected:        expected.contains(rec),
		}
		if j.IsRelevant() {
			if j.Expected {
				found[expectedKey(rec.Source, rec.ExternalID)] = struct{}{}
				found[expectedKey(rec.Source, string(rec.RecordID))] = struct{}{}
				ev.ExpectedFound++
			}
			ev.Relevant = append(ev.Relevant, j)
		} else {
			ev.Irrelevant = append(ev.Irrelevant, j)
		}
	}
	ev.AverageScore = ectolinq.Average(scores)
	ev.MissingExpected = expectedLabels(expected, found)

	for _, j := range ectolinq.Take(ev.Irrelevant, maxFailureReasons) {
		ev.FailureReasons = append(ev.FailureReasons,
			fmt.Sprintf("Searched for '%s' but got '%s'", searchTerm, j.Record.DisplayName()))
	}

	switch {
	case len(ev.Relevant) == 0:
		ev.Status = models.StatusFail
		ev.Reason = "No relevant results found"
		if len(ev.MissingExpected) > 0 {
			ev.Reason += fmt.Sprintf(" (missing %d expected records)", len(ev.MissingExpected))
		}
	case len(ev.Irrelevant) > 0:
		ev.Status = models.StatusFail
		ev.Reason = fmt.Sprintf("Search returned irrelevant results: %d irrelevant out of %d total", len(ev.Irrelevant), len(records))
	case len(ev.MissingExpected) > 0:
		ev.Status = models.StatusWarn
		ev.Reason = fmt.Sprintf("Found %d relevant results, but missing %d expected records", len(ev.Relevant), len(ev.MissingExpected))
	default:
		ev.Status = models.StatusPass
		ev.Reason = fmt.Sprintf("Found %d relevant results", len(ev.Relevant))
		if ev.ExpectedFound > 0 {
			ev.Reason += fmt.Sprintf(" (%d match expected records)", ev.ExpectedFound)
		}
	}
	return ev
}

func expectedKey(src models.Source, id string) string {
	return string(src) + "/" + id
}

// expectedLabels lists expected records not present in found, ordered by source
func expectedLabels(expected Expected, found map[string]struct{}) []string {
	var out []string
	for _, src := range models.AllSources() {
		for _, rec := range expected[src] {
			if _, ok := found[expectedKey(src, rec.ID)]; ok {
				continue
			}
			out = append(out, fmt.Sprintf("%s - %s (%s)", rec.ID, rec.Name, src))
		}
	}
	return out
}
