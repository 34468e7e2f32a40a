package reconcile

import (
	"sort"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Totals aggregates partition counts across every source of an entity
type Totals struct {
	Baseline int `json:"total_baseline_records"`
	Current  int `json:"total_current_records"`
	Exact    int `json:"total_exact_records"`
	Modified int `json:"total_modified_records"`
	Common   int `json:"total_common_records"`
	Missing  int `json:"total_missing_records"`
	New      int `json:"total_new_records"`
}

// EntityReconciliation is the diff of every source for one searched entity
type EntityReconciliation struct {
	EntityName string                        `json:"entity_name"`
	Results    []models.ReconciliationResult `json:"sources"`
	Totals     Totals                        `json:"totals"`
}

// ReconcileSets reconciles each source present in either set
func ReconcileSets(entity string, baseline, current models.RecordSet) EntityReconciliation {
	out := EntityReconciliation{EntityName: entity}

	for _, src := range unionSources(baseline, current) {
		res := Reconcile(baseline.Get(src), current.Get(src))
		res.EntityName = entity
		res.Source = src
		out.Results = append(out.Results, res)

		sum := res.Summary()
		out.Totals.Baseline += sum.BaselineCount
		out.Totals.Current += sum.CurrentCount
		out.Totals.Exact += sum.ExactMatches
		out.Totals.Modified += sum.ModifiedRecords
		out.Totals.Common += len(res.Matched)
		out.Totals.Missing += sum.MissingRecords
		out.Totals.New += sum.NewRecords
	}

	return out
}

// Result returns the reconciliation for a source
func (e EntityReconciliation) Result(src models.Source) (models.ReconciliationResult, bool) {
	for _, r := range e.Results {
		if r.Source == src {
			return r, true
		}
	}
	return models.ReconciliationResult{}, false
}

// HasDifferences reports whether any source has modified, missing or new records
func (e EntityReconciliation) HasDifferences() bool {
	return ectolinq.Any(e.Results, func(r models.ReconciliationResult) bool { return r.HasDifferences() })
}

func unionSources(a, b models.RecordSet) []models.Source {
	seen := make(map[models.Source]struct{}, len(a)+len(b))
	for src := range a {
		seen[src] = struct{}{}
	}
	for src := range b {
		seen[src] = struct{}{}
	}
	out := make([]models.Source, 0, len(seen))
	for src := range seen {
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
