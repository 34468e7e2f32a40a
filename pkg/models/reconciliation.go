package models

// MatchStatus tags a record present on both sides
type MatchStatus string

const (
	MatchExact    MatchStatus = "exact"
	MatchModified MatchStatus = "modified"
)

// FieldChange holds the baseline and current values of a tracked field
type FieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// MatchedRecord is a record present in both baseline and current
type MatchedRecord struct {
	Record  NormalizedRecord       `json:"record"`
	Current NormalizedRecord       `json:"current"`
	Status  MatchStatus            `json:"status"`
	Changes map[string]FieldChange `json:"changes,omitempty"`
}

// ReconciliationResult is the diff of one source for one entity
type ReconciliationResult struct {
	EntityName    string             `json:"entity_name,omitempty"`
	Source        Source             `json:"source,omitempty"`
	BaselineCount int                `json:"baseline_count"`
	CurrentCount  int                `json:"current_count"`
	Matched       []MatchedRecord    `json:"matched"`
	Missing       []NormalizedRecord `json:"missing"`
	New           []NormalizedRecord `json:"new"`
}

// ReconciliationSummary holds the partition counts of a ReconciliationResult
type ReconciliationSummary struct {
	ExactMatches    int `json:"exact_matches"`
	ModifiedRecords int `json:"modified_records"`
	MissingRecords  int `json:"missing_records"`
	NewRecords      int `json:"new_records"`
	BaselineCount   int `json:"baseline_count"`
	CurrentCount    int `json:"current_count"`
}

// Summary derives the partition counts
func (r ReconciliationResult) Summary() ReconciliationSummary {
	s := ReconciliationSummary{
		MissingRecords: len(r.Missing),
		NewRecords:     len(r.New),
		BaselineCount:  r.BaselineCount,
		CurrentCount:   r.CurrentCount,
	}
	for _, m := range r.Matched {
		if m.Status == MatchModified {
			s.ModifiedRecords++
		} else {
			s.ExactMatches++
		}
	}
	return s
}

// HasDifferences reports whether any record was modified, missing or new
func (r ReconciliationResult) HasDifferences() bool {
	s := r.Summary()
	return s.ModifiedRecords > 0 || s.MissingRecords > 0 || s.NewRecords > 0
}
