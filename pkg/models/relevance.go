package models

// Classification is the relevance verdict for a candidate record
type Classification string

const (
	Relevant   Classification = "relevant"
	Irrelevant Classification = "irrelevant"
	// Excluded marks a record a caller rule explicitly rejects
	Excluded Classification = "excluded"
)

// RelevanceJudgment is the scored verdict for one search term and candidate record
type RelevanceJudgment struct {
	SearchTerm      string           `json:"search_term"`
	Record          NormalizedRecord `json:"record"`
	Score           float64          `json:"score"`
	FullNameScore   float64          `json:"full_name_score"`
	OtherNamesScore float64          `json:"other_names_score"`
	Threshold       float64          `json:"threshold"`
	Classification  Classification   `json:"classification"`
	Reason          string           `json:"reason,omitempty"`
	// Expected is set when the record matches an expected baseline id
	Expected bool `json:"expected,omitempty"`
}

// IsRelevant reports whether the judgment classified the record relevant
func (j RelevanceJudgment) IsRelevant() bool {
	return j.Classification == Relevant
}
