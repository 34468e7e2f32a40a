package relevance

// Expected result types used to select a relevance threshold
const (
	ExactMatch           = "exact_match"
	AbbreviationMatch    = "abbreviation_match"
	FullNameMatch        = "full_name_match"
	NameVariation        = "name_variation"
	TransliterationMatch = "transliteration_match"
	SpecificMatch        = "specific_match"
	BroadButRelevant     = "broad_but_relevant"
	RelevantOnly         = "relevant_only"
)

// DefaultThreshold applies to unknown expected result types
const DefaultThreshold = 0.5

// Thresholds maps an expected result type to its relevance cutoff
type Thresholds map[string]float64

// DefaultThresholds returns the standard threshold table
func DefaultThresholds() Thresholds {
	return Thresholds{
		ExactMatch:           0.6,
		AbbreviationMatch:    0.5,
		FullNameMatch:        0.5,
		NameVariation:        0.5,
		TransliterationMatch: 0.4,
		SpecificMatch:        0.3,
		BroadButRelevant:     0.25,
		RelevantOnly:         0.3,
	}
}

// For returns the threshold for an expected result type
func (t Thresholds) For(expectedType string) float64 {
	if v, ok := t[expectedType]; ok {
		return v
	}
	return DefaultThreshold
}

// Threshold returns the default threshold for an expected result type
func Threshold(expectedType string) float64 {
	return DefaultThresholds().For(expectedType)
}
