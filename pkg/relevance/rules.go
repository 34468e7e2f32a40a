package relevance

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// Rule match modes
const (
	MatchContains = "contains"
	MatchAllWords = "all_words"
	MatchRegex    = "regex"
)

// Rule fields
const (
	FieldAll = "all"
)

// Rule maps a name pattern to a verdict. Rules are supplied per search term by the caller.
type Rule struct {
	Pattern string                `yaml:"pattern" json:"pattern" validate:"required"`
	Verdict models.Classification `yaml:"verdict" json:"verdict" validate:"required,oneof=relevant irrelevant excluded"`
	// Field is the record field matched: all (default), full_name, other_names, first_name or last_name
	Field string `yaml:"field,omitempty" json:"field,omitempty" validate:"omitempty,oneof=all full_name other_names first_name last_name"`
	// Match is contains (default), all_words or regex
	Match  string `yaml:"match,omitempty" json:"match,omitempty" validate:"omitempty,oneof=contains all_words regex"`
	Reason string `yaml:"reason,omitempty" json:"reason,omitempty"`
	// Normalize names the normalizers applied to the pattern and the matched text.
	// Empty uses normalizers.DefaultFold.
	Normalize []string `yaml:"normalize,omitempty" json:"normalize,omitempty"`
}

// Verdict is the outcome of evaluating a record against rules
type Verdict struct {
	Classification models.Classification
	Reason         string
}

// Rules is an ordered rule table; the first matching rule wins
type Rules []Rule

// Compile validates the rule table and returns a matcher
func (rs Rules) Compile() (*RuleSet, error) {
	set := &RuleSet{rules: make([]compiledRule, 0, len(rs))}
	for i, r := range rs {
		names := r.Normalize
		if len(names) == 0 {
			names = normalizers.DefaultFold
		}
		fold, err := normalizers.Compile(names...)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		cr := compiledRule{Rule: r, fold: fold, pattern: strings.TrimSpace(fold.Apply(r.Pattern))}
		if cr.pattern == "" {
			return nil, fmt.Errorf("rule %d: empty pattern", i)
		}
		switch r.Verdict {
		case models.Relevant, models.Irrelevant, models.Excluded:
		default:
			return nil, fmt.Errorf("rule %d: unknown verdict %q", i, r.Verdict)
		}
		switch r.Match {
		case "", MatchContains:
		case MatchAllWords:
			cr.words = strings.Fields(cr.pattern)
		case MatchRegex:
			re, err := regexp.Compile("(?i)" + r.Pattern)
			if err != nil {
				return nil, fmt.Errorf("rule %d: %w", i, err)
			}
			cr.re = re
		default:
			return nil, fmt.Errorf("rule %d: unknown match mode %q", i, r.Match)
		}
		set.rules = append(set.rules, cr)
	}
	return set, nil
}

type compiledRule struct {
	Rule
	fold    normalizers.Chain
	pattern string
	words   []string
	re      *regexp.Regexp
}

// RuleSet is a compiled rule table
type RuleSet struct {
	rules []compiledRule
}

// Len returns the number of rules
func (s *RuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Evaluate applies the first matching rule to rec. ok is false when no rule matches.
func (s *RuleSet) Evaluate(rec models.NormalizedRecord) (Verdict, bool) {
	if s == nil {
		return Verdict{}, false
	}
	for _, r := range s.rules {
		text := r.fold.Apply(fieldText(rec, r.Field))
		if !r.matches(text) {
			continue
		}
		reason := r.Reason
		if reason == "" {
			reason = fmt.Sprintf("%s: matched %q", r.Verdict, r.Pattern)
		}
		return Verdict{Classification: r.Verdict, Reason: reason}, true
	}
	return Verdict{}, false
}

func (r compiledRule) matches(text string) bool {
	switch {
	case r.re != nil:
		return r.re.MatchString(text)
	case r.words != nil:
		for _, w := range r.words {
			if !strings.Contains(text, w) {
				return false
			}
		}
		return true
	default:
		return strings.Contains(text, r.pattern)
	}
}

func fieldText(rec models.NormalizedRecord, field string) string {
	switch field {
	case models.FieldFullName, models.FieldOtherNames, models.FieldFirstName, models.FieldLastName:
		return rec.Field(field)
	default:
		return strings.Join([]string{rec.DisplayName(), rec.OtherNames, rec.FirstName, rec.LastName}, " ")
	}
}

// DefaultVerdict is applied when no rule matches: relevant when at least half of the
// search words appear among the record's name words
func DefaultVerdict(searchTerm string, rec models.NormalizedRecord) Verdict {
	searchWords := normalizers.Words(normalizers.Fold(searchTerm))
	nameWords := normalizers.Words(normalizers.Fold(fieldText(rec, FieldAll)))
	ratio := 0.0
	if len(searchWords) > 0 {
		ratio = float64(intersection(searchWords, nameWords)) / float64(len(searchWords))
	}
	if ratio >= 0.5 {
		return Verdict{Classification: models.Relevant, Reason: fmt.Sprintf("Word overlap: %.2f", ratio)}
	}
	return Verdict{Classification: models.Irrelevant, Reason: fmt.Sprintf("Low word overlap: %.2f", ratio)}
}
