package relevance

import (
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
	"github.com/pmezard/go-difflib/difflib"
)

const (
	exactScore       = 1.0
	containmentScore = 0.9
	initialsScore    = 0.8
	fuzzyWordRatio   = 0.8
)

// connectors are skipped when an abbreviation is compared against a whole name
var connectors = map[string]struct{}{
	"of": {}, "and": {}, "the": {}, "for": {}, "de": {}, "y": {},
}

// Scorer computes relevance scores between a search term and a candidate name
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Normalize lowercases, replaces non-word characters with spaces, collapses whitespace and trims
func Normalize(s string) string {
	return normalizers.SearchText(s)
}

// Score returns a relevance score in [0,1] for candidate against searchTerm.
// The general branch is not symmetric: coverage is measured against the search words.
func (s *Scorer) Score(searchTerm, candidate string) float64 {
	if searchTerm == "" || candidate == "" {
		return 0.0
	}

	search := Normalize(searchTerm)
	result := Normalize(candidate)
	if search == "" || result == "" {
		return 0.0
	}

	if search == result {
		return exactScore
	}
	if strings.Contains(result, search) || strings.Contains(search, result) {
		return containmentScore
	}

	searchWords := normalizers.Words(search)
	resultWords := normalizers.Words(result)

	if isAcronymOf(searchWords, resultWords) || isAcronymOf(resultWords, searchWords) {
		return initialsScore
	}

	similarity := s.SequenceRatio(search, result)
	if len(searchWords) == 0 || len(resultWords) == 0 {
		return similarity
	}

	wordScore := 0.3*Jaccard(searchWords, resultWords) +
		0.3*Coverage(searchWords, resultWords) +
		0.2*s.FuzzyCoverage(searchWords, resultWords) +
		0.2*AbbreviationScore(searchWords, resultWords)

	return min(0.4*similarity+0.6*wordScore, 1.0)
}

// RecordScore holds the per-field scores of a record
type RecordScore struct {
	FullName   float64
	OtherNames float64
	Best       float64
}

// ScoreRecord scores the record's display name and alternate names and keeps the greater
func (s *Scorer) ScoreRecord(searchTerm string, rec models.NormalizedRecord) RecordScore {
	rs := RecordScore{FullName: s.Score(searchTerm, rec.DisplayName())}
	if rec.OtherNames != "" {
		rs.OtherNames = s.Score(searchTerm, rec.OtherNames)
	}
	rs.Best = max(rs.FullName, rs.OtherNames)
	return rs
}

// Judge scores a record and classifies it against threshold
func (s *Scorer) Judge(searchTerm string, rec models.NormalizedRecord, threshold float64) models.RelevanceJudgment {
	rs := s.ScoreRecord(searchTerm, rec)
	j := models.RelevanceJudgment{
		SearchTerm:      searchTerm,
		Record:          rec,
		Score:           rs.Best,
		FullNameScore:   rs.FullName,
		OtherNamesScore: rs.OtherNames,
		Threshold:       threshold,
		Classification:  models.Irrelevant,
	}
	if rs.Best >= threshold {
		j.Classification = models.Relevant
	}
	return j
}

// SequenceRatio returns the Ratcliff-Obershelp similarity 2*M/T of two strings, compared rune by rune
func (s *Scorer) SequenceRatio(a, b string) float64 {
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

// FuzzyCoverage is the fraction of search words with a result word that contains it,
// is contained by it, or is more than 80% similar
func (s *Scorer) FuzzyCoverage(searchWords, resultWords []string) float64 {
	if len(searchWords) == 0 {
		return 0
	}
	matches := 0
	for _, sw := range searchWords {
		for _, rw := range resultWords {
			if strings.Contains(rw, sw) || strings.Contains(sw, rw) || s.SequenceRatio(sw, rw) > fuzzyWordRatio {
				matches++
				break
			}
		}
	}
	return float64(matches) / float64(len(searchWords))
}

// Jaccard returns |a ∩ b| / |a ∪ b| for two distinct word lists
func Jaccard(a, b []string) float64 {
	inter := intersection(a, b)
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Coverage returns the fraction of search words present in result words
func Coverage(searchWords, resultWords []string) float64 {
	if len(searchWords) == 0 {
		return 0
	}
	return float64(intersection(searchWords, resultWords)) / float64(len(searchWords))
}

// AbbreviationScore checks whether a short word on either side spells the initials of the
// other side's words: 1.0 for a full match, 0.8 for a prefix of at least two letters
func AbbreviationScore(searchWords, resultWords []string) float64 {
	score := 0.0

	initials := Initials(resultWords)
	for _, sw := range searchWords {
		if runeLen(sw) > 4 {
			continue
		}
		if sw == initials {
			score = 1.0
			break
		}
		if runeLen(sw) >= 2 && strings.HasPrefix(initials, sw) {
			score = 0.8
		}
	}

	initials = Initials(searchWords)
	for _, rw := range resultWords {
		if runeLen(rw) > 4 {
			continue
		}
		if rw == initials {
			score = max(score, 1.0)
			break
		}
		if runeLen(rw) >= 2 && strings.HasPrefix(initials, rw) {
			score = max(score, 0.8)
		}
	}

	return score
}

// Initials concatenates the lowercase first letter of each word, in order
func Initials(words []string) string {
	var b strings.Builder
	for _, w := range words {
		for _, r := range strings.ToLower(w) {
			b.WriteRune(r)
			break
		}
	}
	return b.String()
}

// isAcronymOf reports whether abbr is a single 2-4 letter word spelling the initials of name,
// ignoring connector words
func isAcronymOf(abbr, name []string) bool {
	if len(abbr) != 1 || len(name) < 2 {
		return false
	}
	word := abbr[0]
	if n := runeLen(word); n < 2 || n > 4 {
		return false
	}
	significant := make([]string, 0, len(name))
	for _, w := range name {
		if _, ok := connectors[w]; !ok {
			significant = append(significant, w)
		}
	}
	return len(significant) >= 2 && Initials(significant) == word
}

func intersection(a, b []string) int {
	set := make(map[string]struct{}, len(b))
	for _, w := range b {
		set[w] = struct{}{}
	}
	n := 0
	for _, w := range a {
		if _, ok := set[w]; ok {
			n++
		}
	}
	return n
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func runeLen(s string) int {
	return len([]rune(s))
}
