package models

import (
	"sort"
	"strings"
)

// RecordID is the join key used to match a record across baseline and current fetches
type RecordID string

// Tracked field names compared by the reconciler
const (
	FieldFullName   = "full_name"
	FieldOtherNames = "other_names"
	FieldFirstName  = "first_name"
	FieldLastName   = "last_name"
)

// TrackedFields lists the fields compared between baseline and current records, in report order
var TrackedFields = []string{FieldFullName, FieldOtherNames, FieldFirstName, FieldLastName}

// NormalizedRecord is the canonical shape of one search hit
type NormalizedRecord struct {
	RecordID RecordID `json:"record_id"`
	// Synthetic is set when RecordID was derived from a hash of a transport id
	Synthetic      bool    `json:"synthetic,omitempty"`
	ExternalID     string  `json:"external_id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	FullName       string  `json:"full_name"`
	OtherNames     string  `json:"other_names"`
	AltScript      string  `json:"alt_script,omitempty"`
	RecType        string  `json:"rec_type,omitempty"`
	NameNormalized string  `json:"name_normalized,omitempty"`
	Source         Source  `json:"source"`
	Score          float64 `json:"score,omitempty"`
}

// Field returns the value of a tracked field
func (r NormalizedRecord) Field(name string) string {
	switch name {
	case FieldFullName:
		return r.FullName
	case FieldOtherNames:
		return r.OtherNames
	case FieldFirstName:
		return r.FirstName
	case FieldLastName:
		return r.LastName
	default:
		return ""
	}
}

// DisplayName returns the full name, falling back to "first last"
func (r NormalizedRecord) DisplayName() string {
	if r.FullName != "" {
		return r.FullName
	}
	return JoinName(r.FirstName, r.LastName)
}

// AllNames returns every name field joined with spaces
func (r NormalizedRecord) AllNames() string {
	return strings.TrimSpace(strings.Join([]string{r.FullName, r.FirstName, r.LastName, r.OtherNames}, " "))
}

// JoinName builds "first last" trimmed
func JoinName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}

// JoinOtherNames joins the non-empty alternate name values with "; "
func JoinOtherNames(values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "; ")
}

// RecordSet maps a source to the records returned for it
type RecordSet map[Source][]NormalizedRecord

// NewRecordSet creates an empty RecordSet
func NewRecordSet() RecordSet {
	return make(RecordSet)
}

// Add appends a record under its source
func (rs RecordSet) Add(rec NormalizedRecord) {
	rs[rec.Source] = append(rs[rec.Source], rec)
}

// Get returns the records for a source
func (rs RecordSet) Get(src Source) []NormalizedRecord {
	return rs[src]
}

// Sources returns the sources present in the set, sorted by name
func (rs RecordSet) Sources() []Source {
	out := make([]Source, 0, len(rs))
	for src := range rs {
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Count returns the total number of records across all sources
func (rs RecordSet) Count() int {
	n := 0
	for _, recs := range rs {
		n += len(recs)
	}
	return n
}

// All returns every record, ordered by source name then response order
func (rs RecordSet) All() []NormalizedRecord {
	out := make([]NormalizedRecord, 0, rs.Count())
	for _, src := range rs.Sources() {
		out = append(out, rs[src]...)
	}
	return out
}

// CountsBySource returns the number of records per source
func (rs RecordSet) CountsBySource() map[Source]int {
	out := make(map[Source]int, len(rs))
	for src, recs := range rs {
		if len(recs) > 0 {
			out[src] = len(recs)
		}
	}
	return out
}
