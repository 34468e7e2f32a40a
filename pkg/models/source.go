package models

import (
	"fmt"
	"strings"
)

// Source is the compliance schema a record belongs to
type Source string

const (
	SourceWatch    Source = "watch"
	SourceICIJ     Source = "icij"
	SourceMex      Source = "mex"
	SourceRights   Source = "rights"
	SourcePEP      Source = "pep"
	SourceSanction Source = "sanction"
	SourceSOE      Source = "soe"
	SourceCol      Source = "col"
	SourceMedia    Source = "media"
	SourceOFAC     Source = "ofac"
)

var allSources = []Source{
	SourceWatch,
	SourceICIJ,
	SourceMex,
	SourceRights,
	SourcePEP,
	SourceSanction,
	SourceSOE,
	SourceCol,
	SourceMedia,
	SourceOFAC,
}

// AllSources returns every known source in display order
func AllSources() []Source {
	out := make([]Source, len(allSources))
	copy(out, allSources)
	return out
}

// ParseSource converts a schema name into a Source
func ParseSource(s string) (Source, error) {
	src := Source(strings.ToLower(strings.TrimSpace(s)))
	if !src.IsValid() {
		return "", fmt.Errorf("unknown source %q", s)
	}
	return src, nil
}

// IsValid reports whether the source is one of the known schemas
func (s Source) IsValid() bool {
	for _, src := range allSources {
		if s == src {
			return true
		}
	}
	return false
}

func (s Source) String() string {
	return string(s)
}
