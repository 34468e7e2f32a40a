package baseline

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Reference is the keyword description of one search term
type Reference struct {
	Term        string
	Description string
	Keywords    []string
}

// References holds search term definitions keyed by upper-cased term
type References struct {
	byTerm map[string]Reference
	// Invalid lists the line numbers that had no "TERM:" prefix
	Invalid []int
}

// LoadReferencesFile reads a reference file from disk
func LoadReferencesFile(path string) (*References, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference file: %w", err)
	}
	defer f.Close()
	return LoadReferences(f)
}

// LoadReferences parses "TERM: keyword, keyword" lines. Blank lines and # comments are ignored.
func LoadReferences(r io.Reader) (*References, error) {
	refs := &References{byTerm: make(map[string]Reference)}
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		term, description, ok := strings.Cut(line, ":")
		if !ok {
			refs.Invalid = append(refs.Invalid, lineNum)
			continue
		}
		term = strings.ToUpper(strings.TrimSpace(term))
		description = strings.TrimSpace(description)

		var keywords []string
		for _, kw := range strings.Split(description, ",") {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				keywords = append(keywords, kw)
			}
		}
		refs.byTerm[term] = Reference{Term: term, Description: description, Keywords: keywords}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read references: %w", err)
	}
	return refs, nil
}

// Keywords returns the keywords for a term, nil when undefined
func (r *References) Keywords(term string) []string {
	return r.byTerm[normalizeTerm(term)].Keywords
}

// Has reports whether a term is defined
func (r *References) Has(term string) bool {
	_, ok := r.byTerm[normalizeTerm(term)]
	return ok
}

// Terms returns every defined term, sorted
func (r *References) Terms() []string {
	out := make([]string, 0, len(r.byTerm))
	for term := range r.byTerm {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of defined terms
func (r *References) Len() int {
	return len(r.byTerm)
}

func normalizeTerm(term string) string {
	return strings.ToUpper(strings.TrimSpace(term))
}
