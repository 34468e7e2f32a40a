// Package normalizers provides named text normalizers applied before name comparison
package normalizers

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

var (
	mu       sync.RWMutex
	registry = make(map[string]Normalizer)
)

func init() {
	Register("lowercase", Lowercase)
	Register("uppercase", Uppercase)
	Register("trim", Trim)
	Register("collapse_whitespace", CollapseWhitespace)
	Register("remove_punctuation", RemovePunctuation)
	Register("nfkc", NFKC)
	Register("search_text", SearchText)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := registry[name]
	return fn, ok
}

// List returns the registered normalizer names, sorted
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Chain is a compiled sequence of normalizers applied in order
type Chain []Normalizer

// DefaultFold is the chain applied to rule patterns and the text they match
var DefaultFold = []string{"nfkc", "lowercase", "collapse_whitespace"}

// Compile resolves normalizer names into a Chain
func Compile(names ...string) (Chain, error) {
	chain := make(Chain, 0, len(names))
	for _, name := range names {
		fn, ok := Get(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unknown normalizer %q (known: %s)", name, strings.Join(List(), ", "))
		}
		chain = append(chain, fn)
	}
	return chain, nil
}

// Apply runs every normalizer of the chain over s
func (c Chain) Apply(s string) string {
	for _, fn := range c {
		s = fn(s)
	}
	return s
}

// Fold applies DefaultFold: compatibility composition, lowercase and collapsed whitespace
func Fold(s string) string {
	return CollapseWhitespace(Lowercase(NFKC(s)))
}

// Built-in normalizers

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Uppercase converts string to uppercase
func Uppercase(s string) string {
	return strings.ToUpper(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RemovePunctuation removes all punctuation characters
func RemovePunctuation(s string) string {
	var result strings.Builder
	for _, r := range s {
		if !unicode.IsPunct(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// NFKC applies unicode compatibility composition (full-width forms, ligatures)
func NFKC(s string) string {
	return norm.NFKC.String(s)
}

// SearchText is the normalization applied to both sides of a relevance comparison:
// lowercase, non-word characters replaced by a space, whitespace collapsed and trimmed.
// Word characters are letters, numbers and underscore in any script.
func SearchText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if IsWordRune(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return CollapseWhitespace(b.String())
}

// IsWordRune reports whether r is a word character
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Words splits a normalized string into its distinct words in first-appearance order
func Words(s string) []string {
	fields := strings.Fields(s)
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// NameWords folds s, treats commas as separators and returns the distinct
// words longer than minLen characters
func NameWords(s string, minLen int) []string {
	s = strings.ReplaceAll(Fold(s), ",", " ")
	words := Words(s)
	out := words[:0]
	for _, w := range words {
		if len([]rune(w)) > minLen {
			out = append(out, w)
		}
	}
	return out
}
