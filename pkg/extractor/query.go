package extractor

import (
	"fmt"
	"sync"

	"github.com/jmespath/go-jmespath"
)

// Query evaluates JMESPath expressions, caching compiled expressions
type Query struct {
	mu    sync.RWMutex
	cache map[string]*jmespath.JMESPath
}

// NewQuery creates a new Query
func NewQuery() *Query {
	return &Query{cache: make(map[string]*jmespath.JMESPath)}
}

// Search evaluates expression against decoded JSON data
func (q *Query) Search(expression string, data any) (any, error) {
	compiled, err := q.compile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid expression %q: %w", expression, err)
	}
	result, err := compiled.Search(data)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate expression %q: %w", expression, err)
	}
	return result, nil
}

// SearchObjects evaluates expression and keeps the object elements of the resulting array.
// A null result yields an empty slice; a non-array result is an error.
func (q *Query) SearchObjects(expression string, data any) ([]map[string]any, error) {
	result, err := q.Search(expression, data)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	arr, ok := result.([]any)
	if !ok {
		return nil, fmt.Errorf("expression %q returned %T, expected an array", expression, result)
	}
	out := make([]map[string]any, 0, len(arr))
	for _, item := range arr {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// Validate checks that an expression compiles
func (q *Query) Validate(expression string) error {
	_, err := q.compile(expression)
	return err
}

func (q *Query) compile(expression string) (*jmespath.JMESPath, error) {
	q.mu.RLock()
	compiled, ok := q.cache[expression]
	q.mu.RUnlock()
	if ok {
		return compiled, nil
	}

	compiled, err := jmespath.Compile(expression)
	if err != nil {
		return nil, err
	}

	q.mu.Lock()
	q.cache[expression] = compiled
	q.mu.Unlock()
	return compiled, nil
}
