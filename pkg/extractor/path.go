// Package extractor maps raw search API payloads onto normalized records
package extractor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Extract returns the value at a dot-notation path.
// Supported syntax: "name", "_source.Full_Name", "Args[0].nameSearch", "results[*].ID" (first non-nil).
// A missing key yields nil without error.
func Extract(data any, path string) (any, error) {
	if path == "" {
		return data, nil
	}

	current := data
	for _, seg := range splitPath(path) {
		var err error
		current, err = step(current, seg)
		if err != nil {
			return nil, fmt.Errorf("path %q: %w", path, err)
		}
		if current == nil {
			return nil, nil
		}
	}
	return current, nil
}

// ExtractString returns the value at path rendered as a string, or "" when absent
func ExtractString(data any, path string) string {
	v, err := Extract(data, path)
	if err != nil || v == nil {
		return ""
	}
	return ToString(v)
}

// FirstString returns the first non-empty string found at any of the paths
func FirstString(data any, paths ...string) string {
	for _, p := range paths {
		if s := strings.TrimSpace(ExtractString(data, p)); s != "" {
			return s
		}
	}
	return ""
}

// Has reports whether the key at path is present, even when its value is null
func Has(data any, path string) bool {
	raw := pathParts(path)
	if len(raw) == 0 {
		return true
	}
	last := splitPath(raw[len(raw)-1])[0]
	parent, err := Extract(data, strings.Join(raw[:len(raw)-1], "."))
	if err != nil {
		return false
	}
	if last.indexed || last.wildcard {
		v, err := step(parent, last)
		return err == nil && v != nil
	}
	m, ok := parent.(map[string]any)
	if !ok {
		return false
	}
	_, ok = m[last.key]
	return ok
}

func pathParts(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, ".") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

type segment struct {
	key      string
	index    int
	indexed  bool
	wildcard bool
}

func splitPath(path string) []segment {
	var segs []segment
	for _, raw := range pathParts(path) {
		seg := segment{key: raw}
		if open := strings.IndexByte(raw, '['); open != -1 && strings.HasSuffix(raw, "]") {
			seg.key = raw[:open]
			idx := raw[open+1 : len(raw)-1]
			if idx == "*" {
				seg.wildcard = true
			} else if i, err := strconv.Atoi(idx); err == nil {
				seg.indexed = true
				seg.index = i
			}
		}
		segs = append(segs, seg)
	}
	return segs
}

func step(data any, seg segment) (any, error) {
	value := data
	if seg.key != "" {
		m, ok := data.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("cannot extract key %q from %T", seg.key, data)
		}
		value = m[seg.key]
	}

	if !seg.indexed && !seg.wildcard {
		return value, nil
	}
	arr, ok := value.([]any)
	if !ok {
		if value == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("expected array at %q, got %T", seg.key, value)
	}
	if seg.wildcard {
		for _, item := range arr {
			if item != nil {
				return item, nil
			}
		}
		return nil, nil
	}
	if seg.index < 0 || seg.index >= len(arr) {
		return nil, nil
	}
	return arr[seg.index], nil
}

// ToString renders a decoded JSON value as text. Integral numbers render without exponent.
func ToString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := ToString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}
