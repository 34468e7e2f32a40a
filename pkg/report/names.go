package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// maxSheetName is the Excel worksheet name limit
const maxSheetName = 31

// timestampLayout stamps report file names
const timestampLayout = "20060102_150405"

// FileName returns "<kind>_report_<YYYYMMDD_HHMMSS>.<ext>"
func FileName(kind, ext string, t time.Time) string {
	return fmt.Sprintf("%s_report_%s.%s", kind, t.Format(timestampLayout), ext)
}

// sheetNamer hands out sanitized worksheet names that are unique ignoring case
type sheetNamer struct {
	used map[string]struct{}
}

func newSheetNamer(reserved ...string) *sheetNamer {
	n := &sheetNamer{used: make(map[string]struct{})}
	for _, r := range reserved {
		n.used[strings.ToLower(r)] = struct{}{}
	}
	return n
}

func (n *sheetNamer) name(raw string) string {
	base := SanitizeSheetName(raw)
	candidate := base
	for i := 2; ; i++ {
		if _, taken := n.used[strings.ToLower(candidate)]; !taken {
			break
		}
		suffix := "_" + strconv.Itoa(i)
		candidate = truncate(base, maxSheetName-len(suffix)) + suffix
	}
	n.used[strings.ToLower(candidate)] = struct{}{}
	return candidate
}

// SanitizeSheetName keeps letters, digits, hyphens and underscores, turns spaces into
// underscores and truncates to the worksheet name limit
func SanitizeSheetName(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	name := strings.Trim(truncate(b.String(), maxSheetName), "_")
	if name == "" {
		return "Entity"
	}
	return name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
