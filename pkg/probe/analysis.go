package probe

import (
	"fmt"
	"time"

	"github.com/Gobusters/ectolinq"
)

const (
	slowFactor         = 3
	slowResponseLimit  = 5 * time.Second
	failureRateLimit   = 0.1
	errorPatternLength = 50
)

// ErrorPattern counts failures sharing the same leading error text
type ErrorPattern struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// Analysis summarizes a probe run
type Analysis struct {
	Total               int            `json:"total"`
	Successful          int            `json:"successful"`
	Failed              int            `json:"failed"`
	InjectionTests      int            `json:"injection_tests"`
	EdgeCaseTests       int            `json:"edge_case_tests"`
	StatusCodes         map[string]int `json:"status_codes"`
	AverageResponseTime time.Duration  `json:"average_response_time"`
	MaxResponseTime     time.Duration  `json:"max_response_time"`
	SlowResponses       []Result       `json:"slow_responses,omitempty"`
	ErrorPatterns       []ErrorPattern `json:"error_patterns,omitempty"`
	HighFailureRate     bool           `json:"high_failure_rate"`
	ServerErrors        bool           `json:"server_errors"`
	SlowQueries         bool           `json:"slow_queries"`
	Findings            []string       `json:"findings"`
}

// Analyze derives status distribution, latency outliers and error patterns.
// Latency figures only consider successful responses.
func Analyze(results []Result) Analysis {
	successful, failed := ectolinq.Partition(results, func(r Result) bool { return r.Success })

	a := Analysis{
		Total:       len(results),
		Successful:  len(successful),
		Failed:      len(failed),
		StatusCodes: make(map[string]int),
	}
	for _, r := range results {
		a.StatusCodes[r.Status]++
		switch r.Kind {
		case KindInjection:
			a.InjectionTests++
		case KindEdgeCase:
			a.EdgeCaseTests++
		}
	}

	if len(successful) > 0 {
		var total time.Duration
		for _, r := range successful {
			total += r.ResponseTime
			if r.ResponseTime > a.MaxResponseTime {
				a.MaxResponseTime = r.ResponseTime
			}
		}
		a.AverageResponseTime = total / time.Duration(len(successful))
		a.SlowResponses = ectolinq.Filter(successful, func(r Result) bool {
			return r.ResponseTime > a.AverageResponseTime*slowFactor
		})
	}

	a.ErrorPatterns = errorPatterns(failed)

	a.HighFailureRate = float64(len(failed)) > float64(len(successful))*failureRateLimit
	a.ServerErrors = ectolinq.Any(failed, func(r Result) bool { return r.Status == "500" })
	a.SlowQueries = a.MaxResponseTime > slowResponseLimit

	if a.HighFailureRate {
		a.Findings = append(a.Findings, "High failure rate: the API is rejecting a significant share of inputs")
	} else {
		a.Findings = append(a.Findings, "Low failure rate: the API appears stable")
	}
	if len(a.SlowResponses) > 0 {
		a.Findings = append(a.Findings, fmt.Sprintf("Unusually slow responses: %d", len(a.SlowResponses)))
	}
	if a.ServerErrors {
		a.Findings = append(a.Findings, "Server errors detected: responses may reveal system information")
	}
	if a.SlowQueries {
		a.Findings = append(a.Findings, fmt.Sprintf("Some queries took longer than %s", slowResponseLimit))
	}
	return a
}

func errorPatterns(failed []Result) []ErrorPattern {
	counts := make(map[string]int)
	for _, r := range failed {
		msg := r.ErrorMessage
		if msg == "" {
			msg = "Unknown"
		}
		if runes := []rune(msg); len(runes) > errorPatternLength {
			msg = string(runes[:errorPatternLength])
		}
		counts[msg]++
	}
	out := make([]ErrorPattern, 0, len(counts))
	for msg, n := range counts {
		out = append(out, ErrorPattern{Message: msg, Count: n})
	}
	return ectolinq.SortWhere(out, func(a, b ErrorPattern) bool {
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Message < b.Message
	})
}
