package report

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/runner"
)

var pageTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"upper":       func(v any) string { return strings.ToUpper(fmt.Sprint(v)) },
	"statusClass": statusClass,
	"typeLabel":   EntityTypeLabel,
	"pct":         PercentString,
	"passRate":    PassRate,
	"hits":        RegressionHits,
	"score":       func(v float64) string { return fmt.Sprintf("%.3f", v) },
	"join":        strings.Join,
}).Parse(pageHTML))

type pageData struct {
	Title     string
	Generated string
	Result    *runner.Result
}

// RenderHTML writes a static page describing the run
func RenderHTML(w io.Writer, result *runner.Result, generated time.Time) error {
	data := pageData{
		Title:     fmt.Sprintf("%s %s report", result.Suite, result.Mode),
		Generated: generated.Format("2006-01-02 15:04:05"),
		Result:    result,
	}
	if err := pageTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render html report: %w", err)
	}
	return nil
}

func statusClass(s models.Status) string {
	switch s {
	case models.StatusPass:
		return "pass"
	case models.StatusWarn:
		return "warn"
	default:
		return "fail"
	}
}

const pageHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; }
.header { background-color: #f0f0f0; padding: 20px; border-radius: 5px; }
.summary-card { display: inline-block; margin: 10px; padding: 15px; border: 1px solid #ddd; border-radius: 5px; min-width: 160px; }
.case { margin: 30px 0; }
.case-title { background-color: #e0e0e0; padding: 10px; font-weight: bold; }
table { border-collapse: collapse; width: 100%; margin: 10px 0; }
th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
th { background-color: #f2f2f2; }
.pass { color: #28a745; }
.warn { color: #d39e00; }
.fail { color: #dc3545; }
</style>
</head>
<body>
<div class="header">
  <h1>{{.Title}}</h1>
  <p><strong>Run:</strong> {{.Result.RunID}}</p>
  <p><strong>Generated:</strong> {{.Generated}}</p>
</div>
<div class="summary">
  <div class="summary-card"><h3>Total</h3><div>{{.Result.Total}}</div></div>
  <div class="summary-card"><h3>Passed</h3><div class="pass">{{.Result.Passed}}</div></div>
  <div class="summary-card"><h3>Warned</h3><div class="warn">{{.Result.Warned}}</div></div>
  <div class="summary-card"><h3>Failed</h3><div class="fail">{{.Result.Failed}}</div></div>
  <div class="summary-card"><h3>Pass Rate</h3><div>{{passRate .Result.Passed .Result.Total}}</div></div>
</div>
{{range .Result.Cases}}
<div class="case">
  <div class="case-title">{{.Name}} ({{typeLabel .EntityType}}) <span class="{{statusClass .Status}}">{{.Status}}</span></div>
  <p>{{.Reason}}</p>
  {{if .FetchError}}<p class="fail">Error: {{.FetchError}}</p>{{end}}
  {{if .FailureReasons}}<ul>{{range .FailureReasons}}<li>{{.}}</li>{{end}}</ul>{{end}}
  {{with .Reconciliation}}
  <p>Common: {{.Totals.Common}} | New: {{.Totals.New}} | Missing: {{.Totals.Missing}}</p>
  {{end}}
  {{if .Reconciliation}}
  <table>
    <thead><tr><th>Source</th><th>Status</th><th>ID</th><th>Full Name</th><th>Other Names</th><th>Changes</th></tr></thead>
    <tbody>
    {{range hits .}}<tr><td>{{upper .Source}}</td><td>{{.Status}}</td><td>{{.Record.RecordID}}</td><td>{{.Record.FullName}}</td><td>{{.Record.OtherNames}}</td><td>{{.Changes}}</td></tr>
    {{end}}
    </tbody>
  </table>
  {{end}}
  {{with .Evaluation}}
  <p>Threshold: {{score .Threshold}} | Average score: {{score .AverageScore}} | Results: {{.TotalResults}}</p>
  {{if .MissingExpected}}<p class="warn">Missing expected: {{join .MissingExpected "; "}}</p>{{end}}
  <table>
    <thead><tr><th>Classification</th><th>Source</th><th>ID</th><th>Name</th><th>Score</th><th>Reason</th></tr></thead>
    <tbody>
    {{range .Relevant}}<tr><td class="pass">{{.Classification}}</td><td>{{upper .Record.Source}}</td><td>{{.Record.RecordID}}</td><td>{{.Record.DisplayName}}</td><td>{{score .Score}}</td><td>{{.Reason}}</td></tr>
    {{end}}
    {{range .Irrelevant}}<tr><td class="fail">{{.Classification}}</td><td>{{upper .Record.Source}}</td><td>{{.Record.RecordID}}</td><td>{{.Record.DisplayName}}</td><td>{{score .Score}}</td><td>{{.Reason}}</td></tr>
    {{end}}
    </tbody>
  </table>
  {{end}}
  {{with .Comparison}}
  <p>Overlap: {{pct .OverlapRatio}} | {{.ICIJ.Details}}</p>
  <table>
    <thead><tr><th>Hit ID</th><th>Status</th><th>Original Name</th><th>Variation Name</th><th>ICIJ Validation</th></tr></thead>
    <tbody>
    {{range .Hits}}<tr><td>{{.RecordID}}</td><td>{{.Presence}}</td><td>{{.OriginalName}}</td><td>{{.VariationName}}</td><td>{{.ICIJStatus}}</td></tr>
    {{end}}
    </tbody>
  </table>
  {{end}}
</div>
{{end}}
</body>
</html>
`
