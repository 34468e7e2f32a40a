package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/clover/pkg/fingerprint"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/runner"
	"github.com/Ramsey-B/clover/pkg/suite"
)

// Worksheet names
const (
	SheetOverall       = "Overall Summary"
	SheetAllHits       = "All Hits"
	SheetEntitySummary = "Entity Summary"
)

// Hit statuses for regression rows, in sort order
const (
	HitCommonExact    = "Common (Exact Match)"
	HitCommonModified = "Common (Modified)"
	HitMissing        = "Missing from Current"
	HitNew            = "New in Current"
)

// Table is a worksheet worth of rows
type Table struct {
	Name   string
	Header []string
	Rows   [][]any
}

// Tables lays out a run as worksheets: overall summary, all hits, entity summary and,
// for regression runs, one sheet per entity
func Tables(result *runner.Result) []Table {
	switch result.Mode {
	case suite.ModeRegression:
		return regressionTables(result)
	case suite.ModeBenchmark:
		return []Table{runSummary(result), benchmarkHits(result), benchmarkSummary(result)}
	default:
		return []Table{runSummary(result), relevanceHits(result), relevanceSummary(result)}
	}
}

// HitRow is one reconciled record of a regression case
type HitRow struct {
	Entity     string
	EntityType string
	Source     models.Source
	Status     string
	order      int
	Record     models.NormalizedRecord
	Changes    string
	Digest     string
}

// RegressionHits flattens a case's reconciliation into rows ordered by status, source and id
func RegressionHits(c runner.CaseResult) []HitRow {
	if c.Reconciliation == nil {
		return nil
	}
	var rows []HitRow
	for _, res := range c.Reconciliation.Results {
		for _, m := range res.Matched {
			row := HitRow{Status: HitCommonExact, order: 1, Record: m.Current, Changes: "No changes"}
			if m.Status == models.MatchModified {
				row.Status = HitCommonModified
				row.Changes = FormatChanges(m.Changes)
			}
			rows = append(rows, row.with(c, res.Source))
		}
		for _, rec := range res.Missing {
			rows = append(rows, HitRow{Status: HitMissing, order: 2, Record: rec,
				Changes: "In baseline but missing from current results"}.with(c, res.Source))
		}
		for _, rec := range res.New {
			rows = append(rows, HitRow{Status: HitNew, order: 3, Record: rec,
				Changes: "New record in current results"}.with(c, res.Source))
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].order != rows[j].order {
			return rows[i].order < rows[j].order
		}
		if rows[i].Source != rows[j].Source {
			return rows[i].Source < rows[j].Source
		}
		return rows[i].Record.RecordID < rows[j].Record.RecordID
	})
	return rows
}

func (h HitRow) with(c runner.CaseResult, src models.Source) HitRow {
	h.Entity = c.Name
	h.EntityType = EntityTypeLabel(c.EntityType)
	h.Source = src
	h.Digest = fingerprint.Record(h.Record)
	return h
}

// FormatChanges renders field changes as "field: old -> new" in tracked field order
func FormatChanges(changes map[string]models.FieldChange) string {
	parts := make([]string, 0, len(changes))
	for _, field := range models.TrackedFields {
		if ch, ok := changes[field]; ok {
			parts = append(parts, fmt.Sprintf("%s: %s -> %s", field, ch.Old, ch.New))
		}
	}
	return strings.Join(parts, "; ")
}

// EntityTypeLabel spells out the P/E entity type codes
func EntityTypeLabel(code string) string {
	switch strings.ToUpper(code) {
	case "E":
		return "Entity"
	case "P":
		return "Person"
	default:
		return "Unspecified"
	}
}

// PassRate formats passed/total as a percentage
func PassRate(passed, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(passed)/float64(total)*100)
}

func regressionTables(result *runner.Result) []Table {
	overall := Table{Name: SheetOverall, Header: []string{
		"Entity_Type", "Total_Entities_Tested", "Tests_Passed", "Tests_Warned", "Tests_Failed", "Pass_Rate",
		"Total_Common_Records", "Total_New_in_Current", "Total_Missing_from_Current", "Total_Records",
	}}
	allHits := Table{Name: SheetAllHits, Header: []string{
		"Entity_Name", "Entity_Type", "Source", "Status", "ID", "Full_Name", "Other_Names",
		"In_Baseline", "In_Current", "Changes", "Digest",
	}}
	entitySummary := Table{Name: SheetEntitySummary, Header: []string{
		"Entity_Name", "Entity_Type", "Test_Status", "Failure_Reasons",
		"Common_Records", "New_in_Current", "Missing_from_Current", "Total_Records", "Has_Differences",
	}}

	type totals struct{ entities, passed, warned, failed, common, added, missing int }
	byType := map[string]*totals{}
	var typeOrder []string

	namer := newSheetNamer(SheetOverall, SheetAllHits, SheetEntitySummary)
	var entitySheets []Table
	var hits []HitRow

	for _, c := range result.Cases {
		label := EntityTypeLabel(c.EntityType)
		t, ok := byType[label]
		if !ok {
			t = &totals{}
			byType[label] = t
			typeOrder = append(typeOrder, label)
		}
		var common, added, missing int
		differs := false
		if c.Reconciliation != nil {
			tot := c.Reconciliation.Totals
			common, added, missing = tot.Common, tot.New, tot.Missing
			differs = c.Reconciliation.HasDifferences()
		}
		t.entities++
		t.common += common
		t.added += added
		t.missing += missing
		switch c.Status {
		case models.StatusPass:
			t.passed++
		case models.StatusWarn:
			t.warned++
		default:
			t.failed++
		}

		reasons := ""
		if c.Status == models.StatusFail {
			reasons = strings.Join(ectolinq.Ternary(len(c.FailureReasons) > 0, c.FailureReasons, []string{c.Reason}), "; ")
		}
		entitySummary.Rows = append(entitySummary.Rows, []any{
			c.Name, label, string(c.Status), reasons, common, added, missing, common + added + missing,
			ectolinq.Ternary(differs, "Yes", "No"),
		})

		caseHits := RegressionHits(c)
		hits = append(hits, caseHits...)

		sheet := Table{Name: namer.name(c.Name), Header: []string{"Source", "Status", "ID", "Full_Name", "Other_Names", "Changes"}}
		for _, h := range caseHits {
			sheet.Rows = append(sheet.Rows, []any{
				strings.ToUpper(string(h.Source)), h.Status, string(h.Record.RecordID), h.Record.FullName, h.Record.OtherNames, h.Changes,
			})
		}
		if len(sheet.Rows) == 0 {
			sheet.Rows = append(sheet.Rows, []any{"No Data", "No Results", "", "", "", "No data available"})
		}
		entitySheets = append(entitySheets, sheet)
	}

	var grand totals
	sort.Strings(typeOrder)
	for _, label := range typeOrder {
		t := byType[label]
		overall.Rows = append(overall.Rows, []any{
			label, t.entities, t.passed, t.warned, t.failed, PassRate(t.passed, t.entities),
			t.common, t.added, t.missing, t.common + t.added + t.missing,
		})
		grand.entities += t.entities
		grand.passed += t.passed
		grand.warned += t.warned
		grand.failed += t.failed
		grand.common += t.common
		grand.added += t.added
		grand.missing += t.missing
	}
	overall.Rows = append(overall.Rows, []any{
		"GRAND TOTAL", grand.entities, grand.passed, grand.warned, grand.failed, PassRate(grand.passed, grand.entities),
		grand.common, grand.added, grand.missing, grand.common + grand.added + grand.missing,
	})

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.order != b.order {
			return a.order < b.order
		}
		if a.EntityType != b.EntityType {
			return a.EntityType < b.EntityType
		}
		if a.Entity != b.Entity {
			return a.Entity < b.Entity
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Record.RecordID < b.Record.RecordID
	})
	for _, h := range hits {
		inBaseline, inCurrent := "Yes", "Yes"
		switch h.Status {
		case HitMissing:
			inCurrent = "No"
		case HitNew:
			inBaseline = "No"
		}
		allHits.Rows = append(allHits.Rows, []any{
			h.Entity, h.EntityType, strings.ToUpper(string(h.Source)), h.Status, string(h.Record.RecordID),
			h.Record.FullName, h.Record.OtherNames, inBaseline, inCurrent, h.Changes, h.Digest,
		})
	}
	if len(allHits.Rows) == 0 {
		allHits.Rows = append(allHits.Rows, []any{"No Data", "", "", "No records found", "", "", "", "", "", "No data available", ""})
	}

	sort.SliceStable(entitySummary.Rows, func(i, j int) bool {
		ti, tj := entitySummary.Rows[i][1].(string), entitySummary.Rows[j][1].(string)
		if ti != tj {
			return ti < tj
		}
		return entitySummary.Rows[i][0].(string) < entitySummary.Rows[j][0].(string)
	})

	return append([]Table{overall, allHits, entitySummary}, entitySheets...)
}

func runSummary(result *runner.Result) Table {
	return Table{
		Name:   SheetOverall,
		Header: []string{"Metric", "Value"},
		Rows: [][]any{
			{"Suite", result.Suite},
			{"Mode", result.Mode},
			{"Run ID", result.RunID},
			{"Started", result.StartedAt.Format("2006-01-02 15:04:05")},
			{"Total Cases", result.Total},
			{"Passed", result.Passed},
			{"Warned", result.Warned},
			{"Failed", result.Failed},
			{"Skipped", result.Skipped},
			{"Pass Rate", PassRate(result.Passed, result.Total)},
			{"Duration", result.Duration.String()},
		},
	}
}

func relevanceHits(result *runner.Result) Table {
	t := Table{Name: SheetAllHits, Header: []string{
		"Case", "Search_Term", "Source", "ID", "Full_Name", "Other_Names", "Score", "Classification", "Expected", "Reason",
	}}
	for _, c := range result.Cases {
		if c.Evaluation == nil {
			continue
		}
		judgments := append(append([]models.RelevanceJudgment(nil), c.Evaluation.Relevant...), c.Evaluation.Irrelevant...)
		for _, j := range judgments {
			t.Rows = append(t.Rows, []any{
				c.Name, c.SearchTerm, strings.ToUpper(string(j.Record.Source)), string(j.Record.RecordID),
				j.Record.DisplayName(), j.Record.OtherNames, round3(j.Score), string(j.Classification),
				ectolinq.Ternary(j.Expected, "Yes", ""), j.Reason,
			})
		}
	}
	return t
}

func relevanceSummary(result *runner.Result) Table {
	t := Table{Name: SheetEntitySummary, Header: []string{
		"Case", "Search_Term", "Entity_Type", "Status", "Reason", "Total_Results", "Relevant", "Irrelevant",
		"Average_Score", "Missing_Expected", "Error",
	}}
	for _, c := range result.Cases {
		var total, relevant, irrelevant int
		var avg float64
		var missing string
		if ev := c.Evaluation; ev != nil {
			total, relevant, irrelevant = ev.TotalResults, len(ev.Relevant), len(ev.Irrelevant)
			avg = round3(ev.AverageScore)
			missing = strings.Join(ev.MissingExpected, "; ")
		}
		t.Rows = append(t.Rows, []any{
			c.Name, c.SearchTerm, EntityTypeLabel(c.EntityType), string(c.Status), c.Reason,
			total, relevant, irrelevant, avg, missing, c.FetchError,
		})
	}
	return t
}

func benchmarkHits(result *runner.Result) Table {
	t := Table{Name: SheetAllHits, Header: []string{
		"Original Term", "Variation Term", "Hit ID", "Original Name", "Variation Name", "Original Schema",
		"Variation Schema", "Original Name Normalized", "Variation Name Normalized", "Status", "ICIJ Validation",
	}}
	for _, c := range result.Cases {
		if c.Comparison == nil {
			continue
		}
		for _, h := range c.Comparison.Hits {
			t.Rows = append(t.Rows, []any{
				c.SearchTerm, c.Variation, string(h.RecordID), h.OriginalName, h.VariationName,
				string(h.OriginalSource), string(h.VariationSource), h.OriginalNameNormalized,
				h.VariationNameNormalized, h.Presence, h.ICIJStatus,
			})
		}
	}
	return t
}

func benchmarkSummary(result *runner.Result) Table {
	t := Table{Name: SheetEntitySummary, Header: []string{
		"Case", "Original Term", "Variation Term", "Status", "Reason", "Overlap", "Original Count",
		"Variation Count", "Common", "ICIJ Score", "ICIJ Details", "Error",
	}}
	for _, c := range result.Cases {
		row := []any{c.Name, c.SearchTerm, c.Variation, string(c.Status), c.Reason}
		if cmp := c.Comparison; cmp != nil {
			row = append(row, PercentString(cmp.OverlapRatio), cmp.OriginalCount, cmp.VariationCount,
				len(cmp.CommonIDs), PercentString(cmp.ICIJ.Score), cmp.ICIJ.Details)
		} else {
			row = append(row, "", 0, 0, 0, "", "")
		}
		t.Rows = append(t.Rows, append(row, c.FetchError))
	}
	return t
}

// PercentString formats a ratio with one decimal place
func PercentString(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

func round3(v float64) float64 {
	return float64(int64(v*1000+0.5)) / 1000
}
