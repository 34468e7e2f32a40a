package suite

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Ramsey-B/clover/pkg/baseline"
)

// Case sheet column headers
const (
	ColumnSearchTerm         = "Search Term"
	ColumnEntityType         = "Entity Type"
	ColumnExpectedResultType = "Expected Result Type"
	ColumnNotes              = "Notes"
	ColumnOriginal           = "Search Term Original"
	ColumnVariation          = "Search Term Variation"
	ColumnCategory           = "Test Category"
	ColumnExpectedBehavior   = "Expected Behavior"
)

// LoadWorkbook reads cases from an xlsx sheet; an empty sheet name reads the first sheet.
// Sheets with "Search Term Original" and "Search Term Variation" columns load as benchmark cases.
func LoadWorkbook(path, sheet string) (*Suite, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()
	return loadWorkbook(f, suiteName(path), sheet)
}

// LoadWorkbookReader reads cases from an xlsx stream
func LoadWorkbookReader(r io.Reader, name, sheet string) (*Suite, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return loadWorkbook(f, name, sheet)
}

func loadWorkbook(f *excelize.File, name, sheet string) (*Suite, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return FromRows(name, rows)
}

// LoadTSV reads cases from a tab separated file with the workbook's headers
func LoadTSV(path string) (*Suite, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return ParseTSV(f, suiteName(path))
}

// ParseTSV reads tab separated cases
func ParseTSV(r io.Reader, name string) (*Suite, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read TSV: %w", err)
	}
	return FromRows(name, rows)
}

// FromRows builds a suite from a header row followed by case rows.
// Rows missing a search term or entity type are skipped.
func FromRows(name string, rows [][]string) (*Suite, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no header row")
	}
	header := baseline.HeaderIndex(rows[0])

	entityCol, ok := header.Column(ColumnEntityType)
	if !ok {
		return nil, fmt.Errorf("missing %q column", ColumnEntityType)
	}
	originalCol, benchmark := header.Column(ColumnOriginal)
	variationCol, hasVariation := header.Column(ColumnVariation)
	benchmark = benchmark && hasVariation

	termCol, hasTerm := header.Column(ColumnSearchTerm)
	if benchmark {
		termCol, hasTerm = originalCol, true
	}
	if !hasTerm {
		return nil, fmt.Errorf("missing %q column", ColumnSearchTerm)
	}
	expectedCol, hasExpected := header.Column(ColumnExpectedResultType)
	notesCol, hasNotes := header.Column(ColumnNotes)
	categoryCol, hasCategory := header.Column(ColumnCategory)
	behaviorCol, hasBehavior := header.Column(ColumnExpectedBehavior)

	optional := func(row []string, col int, present bool) string {
		if !present {
			return ""
		}
		return baseline.Cell(row, col)
	}

	s := &Suite{Name: name, Mode: ModeRelevance}
	if benchmark {
		s.Mode = ModeBenchmark
	}
	for i, row := range rows[1:] {
		c := Case{
			SearchTerm:         baseline.Cell(row, termCol),
			EntityType:         strings.ToUpper(baseline.Cell(row, entityCol)),
			ExpectedResultType: optional(row, expectedCol, hasExpected),
			Notes:              optional(row, notesCol, hasNotes),
			Category:           optional(row, categoryCol, hasCategory),
			ExpectedBehavior:   optional(row, behaviorCol, hasBehavior),
			Row:                i + 2,
		}
		if benchmark {
			c.Variation = baseline.Cell(row, variationCol)
			if c.Variation == "" {
				continue
			}
		}
		if c.SearchTerm == "" || c.EntityType == "" {
			continue
		}
		s.Cases = append(s.Cases, c)
	}

	if err := s.Prepare(); err != nil {
		return nil, err
	}
	return s, nil
}

func suiteName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
