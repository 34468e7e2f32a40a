package baseline

import (
	"fmt"
	"io"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/xuri/excelize/v2"

	"github.com/Ramsey-B/clover/pkg/models"
)

// DefaultSheet is the sheet read when none is given
const DefaultSheet = "Sheet1"

// Workbook column headers
const (
	ColumnName     = "Name"
	ColumnType     = "Type"
	ColumnResponse = "Current GDC respose"
)

var responseAliases = []string{ColumnResponse, "Current GDC response", "Baseline"}

// Entity is one workbook row: a search term and the legacy system's results for it
type Entity struct {
	Name string
	// Type is "P" for persons and "E" for entities
	Type     string
	Row      int
	Baseline models.RecordSet
	// ParseError is set when the recorded payload could not be decoded; Baseline is then empty
	ParseError error
}

// Loader reads baseline workbooks
type Loader struct {
	logger ectologger.Logger
}

// NewLoader creates a new Loader
func NewLoader(logger ectologger.Logger) *Loader {
	return &Loader{logger: logger}
}

// LoadWorkbook reads baseline entities from an xlsx file
func (l *Loader) LoadWorkbook(path, sheet string) ([]Entity, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()
	return l.load(f, sheet)
}

// LoadWorkbookReader reads baseline entities from an xlsx stream
func (l *Loader) LoadWorkbookReader(r io.Reader, sheet string) ([]Entity, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return l.load(f, sheet)
}

func (l *Loader) load(f *excelize.File, sheet string) ([]Entity, error) {
	if sheet == "" {
		sheet = DefaultSheet
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheet)
	}

	header := HeaderIndex(rows[0])
	nameCol, ok := header.Column(ColumnName)
	if !ok {
		return nil, fmt.Errorf("sheet %s has no %q column", sheet, ColumnName)
	}
	typeCol, ok := header.Column(ColumnType)
	if !ok {
		return nil, fmt.Errorf("sheet %s has no %q column", sheet, ColumnType)
	}
	respCol, hasResp := header.Column(responseAliases...)

	entities := make([]Entity, 0, len(rows)-1)
	for i, row := range rows[1:] {
		name := Cell(row, nameCol)
		entityType := strings.ToUpper(Cell(row, typeCol))
		if name == "" || entityType == "" {
			continue
		}

		entity := Entity{Name: name, Type: entityType, Row: i + 2, Baseline: models.NewRecordSet()}
		if hasResp {
			set, err := ParsePreview([]byte(Cell(row, respCol)))
			if err != nil {
				entity.ParseError = err
				l.logger.WithError(err).WithFields(map[string]any{
					"entity": name,
					"row":    entity.Row,
				}).Warn("Failed to parse baseline payload, using empty baseline")
			} else {
				entity.Baseline = set
			}
		}
		entities = append(entities, entity)
	}

	l.logger.WithFields(map[string]any{
		"sheet":    sheet,
		"entities": len(entities),
	}).Info("Loaded baseline workbook")
	return entities, nil
}

// Header maps lowercase column names to their index
type Header map[string]int

// HeaderIndex builds a Header from a header row
func HeaderIndex(row []string) Header {
	h := make(Header, len(row))
	for i, name := range row {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, exists := h[key]; !exists && key != "" {
			h[key] = i
		}
	}
	return h
}

// Column returns the index of the first of names present in the header
func (h Header) Column(names ...string) (int, bool) {
	for _, name := range names {
		if i, ok := h[strings.ToLower(name)]; ok {
			return i, true
		}
	}
	return 0, false
}

// Cell returns the trimmed value at col, or "" for short rows
func Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
