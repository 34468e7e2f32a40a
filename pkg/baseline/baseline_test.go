package baseline

import (
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Ramsey-B/clover/pkg/models"
)

const previewPayload = `{"Args":[{"nameSearch":{"Preview":{
	"Watch":[
		{"recid":1001,"ID":"202-1","Full_Name":"Mirage Aircraft","Other_Names":"Mirage Air"},
		{"recid":1002,"First_Name":"John","Last_Name":"Smith"},
		{"ID":"202-3","Full_Name":"no recid"}
	],
	"PEP":[{"recid":"2001","Full_Name":"Jane Doe","AltScript":"Джейн"}],
	"Unknown":[{"recid":9}],
	"soe":"not a list"
}}}]}`

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestParsePreview(t *testing.T) {
	set, err := ParsePreview([]byte(previewPayload))
	require.NoError(t, err)

	watch := set.Get(models.SourceWatch)
	require.Len(t, watch, 2)
	assert.Equal(t, models.RecordID("1001"), watch[0].RecordID)
	assert.Equal(t, "Mirage Air", watch[0].OtherNames)
	assert.Equal(t, "John Smith", watch[1].FullName)

	pep := set.Get(models.SourcePEP)
	require.Len(t, pep, 1)
	assert.Equal(t, "Джейн", pep[0].OtherNames)
	assert.Equal(t, 3, set.Count())
}

func TestParsePreviewEmpty(t *testing.T) {
	for _, payload := range []string{"", "  ", NoHits, `{}`, `{"Args":[]}`, `{"Args":[{"nameSearch":{}}]}`} {
		set, err := ParsePreview([]byte(payload))
		require.NoError(t, err, payload)
		assert.Zero(t, set.Count(), payload)
	}
}

func TestParsePreviewMalformed(t *testing.T) {
	set, err := ParsePreview([]byte(`{"Args":[`))
	assert.Error(t, err)
	assert.NotNil(t, set)
	assert.Zero(t, set.Count())
}

func newWorkbook(t *testing.T, sheet string, rows [][]any) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	if sheet != DefaultSheet {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	return f
}

func TestLoadWorkbook(t *testing.T) {
	f := newWorkbook(t, DefaultSheet, [][]any{
		{"Name", "Type", "Current GDC respose"},
		{"Mirage Aircraft", "e", previewPayload},
		{"Nobody", "P", NoHits},
		{"", "P", ""},
		{"Broken", "E", `{"Args":`},
		{"Short Row", "P"},
	})
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	entities, err := NewLoader(testLogger()).LoadWorkbookReader(buf, "")
	require.NoError(t, err)
	require.Len(t, entities, 4)

	assert.Equal(t, "Mirage Aircraft", entities[0].Name)
	assert.Equal(t, "E", entities[0].Type)
	assert.Equal(t, 2, entities[0].Row)
	assert.Equal(t, 3, entities[0].Baseline.Count())

	assert.Equal(t, "Nobody", entities[1].Name)
	assert.Zero(t, entities[1].Baseline.Count())
	assert.NoError(t, entities[1].ParseError)

	assert.Equal(t, "Broken", entities[2].Name)
	assert.Error(t, entities[2].ParseError)
	assert.Zero(t, entities[2].Baseline.Count())

	assert.Equal(t, "Short Row", entities[3].Name)
	assert.Zero(t, entities[3].Baseline.Count())
}

func TestLoadWorkbookMissingColumns(t *testing.T) {
	f := newWorkbook(t, "Cases", [][]any{{"Query", "Type"}})
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = NewLoader(testLogger()).LoadWorkbookReader(buf, "Cases")
	assert.ErrorContains(t, err, "Name")
}

func TestHeader(t *testing.T) {
	h := HeaderIndex([]string{" Name ", "TYPE", "", "name"})
	i, ok := h.Column("name")
	assert.True(t, ok)
	assert.Equal(t, 0, i)
	i, ok = h.Column("missing", "type")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	_, ok = h.Column("missing")
	assert.False(t, ok)

	assert.Equal(t, "", Cell([]string{"a"}, 3))
	assert.Equal(t, "a", Cell([]string{" a "}, 0))
}

func TestLoadReferences(t *testing.T) {
	input := `# company references
APPLE: Apple Inc, apple computer,  , iPhone
tesla:Tesla Motors
not a reference line

Coca-Cola: coca cola company, coke
`
	refs, err := LoadReferences(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 3, refs.Len())
	assert.Equal(t, []string{"APPLE", "COCA-COLA", "TESLA"}, refs.Terms())
	assert.Equal(t, []string{"apple inc", "apple computer", "iphone"}, refs.Keywords(" apple "))
	assert.True(t, refs.Has("Tesla"))
	assert.False(t, refs.Has("ibm"))
	assert.Nil(t, refs.Keywords("ibm"))
	assert.Equal(t, []int{4}, refs.Invalid)
}
