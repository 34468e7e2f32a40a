package extractor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Ramsey-B/clover/pkg/fingerprint"
	"github.com/Ramsey-B/clover/pkg/models"
)

// DefaultResultsExpression locates the hit list in a search response
const DefaultResultsExpression = "results || data || hits"

var indexSources = []models.Source{
	models.SourcePEP,
	models.SourceWatch,
	models.SourceSanction,
	models.SourceICIJ,
	models.SourceMex,
	models.SourceSOE,
	models.SourceRights,
	models.SourceCol,
	models.SourceMedia,
	models.SourceOFAC,
}

var idPrefixSources = []struct {
	prefix string
	source models.Source
}{
	{"101", models.SourcePEP},
	{"202", models.SourceWatch},
	{"901", models.SourceSOE},
	{"307", models.SourceRights},
	{"801", models.SourceICIJ},
}

// Extractor turns search API response bodies into record sets
type Extractor struct {
	query             *Query
	resultsExpression string
}

// Option configures an Extractor
type Option func(*Extractor)

// WithResultsExpression overrides the JMESPath expression used to find the hit list
func WithResultsExpression(expression string) Option {
	return func(e *Extractor) {
		if expression != "" {
			e.resultsExpression = expression
		}
	}
}

// New creates a new Extractor
func New(opts ...Option) *Extractor {
	e := &Extractor{
		query:             NewQuery(),
		resultsExpression: DefaultResultsExpression,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Results decodes a response body and returns its hits
func (e *Extractor) Results(body []byte) ([]map[string]any, error) {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if _, ok := data.(map[string]any); !ok {
		return nil, fmt.Errorf("unexpected response shape %T", data)
	}
	return e.query.SearchObjects(e.resultsExpression, data)
}

// Transform decodes a response body into records grouped by source.
// Hits without a usable record id are skipped.
func (e *Extractor) Transform(body []byte) (models.RecordSet, error) {
	hits, err := e.Results(body)
	if err != nil {
		return nil, err
	}
	set := models.NewRecordSet()
	for _, hit := range hits {
		if rec, ok := NormalizeHit(hit); ok {
			set.Add(rec)
		}
	}
	return set, nil
}

// NormalizeHit maps one search hit onto a NormalizedRecord.
// Hits without a native id get a synthetic one derived from _id.
// It returns false when no record id can be determined.
func NormalizeHit(hit map[string]any) (models.NormalizedRecord, bool) {
	src, ok := hit["_source"].(map[string]any)
	if !ok {
		src = hit
	}

	rec := buildRecord(src, DetectSource(hit))
	if score, ok := hit["_score"].(float64); ok {
		rec.Score = score
	}

	if id, ok := nativeID(src); ok {
		rec.RecordID = id
	} else {
		id, ok := fingerprint.SyntheticID(ExtractString(hit, "_id"))
		if !ok {
			return models.NormalizedRecord{}, false
		}
		rec.RecordID = id
		rec.Synthetic = true
	}
	if !validID(rec.RecordID) {
		return models.NormalizedRecord{}, false
	}
	return rec, true
}

// NormalizeRecord maps a raw record of a known source onto a NormalizedRecord.
// It returns false when the record carries no usable recid or record_id.
func NormalizeRecord(raw map[string]any, source models.Source) (models.NormalizedRecord, bool) {
	id, ok := nativeID(raw)
	if !ok || !validID(id) {
		return models.NormalizedRecord{}, false
	}
	rec := buildRecord(raw, source)
	rec.RecordID = id
	return rec, true
}

func nativeID(src map[string]any) (models.RecordID, bool) {
	for _, key := range []string{"recid", "record_id"} {
		if Has(src, key) {
			return models.RecordID(strings.TrimSpace(ExtractString(src, key))), true
		}
	}
	return "", false
}

func validID(id models.RecordID) bool {
	return id != "" && id != "0"
}

func buildRecord(src map[string]any, source models.Source) models.NormalizedRecord {
	rec := models.NormalizedRecord{
		Source:         source,
		ExternalID:     ExtractString(src, "ID"),
		FirstName:      FirstString(src, "First_Name"),
		LastName:       FirstString(src, "Last_Name"),
		AltScript:      FirstString(src, "AltScript"),
		RecType:        FirstString(src, "RecType"),
		NameNormalized: FirstString(src, "name_normalized", "name normalized"),
	}

	rec.FullName = FirstString(src, "Full_Name")
	if rec.FullName == "" && source == models.SourceICIJ {
		rec.FullName = FirstString(src, "name_normalized", "name normalized", "Entity_Name")
	}
	if rec.FullName == "" {
		rec.FullName = models.JoinName(rec.FirstName, rec.LastName)
	}

	otherNames := FirstString(src, "Other_Names")
	if otherNames == "" {
		otherNames = FirstString(src, "otherNames")
	}
	rec.OtherNames = models.JoinOtherNames(otherNames, rec.AltScript)
	return rec
}

// DetectSource determines a hit's schema from its index name, then from its ID prefix.
// Unknown hits default to watch.
func DetectSource(hit map[string]any) models.Source {
	if index := strings.ToLower(ExtractString(hit, "_index")); index != "" {
		for _, src := range indexSources {
			if strings.Contains(index, string(src)) {
				return src
			}
		}
	}

	id := ExtractString(hit, "_source.ID")
	if id == "" {
		id = ExtractString(hit, "ID")
	}
	for _, p := range idPrefixSources {
		if strings.HasPrefix(id, p.prefix) {
			return p.source
		}
	}
	return models.SourceWatch
}
