// Package baseline loads the legacy system's recorded search results
package baseline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Ramsey-B/clover/pkg/extractor"
	"github.com/Ramsey-B/clover/pkg/models"
)

// PreviewExpression locates the per-source record lists in a legacy response
const PreviewExpression = "Args[0].nameSearch.Preview"

// NoHits marks a workbook row whose legacy search returned nothing
const NoHits = "No Hits"

var query = extractor.NewQuery()

// ParsePreview extracts baseline records from a legacy search response.
// Source keys match case-insensitively; unknown sources and records without a recid are skipped.
// A payload without a preview section yields an empty set.
func ParsePreview(payload []byte) (models.RecordSet, error) {
	set := models.NewRecordSet()
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" || trimmed == NoHits {
		return set, nil
	}

	var data any
	if err := json.Unmarshal([]byte(trimmed), &data); err != nil {
		return set, fmt.Errorf("failed to decode baseline payload: %w", err)
	}

	result, err := query.Search(PreviewExpression, data)
	if err != nil {
		return set, err
	}
	preview, ok := result.(map[string]any)
	if !ok {
		return set, nil
	}

	for key, value := range preview {
		src, err := models.ParseSource(key)
		if err != nil {
			continue
		}
		records, ok := value.([]any)
		if !ok {
			continue
		}
		for _, item := range records {
			raw, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if rec, ok := extractor.NormalizeRecord(raw, src); ok {
				set.Add(rec)
			}
		}
	}
	return set, nil
}
