package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTextfile(t *testing.T) {
	RecordAPIRequest("200", 0.2)
	RecordCase("relevance", "PASS", 1.5)
	RecordPartition("watch", "missing", 2)
	RecordPartition("watch", "new", 0)

	path := filepath.Join(t.TempDir(), "nested", "clover.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `clover_search_api_requests_total{status_code="200"}`)
	assert.Contains(t, text, `clover_runner_cases_total{mode="relevance",status="PASS"}`)
	assert.Contains(t, text, `clover_reconcile_records_total{partition="missing",source="watch"} 2`)
	assert.NotContains(t, text, `partition="new"`)
}
