package report

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadctl/internal/loader"
	"loadctl/internal/pipeline"
	"loadctl/internal/verifier"
)

var (
	started  = time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC)
	finished = started.Add(2500 * time.Millisecond)
)

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		Loads: []loader.LoadResult{
			{FileName: "orders.csv", DestinationTable: "orders", RowsRead: 3, RowsLoaded: 3, Status: loader.StatusSuccess},
			{FileName: "missing.csv", DestinationTable: "missing", Status: loader.StatusFailed, ErrorDetail: "SourceMissing: resolve missing.csv: blob: object not found: missing.csv"},
			{FileName: "payments.csv", DestinationTable: "payments", RowsRead: 4, RowsLoaded: 3, Status: loader.StatusPartial, ErrorDetail: "PartialLoadError: 1 of 4 rows rejected"},
			{FileName: "users.csv", DestinationTable: "users", RowsRead: 2, RowsLoaded: 2, Status: loader.StatusSuccess},
		},
		Verifications: []verifier.VerificationResult{
			{DestinationTable: "orders", ExpectedRows: 3, ActualRows: 3, Status: verifier.StatusMatch},
			{DestinationTable: "missing", Status: verifier.StatusMissingTable},
			{DestinationTable: "payments", ExpectedRows: 4, ActualRows: 3, Status: verifier.StatusMismatch},
			{DestinationTable: "users", ExpectedRows: 2, ActualRows: 2, Status: verifier.StatusMatch},
		},
	}
}

func TestNew_Counts(t *testing.T) {
	t.Parallel()

	r := New("1b4e28ba-2fa1-11d2-883f-0016d3cca427", "run", started, finished, sampleResult())

	assert.Equal(t, 4, r.TotalTables)
	assert.Equal(t, 2, r.Successful)
	assert.Equal(t, 1, r.Partial)
	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, int64(8), r.TotalRowsLoaded)
	assert.Equal(t, 50.0, r.CompletionPercentage)
	assert.Equal(t, 0.5, r.SuccessRate)
	require.NotNil(t, r.Verification)
	assert.Equal(t, 1, r.Verification.MissingTables)
	assert.Equal(t, "run_20240501T101500Z_1b4e28ba.json", r.FileName())
}

func TestNew_Empty(t *testing.T) {
	t.Parallel()

	r := New("id", "verify", started, finished, &pipeline.Result{})
	assert.Zero(t, r.CompletionPercentage)
	assert.Zero(t, r.SuccessRate)
	assert.Nil(t, r.Verification)
	assert.NotNil(t, r.Loads)
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir() + "/logs"
	r := New("1b4e28ba-2fa1", "run", started, finished, sampleResult())

	path, err := r.WriteJSON(dir)
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, "1b4e28ba-2fa1", doc["run_id"])
	assert.Equal(t, float64(4), doc["total_tables"])
	assert.Equal(t, float64(50), doc["completion_percentage"])
	assert.Equal(t, 0.5, doc["success_rate"])
	assert.Len(t, doc["loads"], 4)
	assert.Len(t, doc["verifications"], 4)
	assert.Equal(t, "2024-05-01T10:15:00Z", doc["started_at"])
}

func TestWriteSummary(t *testing.T) {
	t.Parallel()

	res := sampleResult()
	res.Truncations = []pipeline.TruncateResult{{Table: "orders", RowsTruncated: 3, Status: pipeline.TruncateSuccess}}

	var buf bytes.Buffer
	require.NoError(t, New("abc", "run", started, finished, res).WriteSummary(&buf))
	out := buf.String()

	assert.Contains(t, out, "FILE")
	assert.Contains(t, out, "TRUNCATED")
	assert.Contains(t, out, "PartialLoadError: 1 of 4 rows rejected")
	assert.Contains(t, out, "loads: 4 total, 2 successful, 1 partial, 1 failed, 8 rows loaded (50.0% complete)")
	assert.Contains(t, out, "verification: 2/4 tables match (success rate 50.0%)")
	assert.Contains(t, out, "run abc finished in 2.5s")
}

func TestOneLine(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a b c", oneLine("a\n b\t c"))
	long := oneLine(string(bytes.Repeat([]byte("x"), 200)))
	assert.Len(t, long, 120)
	assert.True(t, bytes.HasSuffix([]byte(long), []byte("...")))
}
