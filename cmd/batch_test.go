package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/domain-resolver/internal/batch"
	"github.com/sells-group/domain-resolver/internal/model"
)

func TestApplyBatchFlags(t *testing.T) {
	cfg = testConfig(t)
	cfg.Batch.OutputDir = "output"

	require.NoError(t, batchCmd.Flags().Set("workers", "12"))
	require.NoError(t, batchCmd.Flags().Set("format", "csv"))
	t.Cleanup(func() {
		batchCmd.Flags().Lookup("workers").Changed = false
		batchCmd.Flags().Lookup("format").Changed = false
		batchWorkers, batchFormat = 0, ""
	})

	applyBatchFlags(batchCmd)
	assert.Equal(t, 12, cfg.Batch.MaxWorkers)
	assert.Equal(t, "csv", cfg.Batch.OutputFormat)
	assert.Equal(t, "output", cfg.Batch.OutputDir, "unset flags keep config values")
}

func TestRunBatch_WritesLookupLog(t *testing.T) {
	cfg = testConfig(t)
	cfg.Batch.LogPath = filepath.Join(t.TempDir(), "logs", "lookups.jsonl")

	res := &stubResolver{}
	queries := []model.CompanyQuery{{Name: "Acme Tools"}, {Name: "Unknown Holdings"}}

	report, err := runBatch(context.Background(), res, nil, queries)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 2, report.Summary.Total)
	assert.NotEmpty(t, report.RunID)

	data, err := os.ReadFile(cfg.Batch.LogPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2)
	for _, line := range lines {
		var entry model.LookupLog
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		assert.Equal(t, report.RunID, entry.RunID)
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	err := printSummary(&buf, &batch.Report{
		RunID:   "run-1",
		Summary: batch.Summary{Total: 3, Found: 2, HighConfidence: 1, NeedsReview: 1},
		Cached:  1,
	})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "run-1", out["run_id"])
	assert.EqualValues(t, 1, out["cached"])
	summary, ok := out["summary"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 3, summary["total"])
}
