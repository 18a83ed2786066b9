package batch

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/domain-resolver/internal/model"
)

func TestWriteOutputs_JSON(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteOutputs(dir, "", sampleResults())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "results.json"),
		filepath.Join(dir, "manual_review.json"),
	}, paths)

	var all []model.ResolutionResult
	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &all))
	assert.Len(t, all, 7)

	var review []map[string]any
	data, err = os.ReadFile(paths[1])
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &review))
	require.Len(t, review, 5)
	assert.Nil(t, review[1]["domain"], "missing domain is written as null")
}

func TestWriteOutputs_EmptyReviewIsArray(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteOutputs(dir, FormatJSON, []model.ResolutionResult{withDomain("Acme", "acme.com", 98, false)})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "manual_review.json"))
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestWriteOutputs_CSV(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteOutputs(dir, "CSV", sampleResults())
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, "results.csv"))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 8)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, "Acme", rows[1][0])
	assert.Equal(t, "acme.com", rows[1][5])
	assert.Equal(t, "98", rows[1][7])
	assert.Equal(t, "", rows[4][5])
	assert.Equal(t, model.ErrNoDomainFound, rows[4][13])
}

func TestWriteOutputs_XLSX(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteOutputs(dir, FormatXLSX, sampleResults())
	require.NoError(t, err)

	f, err := xlsx.OpenFile(filepath.Join(dir, "manual_review.xlsx"))
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	rows := f.Sheets[0].Rows
	require.Len(t, rows, 6)
	assert.Equal(t, "name", rows[0].Cells[0].String())
	assert.Equal(t, "Gamma", rows[1].Cells[0].String())
	assert.Equal(t, "gamma.net", rows[1].Cells[5].String())
}

func TestWriteOutputs_UnknownFormat(t *testing.T) {
	_, err := WriteOutputs(t.TempDir(), "parquet", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}
