package input

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/domain-resolver/internal/model"
)

func TestParseQueries(t *testing.T) {
	rows := [][]string{
		{"\ufeffCity", "Name", "Phone", "Notes", "Context"},
		{"Denver", "Acme Corp", "303-555-0100", "ignored", "industrial"},
		{"Austin", "  ", "512-555-0100", "", ""},
		{"Boise", "Short Row"},
	}

	got, err := ParseQueries(rows)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.CompanyQuery{Name: "Acme Corp", City: "Denver", Phone: "303-555-0100", Context: "industrial"}, got[0])
	assert.Equal(t, model.CompanyQuery{Name: "Short Row", City: "Boise"}, got[1])
}

func TestParseQueries_Errors(t *testing.T) {
	_, err := ParseQueries(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header row")

	_, err = ParseQueries([][]string{{"company", "city"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no name column")
}

func TestReadQueries_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.csv")
	content := "name,city,phone,address,context\n" +
		"Acme Corp,Denver,303-555-0100,\"1 Main St, Denver\",industrial\n" +
		"Example Plumbing,Austin,,,plumbing\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := ReadQueries(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1 Main St, Denver", got[0].Address)
	assert.Equal(t, "Example Plumbing", got[1].Name)
	assert.Equal(t, "plumbing", got[1].Context)
}

func TestReadQueries_XLSX(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Companies")
	require.NoError(t, err)
	for _, r := range [][]string{{"name", "city"}, {"Acme Corp", "Denver"}} {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().SetString(v)
		}
	}
	path := filepath.Join(t.TempDir(), "companies.xlsx")
	require.NoError(t, f.Save(path))

	got, err := ReadQueries(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.CompanyQuery{Name: "Acme Corp", City: "Denver"}, got[0])

	_, err = ReadXLSX(path, XLSXOptions{SheetName: "Missing"})
	require.Error(t, err)
	_, err = ReadXLSX(path, XLSXOptions{SheetIndex: 3})
	require.Error(t, err)
}

func TestReadQueries_MissingFile(t *testing.T) {
	_, err := ReadQueries(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input: open")
}
