// Package input reads company lists for batch resolution from CSV or XLSX
// files.
package input

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/domain-resolver/internal/model"
)

// Columns is the fixed input layout. A header row naming them is required;
// column order is free and unknown columns are ignored.
var Columns = []string{"name", "city", "phone", "address", "context"}

// ReadQueries loads companies from a .csv or .xlsx file.
func ReadQueries(ctx context.Context, path string) ([]model.CompanyQuery, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = ReadXLSX(path, XLSXOptions{})
	default:
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil, eris.Wrapf(openErr, "input: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		rows, err = ReadCSV(ctx, f, CSVOptions{TrimSpace: true, LazyQuotes: true})
	}
	if err != nil {
		return nil, eris.Wrapf(err, "input: read %s", path)
	}
	return ParseQueries(rows)
}

// ParseQueries maps rows to queries using the header in rows[0]. Rows with
// a blank name are skipped.
func ParseQueries(rows [][]string) ([]model.CompanyQuery, error) {
	if len(rows) == 0 {
		return nil, eris.New("input: no header row")
	}

	idx := make(map[string]int, len(Columns))
	for i, h := range rows[0] {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}
	if _, ok := idx["name"]; !ok {
		return nil, eris.Errorf("input: header has no name column (want %s)", strings.Join(Columns, ","))
	}

	field := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	queries := make([]model.CompanyQuery, 0, len(rows)-1)
	skipped := 0
	for _, row := range rows[1:] {
		q := model.CompanyQuery{
			Name:    field(row, "name"),
			City:    field(row, "city"),
			Phone:   field(row, "phone"),
			Address: field(row, "address"),
			Context: field(row, "context"),
		}
		if !q.Valid() {
			skipped++
			continue
		}
		queries = append(queries, q)
	}
	if skipped > 0 {
		zap.L().Warn("input: skipped rows without a company name", zap.Int("skipped", skipped))
	}
	return queries, nil
}
