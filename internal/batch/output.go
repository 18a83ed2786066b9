package batch

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/domain-resolver/internal/model"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Output file base names.
const (
	ResultsFile = "results"
	ReviewFile  = "manual_review"
)

var header = []string{
	"name", "city", "phone", "address", "context",
	"domain", "url", "confidence", "source", "method",
	"verified", "needs_manual_review", "stage_reached", "error", "resolved_at",
}

// WriteOutputs writes all results and the manual-review subset to dir in
// format and returns the written paths.
func WriteOutputs(dir, format string, results []model.ResolutionResult) ([]string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatJSON
	}
	write, ok := writers[format]
	if !ok {
		return nil, eris.Errorf("batch: unknown output format %q", format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "batch: create output dir %s", dir)
	}

	all, review := Partition(results)
	parts := []struct {
		name    string
		results []model.ResolutionResult
	}{
		{ResultsFile, all},
		{ReviewFile, review},
	}
	var paths []string
	for _, p := range parts {
		path := filepath.Join(dir, p.name+"."+format)
		if err := write(path, p.results); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

var writers = map[string]func(path string, results []model.ResolutionResult) error{
	FormatJSON: writeJSON,
	FormatCSV:  writeCSV,
	FormatXLSX: writeXLSX,
}

func writeJSON(path string, results []model.ResolutionResult) error {
	if results == nil {
		results = []model.ResolutionResult{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return eris.Wrap(err, "batch: marshal results")
	}
	return eris.Wrapf(os.WriteFile(path, data, 0o644), "batch: write %s", path)
}

func writeCSV(path string, results []model.ResolutionResult) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "batch: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return eris.Wrapf(err, "batch: write %s", path)
	}
	for i := range results {
		if err := w.Write(record(&results[i])); err != nil {
			return eris.Wrapf(err, "batch: write %s", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "batch: flush %s", path)
	}
	return eris.Wrapf(f.Close(), "batch: close %s", path)
}

func writeXLSX(path string, results []model.ResolutionResult) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Results")
	if err != nil {
		return eris.Wrap(err, "batch: add sheet")
	}
	hr := sheet.AddRow()
	for _, h := range header {
		hr.AddCell().SetString(h)
	}
	for i := range results {
		res := &results[i]
		row := sheet.AddRow()
		for j, v := range record(res) {
			cell := row.AddCell()
			switch header[j] {
			case "confidence":
				cell.SetFloat(res.Confidence)
			case "verified":
				cell.SetBool(res.Verified)
			case "needs_manual_review":
				cell.SetBool(res.NeedsManualReview)
			default:
				cell.SetString(v)
			}
		}
	}
	return eris.Wrapf(f.Save(path), "batch: save %s", path)
}

// record flattens a result in header order.
func record(res *model.ResolutionResult) []string {
	resolvedAt := ""
	if !res.ResolvedAt.IsZero() {
		resolvedAt = res.ResolvedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		res.Name,
		res.City,
		res.Phone,
		res.Address,
		res.Context,
		res.DomainOrEmpty(),
		res.URL,
		strconv.FormatFloat(res.Confidence, 'f', -1, 64),
		string(res.Source),
		string(res.Method),
		strconv.FormatBool(res.Verified),
		strconv.FormatBool(res.NeedsManualReview),
		string(res.StageReached),
		res.ErrorOrEmpty(),
		resolvedAt,
	}
}
