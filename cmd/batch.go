package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/domain-resolver/internal/batch"
	"github.com/sells-group/domain-resolver/internal/input"
	"github.com/sells-group/domain-resolver/internal/model"
	"github.com/sells-group/domain-resolver/internal/store"
)

var (
	batchInput     string
	batchWorkers   int
	batchOutputDir string
	batchFormat    string
	batchLogPath   string
	batchRefresh   bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Resolve every company in a CSV or XLSX file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyBatchFlags(cmd)

		queries, err := input.ReadQueries(ctx, batchInput)
		if err != nil {
			return err
		}

		env, err := initResolver(ctx, "batch")
		if err != nil {
			return err
		}
		defer env.Close()

		report, runErr := runBatch(ctx, env.Resolver, env.Store, queries)
		if report == nil {
			return runErr
		}

		paths, err := batch.WriteOutputs(cfg.Batch.OutputDir, cfg.Batch.OutputFormat, report.Results)
		if err != nil {
			return err
		}
		for _, p := range paths {
			zap.L().Info("batch: wrote output", zap.String("path", p))
		}

		if err := printSummary(os.Stdout, report); err != nil {
			return err
		}
		return runErr
	},
}

func init() {
	f := batchCmd.Flags()
	f.StringVar(&batchInput, "input", "", "CSV or XLSX file with a name column (required)")
	f.IntVar(&batchWorkers, "workers", 0, "concurrent resolutions (default batch.max_workers)")
	f.StringVar(&batchOutputDir, "output-dir", "", "directory for result files (default batch.output_dir)")
	f.StringVar(&batchFormat, "format", "", "output format: json, csv or xlsx (default batch.output_format)")
	f.StringVar(&batchLogPath, "log", "", "JSONL lookup log path (default batch.log_path)")
	f.BoolVar(&batchRefresh, "refresh", false, "ignore cached results and resolve every company again")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

// applyBatchFlags lets explicitly set flags override the loaded config.
func applyBatchFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("workers") {
		cfg.Batch.MaxWorkers = batchWorkers
	}
	if f.Changed("output-dir") {
		cfg.Batch.OutputDir = batchOutputDir
	}
	if f.Changed("format") {
		cfg.Batch.OutputFormat = batchFormat
	}
	if f.Changed("log") {
		cfg.Batch.LogPath = batchLogPath
	}
}

// runBatch resolves queries, caching through st when it is non-nil. A nil
// report means the run could not start.
func runBatch(ctx context.Context, res batch.Resolver, st store.Store, queries []model.CompanyQuery) (*batch.Report, error) {
	opts := []batch.Option{
		batch.WithWorkers(cfg.Batch.MaxWorkers),
		batch.WithRefresh(batchRefresh),
		batch.WithHighConfidence(cfg.Resolver.Thresholds.AutoAccept),
	}
	if st != nil {
		opts = append(opts, batch.WithStore(st))
	}

	if cfg.Batch.LogPath != "" {
		lw, err := batch.OpenLog(cfg.Batch.LogPath)
		if err != nil {
			return nil, eris.Wrap(err, "batch: open lookup log")
		}
		defer lw.Close() //nolint:errcheck
		opts = append(opts, batch.WithLog(lw))
	}

	return batch.NewRunner(res, opts...).Run(ctx, queries)
}

func printSummary(w io.Writer, report *batch.Report) error {
	out := struct {
		RunID    string        `json:"run_id,omitempty"`
		Summary  batch.Summary `json:"summary"`
		Cached   int           `json:"cached"`
		Duration string        `json:"duration"`
	}{
		RunID:    report.RunID,
		Summary:  report.Summary,
		Cached:   report.Cached,
		Duration: report.Duration.Round(time.Millisecond).String(),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return eris.Wrap(err, "batch: print summary")
	}
	return nil
}
