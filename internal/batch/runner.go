// Package batch resolves many companies concurrently and writes the results,
// the manual-review partition and a per-lookup log.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/sells-group/domain-resolver/internal/metrics"
	"github.com/sells-group/domain-resolver/internal/model"
	"github.com/sells-group/domain-resolver/internal/store"
)

// Resolver resolves one company. *resolver.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, q model.CompanyQuery) model.ResolutionResult
}

const defaultWorkers = 5

// Runner fans resolutions out over a bounded number of workers.
type Runner struct {
	resolver Resolver
	workers  int64
	log      *LogWriter
	store    store.Store
	refresh  bool
	highBar  float64
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers bounds the number of concurrent resolutions.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = int64(n)
		}
	}
}

// WithLog writes one LookupLog record per company to w.
func WithLog(w *LogWriter) Option {
	return func(r *Runner) { r.log = w }
}

// WithStore serves previously stored results and saves new cacheable ones.
func WithStore(s store.Store) Option {
	return func(r *Runner) { r.store = s }
}

// WithRefresh re-resolves companies even when a stored result exists.
func WithRefresh(refresh bool) Option {
	return func(r *Runner) { r.refresh = refresh }
}

// WithHighConfidence sets the bar counted as high confidence in the
// summary, normally the resolver's auto-accept threshold.
func WithHighConfidence(bar float64) Option {
	return func(r *Runner) { r.highBar = bar }
}

// NewRunner creates a Runner over res.
func NewRunner(res Resolver, opts ...Option) *Runner {
	r := &Runner{
		resolver: res,
		workers:  defaultWorkers,
		highBar:  model.DefaultResolverConfig().Thresholds.AutoAccept,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Report is the outcome of one batch run.
type Report struct {
	RunID    string
	Results  []model.ResolutionResult
	Summary  Summary
	Cached   int
	Duration time.Duration
}

// Run resolves every query. Results are in completion order; join them to
// the input with CompanyQuery.Key. A cancelled context stops scheduling new
// work and returns the results gathered so far with the context error.
func (r *Runner) Run(ctx context.Context, queries []model.CompanyQuery) (*Report, error) {
	started := time.Now()
	report := &Report{Results: make([]model.ResolutionResult, 0, len(queries))}
	if r.log != nil {
		report.RunID = r.log.RunID()
	}

	zap.L().Info("batch: starting",
		zap.String("run_id", report.RunID),
		zap.Int("companies", len(queries)),
		zap.Int64("workers", r.workers),
	)

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = semaphore.NewWeighted(r.workers)
	)

	var (
		fresh  []model.ResolutionResult
		runErr error
	)
	for _, q := range queries {
		if err := sem.Acquire(ctx, 1); err != nil {
			runErr = eris.Wrap(err, "batch: acquire worker")
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			res, cached := r.resolveOne(ctx, q)

			mu.Lock()
			report.Results = append(report.Results, res)
			switch {
			case cached:
				report.Cached++
			case Cacheable(&res):
				fresh = append(fresh, res)
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if r.store != nil && len(fresh) > 0 {
		// Finished work is kept even when the run was cancelled.
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		if err := r.store.SaveResults(saveCtx, fresh); err != nil {
			zap.L().Warn("batch: save results failed", zap.Error(err))
		}
		cancel()
	}

	report.Duration = time.Since(started)
	report.Summary = Summarize(report.Results, r.highBar)
	zap.L().Info("batch: complete",
		zap.String("run_id", report.RunID),
		zap.Int("total", report.Summary.Total),
		zap.Int("found", report.Summary.Found),
		zap.Int("high_confidence", report.Summary.HighConfidence),
		zap.Int("needs_review", report.Summary.NeedsReview),
		zap.Int("errored", report.Summary.Errored),
		zap.Int("cached", report.Cached),
		zap.Duration("elapsed", report.Duration),
	)
	return report, runErr
}

func (r *Runner) resolveOne(ctx context.Context, q model.CompanyQuery) (model.ResolutionResult, bool) {
	metrics.BatchInFlight.Inc()
	defer metrics.BatchInFlight.Dec()

	started := time.Now()
	res, cached := r.lookup(ctx, q)
	if !cached {
		res = r.resolver.Resolve(ctx, q)
	}

	if r.log != nil {
		if err := r.log.Write(q, res, time.Since(started)); err != nil {
			zap.L().Warn("batch: write lookup log", zap.String("company", q.Name), zap.Error(err))
		}
	}
	return res, cached
}

func (r *Runner) lookup(ctx context.Context, q model.CompanyQuery) (model.ResolutionResult, bool) {
	if r.store == nil || r.refresh {
		return model.ResolutionResult{}, false
	}
	res, err := r.store.GetResult(ctx, q.Key())
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		zap.L().Warn("batch: cache lookup failed", zap.String("company", q.Name), zap.Error(err))
		return model.ResolutionResult{}, false
	case res == nil:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return model.ResolutionResult{}, false
	default:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return *res, true
	}
}
