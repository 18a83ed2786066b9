package batch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/domain-resolver/internal/model"
	"github.com/sells-group/domain-resolver/internal/store"
)

// countingResolver tracks how many resolutions run at once.
type countingResolver struct {
	delay    func(q model.CompanyQuery) time.Duration
	inFlight atomic.Int64
	peak     atomic.Int64
	calls    atomic.Int64
}

func (c *countingResolver) Resolve(ctx context.Context, q model.CompanyQuery) model.ResolutionResult {
	c.calls.Add(1)
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}

	d := 20 * time.Millisecond
	if c.delay != nil {
		d = c.delay(q)
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}

	res := model.NewResult(q)
	res.Apply(&model.Candidate{Domain: "example.com", Confidence: 90, Method: model.MethodExactDomainMatch})
	res.ResolvedAt = time.Now().UTC()
	return res
}

func queries(n int) []model.CompanyQuery {
	out := make([]model.CompanyQuery, n)
	for i := range out {
		out[i] = model.CompanyQuery{Name: "Company " + string(rune('A'+i))}
	}
	return out
}

func TestRunner_BoundsConcurrency(t *testing.T) {
	for _, workers := range []int{1, 3, 5} {
		res := &countingResolver{}
		r := NewRunner(res, WithWorkers(workers))

		report, err := r.Run(context.Background(), queries(12))
		require.NoError(t, err)
		assert.Len(t, report.Results, 12)
		assert.Equal(t, int64(12), res.calls.Load())
		assert.LessOrEqual(t, res.peak.Load(), int64(workers), "workers=%d", workers)
		assert.Equal(t, 12, report.Summary.Total)
		assert.Equal(t, 12, report.Summary.HighConfidence)
	}
}

func TestRunner_CompletionOrder(t *testing.T) {
	slow := map[string]time.Duration{"Company A": 150 * time.Millisecond}
	res := &countingResolver{delay: func(q model.CompanyQuery) time.Duration {
		if d, ok := slow[q.Name]; ok {
			return d
		}
		return time.Millisecond
	}}

	report, err := NewRunner(res, WithWorkers(3)).Run(context.Background(), queries(3))
	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	assert.Equal(t, "Company A", report.Results[2].Name, "slowest finishes last")

	byKey := make(map[string]model.ResolutionResult)
	for _, r := range report.Results {
		byKey[r.Query().Key()] = r
	}
	for _, q := range queries(3) {
		assert.Contains(t, byKey, q.Key())
	}
}

type syncBuffer struct {
	mu sync.Mutex
	bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Buffer.Write(p)
}

func TestRunner_WritesOneLogLinePerCompany(t *testing.T) {
	var buf syncBuffer
	lw := NewLogWriter(&buf)

	report, err := NewRunner(&countingResolver{}, WithWorkers(4), WithLog(lw)).Run(context.Background(), queries(6))
	require.NoError(t, err)
	assert.Equal(t, lw.RunID(), report.RunID)

	sc := bufio.NewScanner(&buf.Buffer)
	names := map[string]bool{}
	for sc.Scan() {
		var rec model.LookupLog
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		assert.Equal(t, lw.RunID(), rec.RunID)
		assert.Equal(t, rec.Input.Name, rec.Result.Name)
		assert.Greater(t, rec.DurationSeconds, 0.0)
		assert.False(t, rec.Timestamp.IsZero())
		names[rec.Input.Name] = true
	}
	assert.Len(t, names, 6)
}

func TestRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	res := &countingResolver{delay: func(model.CompanyQuery) time.Duration { return 50 * time.Millisecond }}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	report, err := NewRunner(res, WithWorkers(1)).Run(ctx, queries(10))
	require.Error(t, err)
	assert.Less(t, len(report.Results), 10)
	assert.Equal(t, int64(len(report.Results)), res.calls.Load())
}

func TestRunner_StoreCache(t *testing.T) {
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))

	qs := queries(4)

	first := &countingResolver{}
	report, err := NewRunner(first, WithStore(s)).Run(context.Background(), qs)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Cached)
	assert.Equal(t, int64(4), first.calls.Load())

	second := &countingResolver{}
	report, err = NewRunner(second, WithStore(s)).Run(context.Background(), qs)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Cached)
	assert.Equal(t, int64(0), second.calls.Load())
	assert.Equal(t, "example.com", report.Results[0].DomainOrEmpty())

	third := &countingResolver{}
	report, err = NewRunner(third, WithStore(s), WithRefresh(true)).Run(context.Background(), qs)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Cached)
	assert.Equal(t, int64(4), third.calls.Load())
}

type outageResolver struct {
	calls atomic.Int64
}

func (o *outageResolver) Resolve(_ context.Context, q model.CompanyQuery) model.ResolutionResult {
	o.calls.Add(1)
	res := model.NewResult(q)
	res.NeedsManualReview = true
	res.SetError(model.ErrNoDomainFound)
	res.StageErrors = []model.StageError{
		{Stage: model.StagePlaces, Kind: "unavailable", Message: "google_places: circuit open"},
		{Stage: model.StageSearch, Kind: "unavailable", Message: "serper: timed out"},
	}
	return res
}

func TestRunner_OutageResultsAreNotCached(t *testing.T) {
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))

	qs := queries(3)

	down := &outageResolver{}
	report, err := NewRunner(down, WithStore(s)).Run(context.Background(), qs)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Summary.Errored)

	healthy := &countingResolver{}
	report, err = NewRunner(healthy, WithStore(s)).Run(context.Background(), qs)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Cached)
	assert.Equal(t, int64(3), healthy.calls.Load(), "companies hit by an outage are resolved again")
	assert.Equal(t, 0, report.Summary.Errored)
	assert.Equal(t, 3, report.Summary.Found)
}

func TestRunner_Empty(t *testing.T) {
	report, err := NewRunner(&countingResolver{}).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Equal(t, Summary{}, report.Summary)
}
