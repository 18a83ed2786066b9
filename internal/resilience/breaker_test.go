package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func fail(_ context.Context) (int, error) { return 0, errBoom }
func succeed(_ context.Context) (int, error) { return 1, nil }

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	t.Parallel()

	b := NewBreaker("serper", BreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})
	for i := 0; i < 3; i++ {
		_, err := Call(context.Background(), b, fail)
		require.ErrorIs(t, err, errBoom)
	}
	assert.Equal(t, Open, b.State())

	called := false
	_, err := Call(context.Background(), b, func(_ context.Context) (int, error) {
		called = true
		return 0, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Contains(t, err.Error(), "serper")
	assert.False(t, called)
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	t.Parallel()

	b := NewBreaker("places", BreakerConfig{FailureThreshold: 3})
	_, _ = Call(context.Background(), b, fail)
	_, _ = Call(context.Background(), b, fail)
	assert.Equal(t, 2, b.Failures())
	assert.Equal(t, Closed, b.State())

	v, err := Call(context.Background(), b, succeed)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, 0, b.Failures())
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	t.Parallel()

	now := time.Now()
	b := NewBreaker("jina", BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	b.now = func() time.Time { return now }

	_, _ = Call(context.Background(), b, fail)
	require.Equal(t, Open, b.State())

	b.now = func() time.Time { return now.Add(2 * time.Second) }
	assert.Equal(t, HalfOpen, b.State())

	_, err := Call(context.Background(), b, succeed)
	require.NoError(t, err)
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	t.Parallel()

	now := time.Now()
	b := NewBreaker("ocean", BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	b.now = func() time.Time { return now }
	_, _ = Call(context.Background(), b, fail)

	now = now.Add(2 * time.Second)
	_, err := Call(context.Background(), b, fail)
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, Open, b.State())
}

func TestBreaker_CallerCancellationDoesNotTrip(t *testing.T) {
	t.Parallel()

	b := NewBreaker("judge", BreakerConfig{FailureThreshold: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Call(ctx, b, func(ctx context.Context) (int, error) { return 0, ctx.Err() })
	require.Error(t, err)
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_ShouldTrip(t *testing.T) {
	t.Parallel()

	b := NewBreaker("serper", BreakerConfig{FailureThreshold: 1, ShouldTrip: IsTransient})
	_, _ = Call(context.Background(), b, fail)
	assert.Equal(t, Closed, b.State(), "non-transient errors do not trip")

	_, _ = Call(context.Background(), b, func(_ context.Context) (int, error) {
		return 0, NewTransientError(errBoom, 503)
	})
	assert.Equal(t, Open, b.State())
}

func TestBreakers_RegistryAndStates(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var transitions []string
	r := NewBreakers(BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute}, func(name string, from, to State) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, name+":"+from.String()+"->"+to.String())
	})

	assert.Same(t, r.Get("places"), r.Get("places"))
	_, _ = Call(context.Background(), r.Get("serper"), fail)

	assert.Equal(t, map[string]string{"places": "closed", "serper": "open"}, r.States())
	assert.Equal(t, []string{"serper:closed->open"}, transitions)
}

func TestBreakers_ConcurrentGet(t *testing.T) {
	t.Parallel()

	r := NewBreakers(DefaultBreakerConfig(), nil)
	var wg sync.WaitGroup
	got := make([]*Breaker, 50)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = r.Get("discolike")
			_, _ = Call(context.Background(), got[i], succeed)
		}(i)
	}
	wg.Wait()
	for _, b := range got {
		assert.Same(t, got[0], b)
	}
}

func TestNewBreakerConfig(t *testing.T) {
	t.Parallel()

	cfg := NewBreakerConfig(0, 0)
	assert.Equal(t, 5, cfg.FailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.ResetTimeout)

	cfg = NewBreakerConfig(2, 10)
	assert.Equal(t, 2, cfg.FailureThreshold)
	assert.Equal(t, 10*time.Second, cfg.ResetTimeout)
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "open", Open.String())
	assert.Equal(t, "half-open", HalfOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}
