package stage

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/domain-resolver/internal/metrics"
	"github.com/sells-group/domain-resolver/internal/resilience"
)

// Collaborator names used for breakers, metrics and logs.
const (
	CollaboratorPlaces    = "places"
	CollaboratorSearch    = "search"
	CollaboratorFetcher   = "fetcher"
	CollaboratorJudge     = "judge"
	CollaboratorDiscolike = "discolike"
	CollaboratorOcean     = "ocean"
)

// Guard wraps collaborator calls with a per-call timeout, retries on
// transient errors and a per-collaborator circuit breaker. A nil *Guard
// applies only the timeout.
type Guard struct {
	breakers *resilience.Breakers
	retry    resilience.RetryPolicy
}

// NewGuard creates a Guard. Breaker transitions are logged and exported as
// metrics.
func NewGuard(retry resilience.RetryPolicy, breaker resilience.BreakerConfig) *Guard {
	return &Guard{
		retry: retry,
		breakers: resilience.NewBreakers(breaker, func(name string, from, to resilience.State) {
			zap.L().Warn("stage: circuit breaker transition",
				zap.String("collaborator", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.SetBreakerOpen(name, to == resilience.Open)
		}),
	}
}

// States returns each collaborator's breaker state.
func (g *Guard) States() map[string]string {
	if g == nil {
		return map[string]string{}
	}
	return g.breakers.States()
}

// Invoke calls fn for the named collaborator under g's protections. Panics
// in fn are recovered into errors so a misbehaving collaborator can never
// abort a resolution.
func Invoke[T any](ctx context.Context, g *Guard, name string, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	call := func(ctx context.Context) (val T, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = eris.Errorf("stage: %s panicked: %v", name, r)
			}
		}()
		started := time.Now()
		val, err = fn(ctx)
		metrics.ObserveCall(name, started, err)
		return val, err
	}

	if g == nil {
		return call(ctx)
	}

	policy := g.retry
	policy.OnRetry = resilience.LogRetry(name)
	breaker := g.breakers.Get(name)
	return resilience.Retry(ctx, policy, func(ctx context.Context) (T, error) {
		return resilience.Call(ctx, breaker, call)
	})
}

// describe shortens collaborator errors for stage diagnostics.
func describe(name string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return eris.Wrapf(err, "stage: %s timed out", name)
	case errors.Is(err, resilience.ErrCircuitOpen):
		return eris.Wrapf(err, "stage: %s unavailable", name)
	default:
		return eris.Wrapf(err, "stage: %s", name)
	}
}
