// Package store persists resolution results so repeat lookups of the same
// company can be served without re-running the waterfall.
package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/domain-resolver/internal/model"
)

// Store defines the persistence interface for resolution results. Results
// are keyed by CompanyQuery.Key.
type Store interface {
	// SaveResult inserts or replaces the result for its query key.
	SaveResult(ctx context.Context, res model.ResolutionResult) error
	// SaveResults upserts many results at once.
	SaveResults(ctx context.Context, results []model.ResolutionResult) error
	// GetResult returns nil, nil when no result is stored for key.
	GetResult(ctx context.Context, key string) (*model.ResolutionResult, error)
	// ListReview returns the most recent results flagged for manual review.
	ListReview(ctx context.Context, limit int) ([]model.ResolutionResult, error)

	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100

// columns is the column order shared by both backends.
var columns = []string{
	"key", "name", "city", "domain", "confidence", "source", "method",
	"verified", "needs_review", "stage_reached", "error", "payload", "resolved_at",
}

// row flattens a result into column values. The full result travels in
// payload; the other columns exist for querying.
func row(res model.ResolutionResult) ([]any, error) {
	payload, err := json.Marshal(res)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal result")
	}
	return []any{
		res.Query().Key(),
		res.Name,
		res.City,
		res.Domain,
		res.Confidence,
		string(res.Source),
		string(res.Method),
		res.Verified,
		res.NeedsManualReview,
		string(res.StageReached),
		res.Error,
		payload,
		res.ResolvedAt.UTC(),
	}, nil
}

func decode(payload []byte) (*model.ResolutionResult, error) {
	var res model.ResolutionResult
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal result")
	}
	return &res, nil
}

func listLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
