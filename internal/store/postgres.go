package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/domain-resolver/internal/db"
	"github.com/sells-group/domain-resolver/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	pgUpsertResult = `INSERT INTO resolutions (key, name, city, domain, confidence, source, method, verified, needs_review, stage_reached, error, payload, resolved_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (key) DO UPDATE SET name = EXCLUDED.name, city = EXCLUDED.city, domain = EXCLUDED.domain,
	confidence = EXCLUDED.confidence, source = EXCLUDED.source, method = EXCLUDED.method,
	verified = EXCLUDED.verified, needs_review = EXCLUDED.needs_review, stage_reached = EXCLUDED.stage_reached,
	error = EXCLUDED.error, payload = EXCLUDED.payload, resolved_at = EXCLUDED.resolved_at`
	pgGetResult  = `SELECT payload FROM resolutions WHERE key = $1`
	pgListReview = `SELECT payload FROM resolutions WHERE needs_review ORDER BY resolved_at DESC LIMIT $1`
)

// preparedStatements are prepared on each new connection.
var preparedStatements = map[string]string{
	"upsert_result": pgUpsertResult,
	"get_result":    pgGetResult,
	"list_review":   pgListReview,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS resolutions (
	key           TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	city          TEXT NOT NULL DEFAULT '',
	domain        TEXT,
	confidence    DOUBLE PRECISION NOT NULL DEFAULT 0,
	source        TEXT NOT NULL DEFAULT '',
	method        TEXT NOT NULL DEFAULT '',
	verified      BOOLEAN NOT NULL DEFAULT false,
	needs_review  BOOLEAN NOT NULL DEFAULT false,
	stage_reached TEXT NOT NULL DEFAULT '',
	error         TEXT,
	payload       JSONB NOT NULL,
	resolved_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_resolutions_review ON resolutions(needs_review, resolved_at DESC);
CREATE INDEX IF NOT EXISTS idx_resolutions_domain ON resolutions(domain);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveResult(ctx context.Context, res model.ResolutionResult) error {
	args, err := row(res)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, pgUpsertResult, args...); err != nil {
		return eris.Wrapf(err, "postgres: save result %s", res.Name)
	}
	return nil
}

// SaveResults merges a whole batch through a COPY-backed upsert. Duplicate
// keys within one batch keep the last result.
func (s *PostgresStore) SaveResults(ctx context.Context, results []model.ResolutionResult) error {
	if len(results) == 0 {
		return nil
	}
	byKey := make(map[string]int, len(results))
	rows := make([][]any, 0, len(results))
	for _, res := range results {
		r, err := row(res)
		if err != nil {
			return err
		}
		key := r[0].(string)
		if i, ok := byKey[key]; ok {
			rows[i] = r
			continue
		}
		byKey[key] = len(rows)
		rows = append(rows, r)
	}

	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "resolutions",
		Columns:      columns,
		ConflictKeys: []string{"key"},
		VersionCol:   "resolved_at",
	}, rows)
	return eris.Wrap(err, "postgres: save results")
}

func (s *PostgresStore) GetResult(ctx context.Context, key string) (*model.ResolutionResult, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, pgGetResult, key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get result %s", key)
	}
	return decode(payload)
}

func (s *PostgresStore) ListReview(ctx context.Context, limit int) ([]model.ResolutionResult, error) {
	rows, err := s.pool.Query(ctx, pgListReview, listLimit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list review")
	}
	defer rows.Close()

	var out []model.ResolutionResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan review row")
		}
		res, err := decode(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate review rows")
}
