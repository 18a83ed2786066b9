package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/domain-resolver/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS resolutions (
	key           TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	city          TEXT NOT NULL DEFAULT '',
	domain        TEXT,
	confidence    REAL NOT NULL DEFAULT 0,
	source        TEXT NOT NULL DEFAULT '',
	method        TEXT NOT NULL DEFAULT '',
	verified      INTEGER NOT NULL DEFAULT 0,
	needs_review  INTEGER NOT NULL DEFAULT 0,
	stage_reached TEXT NOT NULL DEFAULT '',
	error         TEXT,
	payload       TEXT NOT NULL,
	resolved_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_resolutions_review ON resolutions(needs_review, resolved_at);
CREATE INDEX IF NOT EXISTS idx_resolutions_domain ON resolutions(domain);
`

const sqliteUpsert = `
INSERT INTO resolutions (key, name, city, domain, confidence, source, method,
	verified, needs_review, stage_reached, error, payload, resolved_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
	name = excluded.name,
	city = excluded.city,
	domain = excluded.domain,
	confidence = excluded.confidence,
	source = excluded.source,
	method = excluded.method,
	verified = excluded.verified,
	needs_review = excluded.needs_review,
	stage_reached = excluded.stage_reached,
	error = excluded.error,
	payload = excluded.payload,
	resolved_at = excluded.resolved_at`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveResult(ctx context.Context, res model.ResolutionResult) error {
	args, err := sqliteRow(res)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, sqliteUpsert, args...); err != nil {
		return eris.Wrapf(err, "sqlite: save result %s", res.Name)
	}
	return nil
}

func (s *SQLiteStore) SaveResults(ctx context.Context, results []model.ResolutionResult) error {
	if len(results) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, sqliteUpsert)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, res := range results {
		args, err := sqliteRow(res)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return eris.Wrapf(err, "sqlite: save result %s", res.Name)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func (s *SQLiteStore) GetResult(ctx context.Context, key string) (*model.ResolutionResult, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM resolutions WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get result %s", key)
	}
	return decode([]byte(payload))
}

func (s *SQLiteStore) ListReview(ctx context.Context, limit int) ([]model.ResolutionResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM resolutions WHERE needs_review = 1 ORDER BY resolved_at DESC LIMIT ?`,
		listLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list review")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.ResolutionResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan review row")
		}
		res, err := decode([]byte(payload))
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate review rows")
}

// sqliteTime is fixed-width so timestamps sort lexically.
const sqliteTime = "2006-01-02T15:04:05.000000000Z07:00"

// sqliteRow adapts row values to SQLite storage classes.
func sqliteRow(res model.ResolutionResult) ([]any, error) {
	args, err := row(res)
	if err != nil {
		return nil, err
	}
	args[11] = string(args[11].([]byte))
	args[12] = args[12].(time.Time).Format(sqliteTime)
	return args, nil
}
