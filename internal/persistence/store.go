// Package persistence archives batch scan runs in Postgres so past decisions
// can be reviewed. The scoring path never depends on it; archiving is an
// optional sink wired in from the CLI.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/flipscan/flipscan/internal/scan/pipeline"
)

const schema = `
CREATE TABLE IF NOT EXISTS scan_runs (
	id          UUID PRIMARY KEY,
	view        TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT NOT NULL,
	succeeded   INT NOT NULL,
	failed      INT NOT NULL,
	avg_score   DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS scan_results (
	run_id    UUID NOT NULL REFERENCES scan_runs(id) ON DELETE CASCADE,
	asin      TEXT NOT NULL,
	rank      INT NOT NULL,
	score     DOUBLE PRECISION NOT NULL,
	roi_pct   DOUBLE PRECISION NOT NULL,
	velocity  DOUBLE PRECISION NOT NULL,
	stability DOUBLE PRECISION NOT NULL,
	price     TEXT,
	bsr       BIGINT,
	strategy  TEXT NOT NULL,
	view      TEXT NOT NULL,
	error     TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, asin)
);
`

// RunRow is one archived batch summary.
type RunRow struct {
	ID         string    `db:"id" json:"id"`
	View       string    `db:"view" json:"view"`
	StartedAt  time.Time `db:"started_at" json:"started_at"`
	DurationMS int64     `db:"duration_ms" json:"duration_ms"`
	Succeeded  int       `db:"succeeded" json:"succeeded"`
	Failed     int       `db:"failed" json:"failed"`
	AvgScore   float64   `db:"avg_score" json:"avg_score"`
}

// Store wraps the archive database.
type Store struct {
	db *sqlx.DB
}

func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect scan archive: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the archive tables when absent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate scan archive: %w", err)
	}
	return nil
}

// SaveRun archives a batch summary and its per-item results in one
// transaction. Decimal prices are stored as text to keep them exact.
func (s *Store) SaveRun(ctx context.Context, summary *pipeline.Summary) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin archive tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO scan_runs (id, view, started_at, duration_ms, succeeded, failed, avg_score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		summary.RunID, string(summary.View), summary.StartedAt,
		summary.Duration.Milliseconds(), summary.Succeeded, summary.Failed, summary.AvgScore)
	if err != nil {
		return fmt.Errorf("failed to insert scan run %s: %w", summary.RunID, err)
	}

	for _, r := range summary.Results {
		var price *string
		if r.RawMetrics.Price != nil {
			p := r.RawMetrics.Price.String()
			price = &p
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO scan_results (run_id, asin, rank, score, roi_pct, velocity, stability, price, bsr, strategy, view, error)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			summary.RunID, r.ASIN, r.Rank, r.Score,
			r.RawMetrics.ROIPct, r.RawMetrics.Velocity, r.RawMetrics.Stability,
			price, r.RawMetrics.BSR, string(r.Strategy), string(r.View), r.Error)
		if err != nil {
			return fmt.Errorf("failed to insert scan result %s/%s: %w", summary.RunID, r.ASIN, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit archive tx: %w", err)
	}
	log.Debug().Str("run_id", summary.RunID).Int("results", len(summary.Results)).Msg("scan run archived")
	return nil
}

// RecentRuns lists the newest archived batch summaries.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []RunRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, view, started_at, duration_ms, succeeded, failed, avg_score
		 FROM scan_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan runs: %w", err)
	}
	return rows, nil
}
