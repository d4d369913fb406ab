package results

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS match_batches (
	session     TEXT PRIMARY KEY,
	replaced_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS match_results (
	session  TEXT NOT NULL REFERENCES match_batches (session) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	filename TEXT NOT NULL,
	score    DOUBLE PRECISION NOT NULL,
	reason   TEXT NOT NULL,
	idx      INTEGER NOT NULL,
	path     TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (session, position)
);`

// Postgres is a Store backed by a PostgreSQL connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// ConnectPostgres opens a pool, verifies it and creates the tables.
func ConnectPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Replace(ctx context.Context, session string, set Set) error {
	set = NewSet(set)

	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO match_batches (session) VALUES ($1)
			 ON CONFLICT (session) DO UPDATE SET replaced_at = NOW()`,
			session,
		); err != nil {
			return fmt.Errorf("upsert batch: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM match_results WHERE session = $1`, session); err != nil {
			return fmt.Errorf("clear results: %w", err)
		}

		batch := &pgx.Batch{}
		for pos, r := range set {
			batch.Queue(
				`INSERT INTO match_results (session, position, filename, score, reason, idx, path)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				session, pos, r.Filename, r.Score, r.Reason, r.Index, r.Path,
			)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert results: %w", err)
		}
		return nil
	})
}

func (p *Postgres) Get(ctx context.Context, session string) (Set, error) {
	var exists bool
	if err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM match_batches WHERE session = $1)`, session,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("query batch: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := p.pool.Query(ctx,
		`SELECT filename, score, reason, idx, path FROM match_results WHERE session = $1 ORDER BY position`,
		session,
	)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}

	set, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Result, error) {
		var r Result
		err := row.Scan(&r.Filename, &r.Score, &r.Reason, &r.Index, &r.Path)
		return r, err
	})
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("collect results: %w", err)
	}
	if set == nil {
		set = []Result{}
	}

	return Set(set), nil
}

func (p *Postgres) Close() error {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
	return nil
}
