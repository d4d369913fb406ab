package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS batches (
	session     TEXT PRIMARY KEY,
	replaced_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS results (
	session  TEXT NOT NULL,
	position INTEGER NOT NULL,
	filename TEXT NOT NULL,
	score    REAL NOT NULL,
	reason   TEXT NOT NULL,
	idx      INTEGER NOT NULL,
	path     TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (session, position)
);`

// SQLite is a Store backed by a single SQLite file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and creates) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// sqlite wants a single writer
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Replace(ctx context.Context, session string, set Set) error {
	set = NewSet(set)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM results WHERE session = ?`, session); err != nil {
		return fmt.Errorf("clear results: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO batches (session, replaced_at) VALUES (?, ?)
		 ON CONFLICT (session) DO UPDATE SET replaced_at = excluded.replaced_at`,
		session, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}

	for pos, r := range set {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO results (session, position, filename, score, reason, idx, path)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			session, pos, r.Filename, r.Score, r.Reason, r.Index, r.Path,
		); err != nil {
			return fmt.Errorf("insert result %q: %w", r.Filename, err)
		}
	}

	return tx.Commit()
}

func (s *SQLite) Get(ctx context.Context, session string) (Set, error) {
	var replacedAt string
	err := s.db.QueryRowContext(ctx, `SELECT replaced_at FROM batches WHERE session = ?`, session).Scan(&replacedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query batch: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT filename, score, reason, idx, path FROM results WHERE session = ? ORDER BY position`,
		session,
	)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	set := Set{}
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Filename, &r.Score, &r.Reason, &r.Index, &r.Path); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		set = append(set, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}

	return set, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
