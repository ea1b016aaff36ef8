package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"coptrack/internal/grid"
	"coptrack/internal/ngram"
)

// Store keeps generated runs and fitted models in a SQLite file.
type Store struct {
	db *sql.DB
}

func OpenStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := initStore(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initStore(db *sql.DB) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			agent TEXT NOT NULL,
			start_r INTEGER NOT NULL,
			start_c INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			log_json TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_agent ON runs(agent);`,
		`CREATE TABLE IF NOT EXISTS model_rows (
			n INTEGER NOT NULL,
			context_json TEXT NOT NULL,
			next TEXT NOT NULL,
			prob REAL NOT NULL,
			PRIMARY KEY (n, context_json, next)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// SaveRuns appends runs in one transaction.
func (s *Store) SaveRuns(ctx context.Context, runs []Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO runs(agent,start_r,start_c,seed,ticks,log_json,recorded_at) VALUES(?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range runs {
		b, err := json.Marshal(r.Log)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, r.Agent, r.Start.R, r.Start.C, r.Seed, r.Ticks, string(b), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Runs returns stored runs in insertion order. An empty agent matches all.
func (s *Store) Runs(ctx context.Context, agent string) ([]Run, error) {
	q := `SELECT agent,start_r,start_c,seed,ticks,log_json FROM runs`
	var args []any
	if agent != "" {
		q += ` WHERE agent=?`
		args = append(args, agent)
	}
	rows, err := s.db.QueryContext(ctx, q+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		var (
			r       Run
			rr, cc  int
			logJSON string
		)
		if err := rows.Scan(&r.Agent, &rr, &cc, &r.Seed, &r.Ticks, &logJSON); err != nil {
			return nil, err
		}
		r.Start = grid.Pos{R: rr, C: cc}
		if err := json.Unmarshal([]byte(logJSON), &r.Log); err != nil {
			return nil, fmt.Errorf("run log: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveModel replaces the stored rows for order m.N. Contexts are stored as
// JSON arrays; the empty context is "[]".
func (s *Store) SaveModel(ctx context.Context, m *ngram.Model) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM model_rows WHERE n=?`, m.N); err != nil {
		return err
	}
	for _, row := range m.Rows() {
		c, err := contextJSON(row.Context)
		if err != nil {
			return err
		}
		for next, p := range row.Next {
			if _, err := tx.ExecContext(ctx, `INSERT INTO model_rows(n,context_json,next,prob) VALUES(?,?,?,?)`, m.N, c, next, p); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// ModelProb reads back P(next | context) for order n; ok is false when absent.
func (s *Store) ModelProb(ctx context.Context, n int, context []string, next string) (float64, bool, error) {
	c, err := contextJSON(context)
	if err != nil {
		return 0, false, err
	}
	var p float64
	err = s.db.QueryRowContext(ctx, `SELECT prob FROM model_rows WHERE n=? AND context_json=? AND next=?`,
		n, c, next).Scan(&p)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return p, true, nil
}

func contextJSON(symbols []string) (string, error) {
	if symbols == nil {
		symbols = []string{}
	}
	b, err := json.Marshal(symbols)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
