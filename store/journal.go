// Package store keeps a local journal of finished rounds in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory journal.
const MemoryPath = ":memory:"

type Result struct {
	ID         int64
	RoundID    uuid.UUID
	DuelID     uint64 // 0 for practice rounds
	Player     string
	Score      int
	FinishedAt time.Time
	Submitted  bool
}

type Journal struct {
	db *sql.DB
}

// Open creates or opens the journal at path.
func Open(path string) (*Journal, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", path, err)
	}

	j, err := NewJournal(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// NewJournal wraps an open database, creating the schema if needed.
func NewJournal(db *sql.DB) (*Journal, error) {
	if err := createSchemas(db); err != nil {
		return nil, fmt.Errorf("store: create schemas: %w", err)
	}
	return &Journal{db: db}, nil
}

func createSchemas(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			round_id TEXT NOT NULL UNIQUE,
			duel_id INTEGER NOT NULL DEFAULT 0,
			player TEXT NOT NULL DEFAULT '',
			score INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			submitted BOOLEAN NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_duel_id ON results(duel_id);`,
		`CREATE INDEX IF NOT EXISTS idx_results_finished_at ON results(finished_at);`,
	}

	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends a finished round and returns its row id. A missing round id
// or finish time is filled in.
func (j *Journal) Record(ctx context.Context, r Result) (int64, error) {
	if r.Score < 0 {
		return 0, fmt.Errorf("store: record: negative score %d", r.Score)
	}
	if r.RoundID == uuid.Nil {
		r.RoundID = uuid.New()
	}
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now()
	}

	res, err := j.db.ExecContext(ctx,
		`INSERT INTO results (round_id, duel_id, player, score, finished_at, submitted) VALUES (?, ?, ?, ?, ?, ?)`,
		r.RoundID.String(), int64(r.DuelID), r.Player, r.Score, r.FinishedAt.UnixMilli(), r.Submitted,
	)
	if err != nil {
		return 0, fmt.Errorf("store: record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: record: last insert id: %w", err)
	}
	return id, nil
}

// MarkSubmitted flags every round of the duel as claimed on-chain and returns
// how many rows changed.
func (j *Journal) MarkSubmitted(ctx context.Context, duelID uint64) (int64, error) {
	if duelID == 0 {
		return 0, fmt.Errorf("store: mark submitted: practice rounds cannot be submitted")
	}
	res, err := j.db.ExecContext(ctx, `UPDATE results SET submitted = 1 WHERE duel_id = ? AND submitted = 0`, int64(duelID))
	if err != nil {
		return 0, fmt.Errorf("store: mark submitted: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: mark submitted: rows affected: %w", err)
	}
	return n, nil
}

const selectResults = `SELECT id, round_id, duel_id, player, score, finished_at, submitted FROM results`

// Recent returns up to n rounds, newest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]Result, error) {
	if n <= 0 {
		return nil, nil
	}
	return j.getMany(ctx, selectResults+` ORDER BY finished_at DESC, id DESC LIMIT ?`, n)
}

// ForDuel returns the rounds played for one duel, oldest first.
func (j *Journal) ForDuel(ctx context.Context, duelID uint64) ([]Result, error) {
	return j.getMany(ctx, selectResults+` WHERE duel_id = ? ORDER BY finished_at ASC, id ASC`, int64(duelID))
}

// Best returns the highest-scoring round. ok is false on an empty journal.
func (j *Journal) Best(ctx context.Context) (Result, bool, error) {
	rows, err := j.getMany(ctx, selectResults+` ORDER BY score DESC, finished_at ASC LIMIT 1`)
	if err != nil {
		return Result{}, false, err
	}
	if len(rows) == 0 {
		return Result{}, false, nil
	}
	return rows[0], true, nil
}

func (j *Journal) getMany(ctx context.Context, query string, args ...any) ([]Result, error) {
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var (
			r        Result
			roundID  string
			duelID   int64
			finished int64
		)
		if err := rows.Scan(&r.ID, &roundID, &duelID, &r.Player, &r.Score, &finished, &r.Submitted); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		r.RoundID, err = uuid.Parse(roundID)
		if err != nil {
			return nil, fmt.Errorf("store: scan round id %q: %w", roundID, err)
		}
		r.DuelID = uint64(duelID)
		r.FinishedAt = time.UnixMilli(finished)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: rows: %w", err)
	}
	return out, nil
}
