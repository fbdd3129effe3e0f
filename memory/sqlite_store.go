package memory

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/teranos/prompttask/errors"
)

const createRunsTableSQL = `
CREATE TABLE IF NOT EXISTS memory_runs (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	conversation TEXT NOT NULL,
	input TEXT NOT NULL,
	output TEXT NOT NULL,
	created_at DATETIME NOT NULL
)`

// SQLiteStore keeps the runs of one conversation in a memory_runs table.
type SQLiteStore struct {
	db           *sql.DB
	conversation string
	ownsDB       bool
}

// NewSQLiteStore uses an existing database, creating the table if needed.
// The caller keeps ownership of db.
func NewSQLiteStore(ctx context.Context, db *sql.DB, conversation string) (*SQLiteStore, error) {
	if conversation == "" {
		return nil, errors.NewInvalidRequestError("conversation name is required")
	}
	if _, err := db.ExecContext(ctx, createRunsTableSQL); err != nil {
		return nil, errors.Wrap(err, "failed to create memory_runs table")
	}
	return &SQLiteStore{db: db, conversation: conversation}, nil
}

// OpenSQLite opens (or creates) a SQLite database file and returns a store
// that closes it on Close.
func OpenSQLite(ctx context.Context, path, conversation string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite database %s", path)
	}
	s, err := NewSQLiteStore(ctx, db, conversation)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

func (s *SQLiteStore) Load(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input, output, created_at FROM memory_runs WHERE conversation = ? ORDER BY seq`,
		s.conversation)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var createdAt time.Time
		if err := rows.Scan(&run.ID, &run.Input, &run.Output, &createdAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan run")
		}
		run.CreatedAt = createdAt.UTC()
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate runs")
	}
	return runs, nil
}

func (s *SQLiteStore) Append(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memory_runs (id, conversation, input, output, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, s.conversation, run.Input, run.Output, run.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to insert run")
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM memory_runs WHERE conversation = ?`, s.conversation)
	if err != nil {
		return errors.Wrap(err, "failed to delete runs")
	}
	return nil
}

// Close closes the database if this store opened it.
func (s *SQLiteStore) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}
