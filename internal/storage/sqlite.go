package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS save_slots (
	slot       TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// SQLiteSlot stores the save as one row of a save_slots table. Several slots
// can share a database.
type SQLiteSlot struct {
	db   *sql.DB
	name string
	own  bool
}

// OpenSQLiteSlot opens (creating if needed) the database at path and returns
// the slot called name. Close releases the database.
func OpenSQLiteSlot(ctx context.Context, path, name string) (*SQLiteSlot, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening save database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s, err := NewSQLiteSlot(ctx, db, name)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.own = true
	return s, nil
}

// NewSQLiteSlot uses an existing database. The caller keeps ownership of db.
func NewSQLiteSlot(ctx context.Context, db *sql.DB, name string) (*SQLiteSlot, error) {
	if name == "" {
		return nil, fmt.Errorf("slot name is required")
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("creating save_slots table: %w", err)
	}
	return &SQLiteSlot{db: db, name: name}, nil
}

func (s *SQLiteSlot) Name() string {
	return s.name
}

func (s *SQLiteSlot) Write(ctx context.Context, data []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning save transaction: %w", err)
	}
	// Ignoring rollback error - it is always ErrTxDone after a commit
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO save_slots (slot, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		s.name, data, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("writing save slot %q: %w", s.name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing save slot %q: %w", s.name, err)
	}
	return nil
}

func (s *SQLiteSlot) Read(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM save_slots WHERE slot = ?`, s.name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("reading save slot %q: %w", s.name, err)
	}
	return data, nil
}

func (s *SQLiteSlot) Delete(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM save_slots WHERE slot = ?`, s.name); err != nil {
		return fmt.Errorf("deleting save slot %q: %w", s.name, err)
	}
	return nil
}

func (s *SQLiteSlot) Exists(ctx context.Context) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM save_slots WHERE slot = ?`, s.name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking save slot %q: %w", s.name, err)
	}
	return n > 0, nil
}

// Close closes the database if the slot opened it.
func (s *SQLiteSlot) Close() error {
	if !s.own {
		return nil
	}
	return s.db.Close()
}
