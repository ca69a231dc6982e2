package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteLedger struct {
	sqlLedger
}

// OpenSQLiteLedger opens (creating if needed) the ledger database at path.
func OpenSQLiteLedger(ctx context.Context, path string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; the status API reads through the same handle.
	db.SetMaxOpenConns(1)

	l := &SQLiteLedger{sqlLedger{db: db}}
	if err := l.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (s *SQLiteLedger) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS message_outcomes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			message_id TEXT NOT NULL,
			subject TEXT NOT NULL,
			status TEXT NOT NULL,
			item_count INTEGER NOT NULL,
			failed_items INTEGER NOT NULL,
			order_id TEXT NOT NULL,
			error TEXT NOT NULL,
			processed_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_message_outcomes_message_id ON message_outcomes (message_id);`)
	if err != nil {
		return fmt.Errorf("create message_outcomes: %w", err)
	}
	return nil
}

func (s *SQLiteLedger) Close() error {
	return s.db.Close()
}
