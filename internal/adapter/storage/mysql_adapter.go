package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// MySQLLedger records message outcomes in MySQL. The DSN must set
// parseTime=true.
type MySQLLedger struct {
	sqlLedger
}

func NewMySQLLedger(db *sql.DB) *MySQLLedger {
	return &MySQLLedger{sqlLedger{db: db}}
}

func (m *MySQLLedger) Migrate(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS message_outcomes (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			run_id CHAR(36) NOT NULL,
			message_id VARCHAR(128) NOT NULL,
			subject VARCHAR(998) NOT NULL,
			status VARCHAR(32) NOT NULL,
			item_count INT NOT NULL,
			failed_items INT NOT NULL,
			order_id VARCHAR(64) NOT NULL,
			error TEXT NOT NULL,
			processed_at DATETIME(6) NOT NULL,
			INDEX idx_message_outcomes_message_id (message_id)
		)`)
	if err != nil {
		return fmt.Errorf("create message_outcomes: %w", err)
	}
	return nil
}
