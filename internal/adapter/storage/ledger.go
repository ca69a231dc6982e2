package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/po-watcher/internal/core/domain"
)

const outcomeColumns = `run_id, message_id, subject, status, item_count, failed_items, order_id, error, processed_at`

// sqlLedger holds the queries shared by the MySQL and SQLite ledgers. Both
// drivers accept ? placeholders.
type sqlLedger struct {
	db *sql.DB
}

func (l *sqlLedger) RecordOutcome(ctx context.Context, o domain.MessageOutcome) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO message_outcomes (`+outcomeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.RunID, o.MessageID, o.Subject, string(o.Status), o.ItemCount, o.FailedItems,
		o.OrderID, o.Error, o.ProcessedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

func (l *sqlLedger) GetOutcome(ctx context.Context, messageID string) (*domain.MessageOutcome, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT `+outcomeColumns+`
		FROM message_outcomes WHERE message_id = ?
		ORDER BY id DESC LIMIT 1`, messageID,
	)

	o, err := scanOutcome(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query outcome: %w", err)
	}
	return &o, nil
}

func (l *sqlLedger) ListRecent(ctx context.Context, limit int) ([]domain.MessageOutcome, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT `+outcomeColumns+`
		FROM message_outcomes
		ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []domain.MessageOutcome
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOutcome(s scanner) (domain.MessageOutcome, error) {
	var o domain.MessageOutcome
	var status string
	err := s.Scan(&o.RunID, &o.MessageID, &o.Subject, &status, &o.ItemCount, &o.FailedItems,
		&o.OrderID, &o.Error, &o.ProcessedAt)
	o.Status = domain.OutcomeStatus(status)
	return o, err
}
