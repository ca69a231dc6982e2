package port

import (
	"context"

	"github.com/rl1809/po-watcher/internal/core/domain"
)

type LedgerRepository interface {
	// RecordOutcome persists what happened to one processed message
	RecordOutcome(ctx context.Context, outcome domain.MessageOutcome) error

	// GetOutcome returns the latest outcome for a message, nil if unknown
	GetOutcome(ctx context.Context, messageID string) (*domain.MessageOutcome, error)

	// ListRecent returns the newest outcomes first
	ListRecent(ctx context.Context, limit int) ([]domain.MessageOutcome, error)
}
