package port

import (
	"context"

	"github.com/rl1809/po-watcher/internal/core/domain"
)

type InboxRepository interface {
	// ListRecentMessageIDs returns up to max message ids in folder, newest first
	ListRecentMessageIDs(ctx context.Context, folder string, max int) ([]string, error)

	// GetMessage fetches the full message payload
	GetMessage(ctx context.Context, id string) (*domain.Message, error)
}
