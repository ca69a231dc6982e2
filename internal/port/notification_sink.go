package port

import (
	"context"

	"github.com/rl1809/po-watcher/internal/core/domain"
)

type NotificationSink interface {
	// Notify forwards the raw parsed items of one email
	Notify(ctx context.Context, subject string, items []domain.RawItemRecord) error
}
