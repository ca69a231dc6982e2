package port

import "context"

type CursorRepository interface {
	// LastSeen returns the id of the last processed message, "" if none
	LastSeen(ctx context.Context) (string, error)

	// SetLastSeen records id as the last processed message
	SetLastSeen(ctx context.Context, id string) error
}
