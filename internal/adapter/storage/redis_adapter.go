package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const cursorKeyPrefix = "cursor:last_message:"

// RedisCursor keeps the last processed message id in Redis so a restart
// does not reprocess the newest email.
type RedisCursor struct {
	client *redis.Client
	key    string
}

func NewRedisCursor(client *redis.Client, folder string) *RedisCursor {
	return &RedisCursor{client: client, key: cursorKeyPrefix + folder}
}

func (r *RedisCursor) LastSeen(ctx context.Context) (string, error) {
	id, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *RedisCursor) SetLastSeen(ctx context.Context, id string) error {
	return r.client.Set(ctx, r.key, id, 0).Err()
}
