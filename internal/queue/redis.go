package queue

import (
	"context"
	"errors"
	"strconv"

	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var _ IndexQueue = (*Redis)(nil)

type Redis struct {
	client *redis.Client
	key    string
}

func NewRedis(client *redis.Client, key string) *Redis {
	if key == "" {
		key = IndexSyncQueue
	}

	return &Redis{client: client, key: key}
}

func (r *Redis) Publish(ctx context.Context, ids ...uint) error {
	if len(ids) == 0 {
		return nil
	}

	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = strconv.FormatUint(uint64(id), 10)
	}

	return r.client.RPush(ctx, r.key, values...).Err()
}

func (r *Redis) Pop(ctx context.Context, n int) ([]uint, error) {
	if n <= 0 {
		return nil, nil
	}

	values, err := r.client.LPopCount(ctx, r.key, n).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	ids := make([]uint, 0, len(values))
	for _, value := range values {
		id, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			logrus.Warnf("dropping malformed index queue entry %q", value)
			continue
		}
		ids = append(ids, uint(id))
	}

	return ids, nil
}

func (r *Redis) Len(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, r.key).Result()
}
