package queue

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedis_PublishPop(t *testing.T) {
	ctx := context.Background()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	q := NewRedis(client, "")

	ids, err := q.Pop(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, q.Publish(ctx, 3, 1, 4))
	require.NoError(t, q.Publish(ctx))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	ids, err = q.Pop(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 1}, ids)

	ids, err = q.Pop(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint{4}, ids)
}

func TestRedis_PopSkipsMalformed(t *testing.T) {
	ctx := context.Background()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	q := NewRedis(client, "test:queue")
	require.NoError(t, client.RPush(ctx, "test:queue", "x", "7").Err())

	ids, err := q.Pop(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []uint{7}, ids)
}
