package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/emrgen/knuth/internal/compress"
	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultRedisPrefix = "knuth:document:"

var _ Index = (*Redis)(nil)

// Redis keeps one encoded JSON object per document.
type Redis struct {
	client  *redis.Client
	encoder compress.Compress
	prefix  string
}

func NewRedis(client *redis.Client, encoder compress.Compress, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	if encoder == nil {
		encoder = compress.NewNop()
	}

	return &Redis{client: client, encoder: encoder, prefix: prefix}
}

func (r *Redis) key(id uint) string {
	return r.prefix + documentID(id)
}

func (r *Redis) Exists(ctx context.Context, id uint) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(id)).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (r *Redis) Index(ctx context.Context, id uint, body *Body) error {
	data, err := r.encode(body)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, r.key(id), data, 0).Err()
}

func (r *Redis) Update(ctx context.Context, id uint, partial map[string]any) error {
	patch, err := toObject(partial)
	if err != nil {
		return err
	}

	key := r.key(id)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		doc, err := r.get(ctx, tx, key)
		if err != nil {
			return err
		}

		Merge(doc, patch)

		data, err := r.encode(doc)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			return p.Set(ctx, key, data, 0).Err()
		})

		return err
	}, key)
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			logrus.Warnf("index entry %d changed during update", id)
		}
		return fmt.Errorf("update index entry %d: %w", id, err)
	}

	return nil
}

func (r *Redis) Get(ctx context.Context, id uint) (map[string]any, error) {
	doc, err := r.get(ctx, r.client, r.key(id))
	if err != nil {
		return nil, fmt.Errorf("get index entry %d: %w", id, err)
	}

	return doc, nil
}

func (r *Redis) Delete(ctx context.Context, id uint) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *Redis) get(ctx context.Context, c getter, key string) (map[string]any, error) {
	buf, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotIndexed
		}
		return nil, err
	}

	data, err := r.encoder.Decode(buf)
	if err != nil {
		return nil, err
	}

	doc := make(map[string]any)
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	return doc, nil
}

func (r *Redis) encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return r.encoder.Encode(data)
}
