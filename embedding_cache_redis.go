package topicseed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisEmbeddingCache shares embedding vectors between processes.
type RedisEmbeddingCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ EmbeddingCache = (*RedisEmbeddingCache)(nil)

// NewRedisEmbeddingCache creates a cache on client. A zero ttl keeps entries forever.
func NewRedisEmbeddingCache(client *redis.Client, ttl time.Duration) *RedisEmbeddingCache {
	return &RedisEmbeddingCache{client: client, ttl: ttl}
}

func (c *RedisEmbeddingCache) key(k string) string {
	return "embedding:" + k
}

func (c *RedisEmbeddingCache) Get(ctx context.Context, key string) ([]float64, bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var vec []float64
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

func (c *RedisEmbeddingCache) Put(ctx context.Context, key string, vec []float64) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(key), data, c.ttl).Err()
}

func (c *RedisEmbeddingCache) Close() error { return c.client.Close() }
