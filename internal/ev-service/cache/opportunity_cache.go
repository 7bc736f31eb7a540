package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct{ R *redis.Client }

func New(r *redis.Client) *Cache { return &Cache{R: r} }

func keyOpportunity(id string) string { return "ev:current:" + id }

// GetOpportunity busca a oportunidade corrente no cache; retorna false em miss
func (c *Cache) GetOpportunity(ctx context.Context, id string, dst any) (bool, error) {
	b, err := c.R.Get(ctx, keyOpportunity(id)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *Cache) SetOpportunity(ctx context.Context, id string, v any, ttl time.Duration) error {
	b, _ := json.Marshal(v)
	return c.R.Set(ctx, keyOpportunity(id), b, ttl).Err()
}
