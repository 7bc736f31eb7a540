package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/ev-scanner-poc/pkg/contracts/events"
)

// RedisCache encapsula o cache de oportunidades de EV no Redis
// Client: cliente Redis
// TTL: tempo de expiração dos registros
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisCache cria uma instância de cache Redis com TTL configurável
func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

// key gera a chave Redis da oportunidade corrente de uma seleção
func key(id string) string { return "ev:current:" + id }

// SetCurrent armazena a oportunidade corrente no Redis com TTL definido
func (r *RedisCache) SetCurrent(ctx context.Context, o events.EVOpportunity) error {
	b, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, key(o.ID), b, r.TTL).Err()
}
