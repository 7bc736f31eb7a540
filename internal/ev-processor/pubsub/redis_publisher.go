package pubsub

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const ChannelEVBroadcast = "ev_opportunities_broadcast"

type RedisBroadcaster struct {
	r *redis.Client
}

func NewRedisBroadcaster(r *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{r: r}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.r.Publish(ctx, channel, payload).Err()
}

// Payload padrão para o WS do ev-service
type WSUpdate struct {
	FixtureID string      `json:"fixtureId"`
	Payload   interface{} `json:"payload"`
}
