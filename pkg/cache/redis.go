package cache

import (
	"context"
	"time"

	"payment-portal/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// eventKeyPrefix namespaces processed webhook event IDs
	eventKeyPrefix = "stripe:event:"

	// eventTTL matches how long the payment processor retries deliveries
	eventTTL = 24 * time.Hour
)

// EventCache remembers webhook event IDs that were already handled. It is a
// best-effort filter in front of the conditional updates in the payment store,
// which remain the authoritative idempotency guard.
type EventCache struct {
	rdb *redis.Client
	log *zap.Logger
}

func NewEventCache(config utils.RedisConfig, log *zap.Logger) (*EventCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, err
	}

	return &EventCache{
		rdb: rdb,
		log: log.With(zap.String("cache", "events")),
	}, nil
}

// Once reports whether eventID is seen for the first time. SetNX marks the
// event atomically so concurrent deliveries of the same event race safely.
func (c *EventCache) Once(ctx context.Context, eventID string) (bool, error) {
	first, err := c.rdb.SetNX(ctx, eventKeyPrefix+eventID, "1", eventTTL).Result()
	if err != nil {
		c.log.Warn("Failed to mark event as seen",
			zap.Error(err),
			zap.String("event_id", eventID),
		)
		return false, err
	}
	return first, nil
}

func (c *EventCache) Close() error {
	return c.rdb.Close()
}
