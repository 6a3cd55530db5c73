package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/gilson954/sistema-rifa-sub001/internal/entity"

	"github.com/redis/go-redis/v9"
)

// DeliveryCache remembers webhook deliveries that were already applied. It only
// saves repeated work: the conditional ticket writes stay the source of truth.
type DeliveryCache interface {
	Seen(ctx context.Context, event *entity.SettlementEvent) (bool, error)
	Remember(ctx context.Context, event *entity.SettlementEvent) error
}

type deliveryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDeliveryCache(client *redis.Client, ttl time.Duration) DeliveryCache {
	return &deliveryCache{
		client: client,
		ttl:    ttl,
	}
}

func DeliveryKey(event *entity.SettlementEvent) string {
	return fmt.Sprintf("webhook:%s:%s:%s", event.Provider, event.ExternalID, event.Outcome)
}

func (c *deliveryCache) Seen(ctx context.Context, event *entity.SettlementEvent) (bool, error) {
	if event.ExternalID == "" {
		return false, nil
	}
	n, err := c.client.Exists(ctx, DeliveryKey(event)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check delivery: %w", err)
	}
	return n > 0, nil
}

func (c *deliveryCache) Remember(ctx context.Context, event *entity.SettlementEvent) error {
	if event.ExternalID == "" {
		return nil
	}
	if err := c.client.Set(ctx, DeliveryKey(event), event.OrderID, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to remember delivery: %w", err)
	}
	return nil
}

// NopDeliveryCache is used when redis is not configured.
type NopDeliveryCache struct{}

func (NopDeliveryCache) Seen(context.Context, *entity.SettlementEvent) (bool, error) { return false, nil }

func (NopDeliveryCache) Remember(context.Context, *entity.SettlementEvent) error { return nil }
