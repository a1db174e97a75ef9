package redis

import (
	"context"
	"fmt"
	"time"

	"myEventReco/business/telemetry"

	"github.com/redis/go-redis/v9"
)

// ClickWindowRepository claims (item, subject) pairs for the duplicate
// window with SET NX, so repeated clicks are rejected without a database
// round trip.
type ClickWindowRepository struct {
	client *redis.Client
}

var _ telemetry.ClickWindow = (*ClickWindowRepository)(nil)

func NewClickWindowRepository(client *redis.Client) *ClickWindowRepository {
	return &ClickWindowRepository{
		client: client,
	}
}

func (r *ClickWindowRepository) Claim(ctx context.Context, itemID uint64, subject string, window time.Duration) (bool, error) {
	// key format: "click:window:{item_id}:{subject}"
	key := fmt.Sprintf("click:window:%d:%s", itemID, subject)

	ok, err := r.client.SetNX(ctx, key, time.Now().Unix(), window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim click window: %w", err)
	}
	return ok, nil
}
