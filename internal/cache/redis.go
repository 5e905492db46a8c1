package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/expertbooking/config"
	"github.com/Domenick1991/expertbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client    *redis.Client
	expertTTL time.Duration
}

func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
}

func NewRedisCache(client *redis.Client, expertTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, expertTTL: expertTTL}
}

// GetExpert returns nil, nil on a cache miss.
func (c *RedisCache) GetExpert(ctx context.Context, expertID string) (*domain.ExpertDetail, error) {
	data, err := c.client.Get(ctx, expertKey(expertID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var detail domain.ExpertDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *RedisCache) SetExpert(ctx context.Context, detail *domain.ExpertDetail) error {
	payload, err := json.Marshal(detail)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, expertKey(detail.ID), payload, c.expertTTL).Err()
}

func (c *RedisCache) InvalidateExpert(ctx context.Context, expertID string) error {
	return c.client.Del(ctx, expertKey(expertID)).Err()
}

// AcquireSlotLock guards the booking commit of one slot against concurrent
// submissions for the lock's ttl.
func (c *RedisCache) AcquireSlotLock(ctx context.Context, expertID, date, slot string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, slotLockKey(expertID, date, slot), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseSlotLock(ctx context.Context, expertID, date, slot string) error {
	return c.client.Del(ctx, slotLockKey(expertID, date, slot)).Err()
}

func expertKey(expertID string) string {
	return "cache:expert:" + expertID
}

func slotLockKey(expertID, date, slot string) string {
	return fmt.Sprintf("lock:expert:%s:slot:%s:%s", expertID, date, slot)
}
