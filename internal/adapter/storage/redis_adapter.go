package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okabakkie/marketplace/internal/core/domain"
)

const (
	vendorListingKey  = "vendors:active"
	vendorListingTTL  = 30 * time.Second
	idempotencyKeyTTL = 24 * time.Hour
)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) GetVendorListing(ctx context.Context) ([]domain.Vendor, bool, error) {
	payload, err := r.client.Get(ctx, vendorListingKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var vendors []domain.Vendor
	if err := json.Unmarshal(payload, &vendors); err != nil {
		return nil, false, fmt.Errorf("decode cached listing: %w", err)
	}
	return vendors, true, nil
}

func (r *RedisAdapter) SetVendorListing(ctx context.Context, vendors []domain.Vendor) error {
	payload, err := json.Marshal(vendors)
	if err != nil {
		return fmt.Errorf("encode listing: %w", err)
	}
	return r.client.Set(ctx, vendorListingKey, payload, vendorListingTTL).Err()
}

func (r *RedisAdapter) InvalidateVendorListing(ctx context.Context) error {
	return r.client.Del(ctx, vendorListingKey).Err()
}
