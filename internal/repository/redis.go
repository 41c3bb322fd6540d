package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hotelpos/internal/config"
	"hotelpos/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	keyItems        = "catalog:items"
	keyRateProducts = "catalog:rate_products"
)

// CatalogStore is a backing store for catalog snapshots. Load methods return
// nil, nil on a miss.
type CatalogStore interface {
	LoadItems(ctx context.Context) ([]*models.Item, error)
	StoreItems(ctx context.Context, items []*models.Item) error
	LoadRateProducts(ctx context.Context) ([]*models.ReservationItem, error)
	StoreRateProducts(ctx context.Context, items []*models.ReservationItem) error
	Clear(ctx context.Context) error
}

type RedisCatalog struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisCatalog(client *redis.Client, ttl time.Duration) *RedisCatalog {
	return &RedisCatalog{client: client, ttl: ttl}
}

func (r *RedisCatalog) LoadItems(ctx context.Context) ([]*models.Item, error) {
	var items []*models.Item
	found, err := r.load(ctx, keyItems, &items)
	if err != nil || !found {
		return nil, err
	}
	return items, nil
}

func (r *RedisCatalog) StoreItems(ctx context.Context, items []*models.Item) error {
	return r.store(ctx, keyItems, items)
}

func (r *RedisCatalog) LoadRateProducts(ctx context.Context) ([]*models.ReservationItem, error) {
	var items []*models.ReservationItem
	found, err := r.load(ctx, keyRateProducts, &items)
	if err != nil || !found {
		return nil, err
	}
	return items, nil
}

func (r *RedisCatalog) StoreRateProducts(ctx context.Context, items []*models.ReservationItem) error {
	return r.store(ctx, keyRateProducts, items)
}

func (r *RedisCatalog) Clear(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, keyItems, keyRateProducts).Err(); err != nil {
		return fmt.Errorf("failed to clear catalog in redis: %w", err)
	}
	return nil
}

func (r *RedisCatalog) load(ctx context.Context, key string, dst interface{}) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s from redis: %w", key, err)
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (r *RedisCatalog) store(ctx context.Context, key string, v interface{}) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s in redis: %w", key, err)
	}
	return nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
