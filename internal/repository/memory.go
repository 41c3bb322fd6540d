package repository

import (
	"context"
	"sync"
	"time"

	"hotelpos/internal/models"
)

type memoryEntry struct {
	value     interface{}
	expiresAt time.Time
}

type MemoryCatalog struct {
	entries sync.Map
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryCatalog(ttl time.Duration) *MemoryCatalog {
	return &MemoryCatalog{ttl: ttl, now: time.Now}
}

func (r *MemoryCatalog) LoadItems(_ context.Context) ([]*models.Item, error) {
	v, ok := r.load(keyItems)
	if !ok {
		return nil, nil
	}
	return v.([]*models.Item), nil
}

func (r *MemoryCatalog) StoreItems(_ context.Context, items []*models.Item) error {
	r.store(keyItems, items)
	return nil
}

func (r *MemoryCatalog) LoadRateProducts(_ context.Context) ([]*models.ReservationItem, error) {
	v, ok := r.load(keyRateProducts)
	if !ok {
		return nil, nil
	}
	return v.([]*models.ReservationItem), nil
}

func (r *MemoryCatalog) StoreRateProducts(_ context.Context, items []*models.ReservationItem) error {
	r.store(keyRateProducts, items)
	return nil
}

func (r *MemoryCatalog) Clear(_ context.Context) error {
	r.entries.Delete(keyItems)
	r.entries.Delete(keyRateProducts)
	return nil
}

func (r *MemoryCatalog) load(key string) (interface{}, bool) {
	val, ok := r.entries.Load(key)
	if !ok {
		return nil, false
	}
	entry := val.(*memoryEntry)
	if r.ttl > 0 && r.now().After(entry.expiresAt) {
		r.entries.Delete(key)
		return nil, false
	}
	return entry.value, true
}

func (r *MemoryCatalog) store(key string, v interface{}) {
	r.entries.Store(key, &memoryEntry{value: v, expiresAt: r.now().Add(r.ttl)})
}
