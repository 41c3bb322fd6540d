package repository

import (
	"context"
	"sync/atomic"
	"time"

	"hotelpos/internal/domain"
	"hotelpos/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverCatalog serves the catalog cache from primary (Redis) and switches
// to fallback (memory) when primary errors. Primary is retried once a minute.
type FailoverCatalog struct {
	primary   CatalogStore
	fallback  CatalogStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

var _ domain.CatalogCache = (*FailoverCatalog)(nil)

func NewFailoverCatalog(primary, fallback CatalogStore, logger *zerolog.Logger) *FailoverCatalog {
	return &FailoverCatalog{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// active picks the store to use, probing primary when the recovery interval
// has passed.
func (r *FailoverCatalog) active(ctx context.Context) CatalogStore {
	if r.primary == nil {
		return r.fallback
	}
	if !r.isDown.Load() {
		return r.primary
	}
	if time.Since(time.Unix(0, r.lastCheck.Load())) > recoveryInterval {
		if _, err := r.primary.LoadItems(ctx); err == nil {
			r.logger.Info().Msg("Primary catalog cache recovered")
			r.isDown.Store(false)
			return r.primary
		}
		r.lastCheck.Store(time.Now().UnixNano())
	}
	return r.fallback
}

func (r *FailoverCatalog) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary catalog cache failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverCatalog) GetItems(ctx context.Context) ([]*models.Item, bool) {
	store := r.active(ctx)
	items, err := store.LoadItems(ctx)
	if err != nil && store == r.primary {
		r.markDown(err)
		items, err = r.fallback.LoadItems(ctx)
	}
	return items, err == nil && items != nil
}

func (r *FailoverCatalog) SetItems(ctx context.Context, items []*models.Item) {
	store := r.active(ctx)
	if err := store.StoreItems(ctx, items); err != nil && store == r.primary {
		r.markDown(err)
		_ = r.fallback.StoreItems(ctx, items)
	}
}

func (r *FailoverCatalog) GetRateProducts(ctx context.Context) ([]*models.ReservationItem, bool) {
	store := r.active(ctx)
	items, err := store.LoadRateProducts(ctx)
	if err != nil && store == r.primary {
		r.markDown(err)
		items, err = r.fallback.LoadRateProducts(ctx)
	}
	return items, err == nil && items != nil
}

func (r *FailoverCatalog) SetRateProducts(ctx context.Context, items []*models.ReservationItem) {
	store := r.active(ctx)
	if err := store.StoreRateProducts(ctx, items); err != nil && store == r.primary {
		r.markDown(err)
		_ = r.fallback.StoreRateProducts(ctx, items)
	}
}

// Invalidate clears both stores so a recovered primary never serves stale data.
func (r *FailoverCatalog) Invalidate(ctx context.Context) {
	if r.primary != nil {
		if err := r.primary.Clear(ctx); err != nil && !r.isDown.Load() {
			r.markDown(err)
		}
	}
	_ = r.fallback.Clear(ctx)
}
