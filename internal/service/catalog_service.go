package service

import (
	"context"
	"strings"

	"hotelpos/internal/domain"
	"hotelpos/internal/models"

	"github.com/rs/zerolog"
)

// CatalogService serves POS items and room-rate products. Reads go through
// the cache; every write invalidates it.
type CatalogService struct {
	store  domain.Store
	cache  domain.CatalogCache
	logger *zerolog.Logger
}

var _ domain.CatalogService = (*CatalogService)(nil)

func NewCatalogService(store domain.Store, cache domain.CatalogCache, logger *zerolog.Logger) *CatalogService {
	return &CatalogService{store: store, cache: cache, logger: nopLogger(logger)}
}

func validateItem(item *models.Item) error {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return domain.Invalid("item name is required")
	}
	if item.PriceUSD.IsNegative() {
		return domain.Invalid("item price must not be negative")
	}
	if item.HappyHourPriceUSD != nil && item.HappyHourPriceUSD.IsNegative() {
		return domain.Invalid("happy hour price must not be negative")
	}
	if item.StockQuantity < 0 {
		return domain.Invalid("stock quantity must not be negative")
	}
	for _, ing := range item.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return domain.Invalid("ingredient name is required")
		}
	}
	return nil
}

func (s *CatalogService) CreateItem(ctx context.Context, item *models.Item) error {
	if err := validateItem(item); err != nil {
		return err
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	return s.store.GetItem(ctx, id)
}

func (s *CatalogService) ListItems(ctx context.Context) ([]*models.Item, error) {
	if s.cache != nil {
		if items, ok := s.cache.GetItems(ctx); ok {
			return items, nil
		}
	}
	items, err := s.store.ListItems(ctx, false)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetItems(ctx, items)
	}
	return items, nil
}

func (s *CatalogService) UpdateItem(ctx context.Context, item *models.Item) error {
	if err := validateItem(item); err != nil {
		return err
	}
	if err := s.store.UpdateItem(ctx, item); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) CreateRateProduct(ctx context.Context, item *models.ReservationItem) error {
	if strings.TrimSpace(item.Description) == "" || strings.TrimSpace(item.RoomType) == "" {
		return domain.Invalid("rate product description and room type are required")
	}
	if !item.DailyRateUSD.IsPositive() {
		return domain.Invalid("daily rate must be positive")
	}
	if item.BoardType == "" {
		item.BoardType = models.BoardRoomOnly
	}
	if err := s.store.CreateReservationItem(ctx, item); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) ListRateProducts(ctx context.Context) ([]*models.ReservationItem, error) {
	if s.cache != nil {
		if items, ok := s.cache.GetRateProducts(ctx); ok {
			return items, nil
		}
	}
	items, err := s.store.ListReservationItems(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetRateProducts(ctx, items)
	}
	return items, nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx)
	s.logger.Debug().Msg("catalog cache invalidated")
}
