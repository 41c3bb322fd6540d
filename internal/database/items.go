package database

import (
	"context"
	"fmt"

	"hotelpos/internal/domain"
	"hotelpos/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (db *DB) CreateItem(ctx context.Context, item *models.Item) error {
	item.PriceUSD = models.Money(item.PriceUSD)
	if item.HappyHourPriceUSD != nil {
		hh := models.Money(*item.HappyHourPriceUSD)
		item.HappyHourPriceUSD = &hh
	}
	return translate(db.conn(ctx).Create(item).Error, "item")
}

func (db *DB) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	if err := db.conn(ctx).Preload("Ingredients").First(&item, id).Error; err != nil {
		return nil, translate(err, "item")
	}
	return &item, nil
}

func (db *DB) ListItems(ctx context.Context, activeOnly bool) ([]*models.Item, error) {
	q := db.conn(ctx).Preload("Ingredients")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var items []*models.Item
	if err := q.Order("category, name").Find(&items).Error; err != nil {
		return nil, translate(err, "item")
	}
	return items, nil
}

// UpdateItem writes the item columns and replaces its ingredient list.
func (db *DB) UpdateItem(ctx context.Context, item *models.Item) error {
	return db.tx(ctx, func(tx *DB) error {
		var hh interface{}
		if item.HappyHourPriceUSD != nil {
			hh = models.Money(*item.HappyHourPriceUSD)
		}
		res := tx.conn(ctx).Model(&models.Item{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
			"name":                 item.Name,
			"category":             item.Category,
			"price_usd":            models.Money(item.PriceUSD),
			"happy_hour_price_usd": hh,
			"stock_quantity":       item.StockQuantity,
			"active":               item.Active,
		})
		if err := notFoundIfNone(res, "item", item.ID); err != nil {
			return err
		}

		if err := tx.conn(ctx).Where("item_id = ?", item.ID).Delete(&models.ItemIngredient{}).Error; err != nil {
			return fmt.Errorf("failed to clear ingredients: %w", err)
		}
		for i := range item.Ingredients {
			item.Ingredients[i].ID = 0
			item.Ingredients[i].ItemID = item.ID
		}
		if len(item.Ingredients) > 0 {
			if err := tx.conn(ctx).Omit(clause.Associations).Create(&item.Ingredients).Error; err != nil {
				return fmt.Errorf("failed to write ingredients: %w", err)
			}
		}
		return nil
	})
}

// AdjustItemStock adds delta to the stock, refusing to go below zero.
func (db *DB) AdjustItemStock(ctx context.Context, id int64, delta int) error {
	res := db.conn(ctx).Model(&models.Item{}).
		Where("id = ? AND stock_quantity + ? >= 0", id, delta).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	if res.Error != nil {
		return translate(res.Error, "item")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.conn(ctx).Model(&models.Item{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return translate(err, "item")
	}
	if count == 0 {
		return domain.NotFound("item %d not found", id)
	}
	return domain.Unprocessable("insufficient stock for item %d", id)
}
