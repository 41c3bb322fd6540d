package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a point-of-sale catalog entry.
type Item struct {
	ID                int64            `gorm:"primaryKey" json:"id"`
	Name              string           `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Category          string           `gorm:"size:64;index" json:"category"`
	PriceUSD          decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"price_usd"`
	HappyHourPriceUSD *decimal.Decimal `gorm:"type:decimal(12,2)" json:"happy_hour_price_usd,omitempty"`
	StockQuantity     int              `gorm:"not null;default:0" json:"stock_quantity"`
	Active            bool             `gorm:"not null" json:"active"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`

	Ingredients []ItemIngredient `gorm:"foreignKey:ItemID" json:"ingredients,omitempty"`
}

// UnitPrice is the price charged for one unit, honouring happy hour.
func (i *Item) UnitPrice(happyHour bool) decimal.Decimal {
	if happyHour && i.HappyHourPriceUSD != nil {
		return *i.HappyHourPriceUSD
	}
	return i.PriceUSD
}

type ItemIngredient struct {
	ID       int64           `gorm:"primaryKey" json:"id"`
	ItemID   int64           `gorm:"not null;index" json:"item_id"`
	Name     string          `gorm:"size:128;not null" json:"name"`
	Quantity decimal.Decimal `gorm:"type:decimal(10,3);not null" json:"quantity"`
	Unit     string          `gorm:"size:16" json:"unit"`
}
