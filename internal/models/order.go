package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID              int64           `gorm:"primaryKey" json:"id"`
	SubTotalUSD     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"sub_total_usd"`
	Status          PaymentStatus   `gorm:"size:16;not null;default:UNPAID;index" json:"status"`
	HappyHour       bool            `gorm:"not null;default:false" json:"happy_hour"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"discount_percent"`
	CreatedDate     time.Time       `gorm:"index;not null" json:"created_date"`
	ReservationID   *int64          `gorm:"index" json:"reservation_id"`
	GuestID         *int64          `gorm:"index" json:"guest_id"`
	InvoiceID       *int64          `gorm:"index" json:"invoice_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Lines []ItemOrder `gorm:"foreignKey:OrderID" json:"lines,omitempty"`
}

// ItemOrder is one line of an order. Immutable once written.
type ItemOrder struct {
	ID           int64           `gorm:"primaryKey" json:"id"`
	OrderID      int64           `gorm:"not null;index" json:"order_id"`
	ItemID       int64           `gorm:"not null;index" json:"item_id"`
	ItemName     string          `gorm:"size:128" json:"item_name"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	UnitPriceUSD decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price_usd"`
	SubTotalUSD  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"sub_total_usd"`
}
