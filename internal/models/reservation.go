package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationItem is a bookable room-rate product.
type ReservationItem struct {
	ID           int64           `gorm:"primaryKey" json:"id" yaml:"-"`
	Description  string          `gorm:"size:255;not null" json:"description" yaml:"description"`
	RoomType     string          `gorm:"size:64;not null" json:"room_type" yaml:"room_type"`
	RoomVariant  string          `gorm:"size:64" json:"room_variant" yaml:"room_variant"`
	BoardType    BoardType       `gorm:"size:32;not null;default:ROOM_ONLY" json:"board_type" yaml:"board_type"`
	DailyRateUSD decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"daily_rate_usd" yaml:"-"`
	CreatedAt    time.Time       `json:"created_at" yaml:"-"`
	UpdatedAt    time.Time       `json:"updated_at" yaml:"-"`
}

type Reservation struct {
	ID                int64             `gorm:"primaryKey" json:"id"`
	CheckIn           time.Time         `gorm:"type:date;not null" json:"check_in"`
	CheckOut          time.Time         `gorm:"type:date;not null" json:"check_out"`
	Nights            int               `gorm:"not null" json:"nights"`
	Status            ReservationStatus `gorm:"size:16;not null;default:CONFIRMED;index" json:"status"`
	PaymentStatus     PaymentStatus     `gorm:"size:16;not null;default:UNPAID" json:"payment_status"`
	SubTotalUSD       decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"sub_total_usd"`
	Notes             string            `gorm:"size:1024" json:"notes,omitempty"`
	ReservationItemID int64             `gorm:"not null;index" json:"reservation_item_id"`
	RoomID            *int64            `gorm:"index" json:"room_id"`
	GuestID           *int64            `gorm:"index" json:"guest_id"`
	InvoiceID         *int64            `gorm:"index" json:"invoice_id"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`

	ReservationItem *ReservationItem `gorm:"foreignKey:ReservationItemID" json:"reservation_item,omitempty"`
	Room            *Room            `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	Guest           *Guest           `gorm:"foreignKey:GuestID" json:"guest,omitempty"`
	Invoice         *Invoice         `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
}

// Active reports whether the guest is in house.
func (r *Reservation) Active() bool {
	return r.Status == ReservationCheckedIn || r.Status == ReservationFinalBill
}
