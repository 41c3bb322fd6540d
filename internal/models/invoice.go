package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Invoice struct {
	ID                  int64           `gorm:"primaryKey" json:"id"`
	InvoiceNumber       string          `gorm:"uniqueIndex;size:16;not null" json:"invoice_number"`
	TotalUSD            decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_usd"`
	RemainingBalanceUSD decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"remaining_balance_usd"`
	Status              PaymentStatus   `gorm:"size:16;not null;default:UNPAID;index" json:"status"`
	GuestID             *int64          `gorm:"index" json:"guest_id"`
	ReconciledAt        *time.Time      `json:"reconciled_at,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`

	Guest        *Guest        `gorm:"foreignKey:GuestID" json:"guest,omitempty"`
	Reservations []Reservation `gorm:"foreignKey:InvoiceID" json:"reservations,omitempty"`
	Orders       []Order       `gorm:"foreignKey:InvoiceID" json:"orders,omitempty"`
	Items        []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
}

// InvoiceItem is one printable line of an invoice, rebuilt on every
// reconciliation from the linked reservations and orders.
type InvoiceItem struct {
	ID          int64           `gorm:"primaryKey" json:"id"`
	InvoiceID   int64           `gorm:"not null;index" json:"invoice_id"`
	Kind        InvoiceItemKind `gorm:"size:16;not null" json:"kind"`
	SourceID    int64           `gorm:"not null" json:"source_id"`
	Description string          `gorm:"size:255" json:"description"`
	AmountUSD   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount_usd"`
	Status      PaymentStatus   `gorm:"size:16;not null" json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

// InvoiceSequence is the atomic counter behind invoice numbering.
type InvoiceSequence struct {
	Name      string `gorm:"primaryKey;size:16"`
	LastValue int64  `gorm:"not null"`
}
