package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PersonalDetails struct {
	Nationality    string `json:"nationality,omitempty"`
	DocumentType   string `json:"document_type,omitempty"`
	DocumentNumber string `json:"document_number,omitempty"`
	Address        string `json:"address,omitempty"`
	DateOfBirth    string `json:"date_of_birth,omitempty"`
}

type Guest struct {
	ID                   int64                                `gorm:"primaryKey" json:"id"`
	FirstName            string                               `gorm:"size:128;not null" json:"first_name"`
	LastName             string                               `gorm:"size:128;not null" json:"last_name"`
	Email                string                               `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Phone                string                               `gorm:"size:32" json:"phone"`
	Type                 GuestType                            `gorm:"size:16;not null;default:HOTEL" json:"type"`
	CurrentReservationID *int64                               `json:"current_reservation_id"`
	CreditUSD            decimal.Decimal                      `gorm:"type:decimal(12,2);not null;default:0" json:"credit_usd"`
	PersonalDetails      datatypes.JSONType[PersonalDetails] `json:"personal_details"`
	CreatedAt            time.Time                            `json:"created_at"`
	UpdatedAt            time.Time                            `json:"updated_at"`
}

func NewPersonalDetails(d PersonalDetails) datatypes.JSONType[PersonalDetails] {
	return datatypes.NewJSONType(d)
}

// NormalizeEmail is the canonical form used for the unique email index.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (t GuestType) Valid() bool {
	return t == GuestHotel || t == GuestOutside || t == GuestStaff
}
