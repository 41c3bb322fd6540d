package domain

import (
	"time"

	"hotelpos/internal/models"

	"github.com/shopspring/decimal"
)

type GuestInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Type      models.GuestType
	Details   *models.PersonalDetails
}

type CreateReservationInput struct {
	ReservationItemID int64
	CheckIn           time.Time
	CheckOut          time.Time
	GuestID           *int64
	Guest             *GuestInput
	RoomID            *int64
	InvoiceID         *int64
	Notes             string
}

type CheckInInput struct {
	ReservationID int64
	RoomID        int64
	GuestID       *int64
	Guest         *GuestInput
}

// FinalBillInput recalculates a reservation; nil dates keep the stored ones.
type FinalBillInput struct {
	ReservationID int64
	CheckIn       *time.Time
	CheckOut      *time.Time
}

type ReservationSpec struct {
	ReservationItemID int64
	CheckIn           time.Time
	CheckOut          time.Time
	RoomID            *int64
	Notes             string
}

type CreateInvoiceInput struct {
	GuestID      *int64
	Guest        *GuestInput
	Reservations []ReservationSpec
}

type OrderLineInput struct {
	ItemID   int64
	Quantity int
}

type CreateOrderInput struct {
	Lines           []OrderLineInput
	HappyHour       bool
	DiscountPercent decimal.Decimal
	ReservationID   *int64
	GuestID         *int64
	InvoiceID       *int64
}

type TaskUpdate struct {
	Status     *models.TaskStatus
	AssignedTo *string
	Priority   *int
	DueAt      *time.Time
}
