package models

type RoomStatus string

const (
	RoomVacant      RoomStatus = "VACANT"
	RoomOccupied    RoomStatus = "OCCUPIED"
	RoomMaintenance RoomStatus = "MAINTENANCE"
)

type GuestType string

const (
	GuestHotel   GuestType = "HOTEL"
	GuestOutside GuestType = "OUTSIDE"
	GuestStaff   GuestType = "STAFF"
)

type BoardType string

const (
	BoardRoomOnly        BoardType = "ROOM_ONLY"
	BoardBedAndBreakfast BoardType = "BED_AND_BREAKFAST"
	BoardHalf            BoardType = "HALF_BOARD"
	BoardFull            BoardType = "FULL_BOARD"
)

type ReservationStatus string

const (
	ReservationConfirmed  ReservationStatus = "CONFIRMED"
	ReservationCheckedIn  ReservationStatus = "CHECKED_IN"
	ReservationFinalBill  ReservationStatus = "FINAL_BILL"
	ReservationCheckedOut ReservationStatus = "CHECKED_OUT"
	ReservationCancelled  ReservationStatus = "CANCELLED"
)

// PaymentStatus is shared by reservations, orders and invoices.
type PaymentStatus string

const (
	PaymentUnpaid    PaymentStatus = "UNPAID"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentUnpaid, PaymentPaid, PaymentCancelled:
		return true
	}
	return false
}

type TaskStatus string

const (
	TaskOpen       TaskStatus = "OPEN"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskDone       TaskStatus = "DONE"
)

func (s TaskStatus) Valid() bool {
	return s == TaskOpen || s == TaskInProgress || s == TaskDone
}

type InvoiceItemKind string

const (
	InvoiceItemReservation InvoiceItemKind = "RESERVATION"
	InvoiceItemOrder       InvoiceItemKind = "ORDER"
)

// Invoice number sequences.
const (
	SequenceNormal    = "NORMAL"
	SequenceCancelled = "CANCELLED"
)
