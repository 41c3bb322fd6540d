package domain

import (
	"context"
	"time"

	"hotelpos/internal/models"

	"github.com/shopspring/decimal"
)

// Store is the persistence boundary. Implementations translate driver errors
// into *Error kinds.
type Store interface {
	// InTx runs fn inside a transaction. Nested calls join the outer one.
	InTx(ctx context.Context, fn func(tx Store) error) error

	CreateRoom(ctx context.Context, room *models.Room) error
	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	ListRooms(ctx context.Context) ([]*models.Room, error)
	UpdateRoomStatus(ctx context.Context, id int64, status models.RoomStatus) error

	CreateReservationItem(ctx context.Context, item *models.ReservationItem) error
	GetReservationItem(ctx context.Context, id int64) (*models.ReservationItem, error)
	ListReservationItems(ctx context.Context) ([]*models.ReservationItem, error)

	CreateGuest(ctx context.Context, guest *models.Guest) error
	GetGuest(ctx context.Context, id int64) (*models.Guest, error)
	GetGuestByEmail(ctx context.Context, email string) (*models.Guest, error)
	ListGuests(ctx context.Context) ([]*models.Guest, error)
	UpdateGuest(ctx context.Context, guest *models.Guest) error
	SetGuestCurrentReservation(ctx context.Context, guestID int64, reservationID *int64) error

	CreateReservation(ctx context.Context, r *models.Reservation) error
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	ListReservations(ctx context.Context, f ReservationFilter) ([]*models.Reservation, error)
	UpdateReservation(ctx context.Context, r *models.Reservation) error

	CreateInvoice(ctx context.Context, inv *models.Invoice) error
	GetInvoice(ctx context.Context, id int64) (*models.Invoice, error)
	ListInvoices(ctx context.Context, f InvoiceFilter) ([]*models.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, id int64, status models.PaymentStatus, number string) error
	SaveInvoiceTotals(ctx context.Context, id int64, totals InvoiceTotals) error
	AllocateInvoiceNumber(ctx context.Context, sequence string, floor int64, width int) (string, error)

	SumReservationSubTotals(ctx context.Context, f SubTotalFilter) (decimal.NullDecimal, error)
	SumOrderSubTotals(ctx context.Context, f SubTotalFilter) (decimal.NullDecimal, error)

	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status models.PaymentStatus) error

	CreateItem(ctx context.Context, item *models.Item) error
	GetItem(ctx context.Context, id int64) (*models.Item, error)
	ListItems(ctx context.Context, activeOnly bool) ([]*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	AdjustItemStock(ctx context.Context, id int64, delta int) error

	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	ListTasks(ctx context.Context, status models.TaskStatus) ([]*models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
}

type ReservationFilter struct {
	Statuses         []models.ReservationStatus
	RoomID           *int64
	InvoiceID        *int64
	ExcludeCancelled bool
}

type InvoiceFilter struct {
	Status      models.PaymentStatus
	AfterID     int64
	Limit       int
	OldestFirst bool
}

type OrderFilter struct {
	From      time.Time
	To        time.Time
	InvoiceID *int64
	Status    models.PaymentStatus
}

// SubTotalFilter selects constituents of one invoice by payment status.
// With Exclude set the status is negated.
type SubTotalFilter struct {
	InvoiceID int64
	Status    models.PaymentStatus
	Exclude   bool
}

// InvoiceTotals is the derived state written by reconciliation.
type InvoiceTotals struct {
	TotalUSD            decimal.Decimal
	RemainingBalanceUSD decimal.Decimal
	Items               []models.InvoiceItem
	ReconciledAt        time.Time
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// CatalogCache holds read-mostly catalog data outside the database.
type CatalogCache interface {
	GetItems(ctx context.Context) ([]*models.Item, bool)
	SetItems(ctx context.Context, items []*models.Item)
	GetRateProducts(ctx context.Context) ([]*models.ReservationItem, bool)
	SetRateProducts(ctx context.Context, items []*models.ReservationItem)
	Invalidate(ctx context.Context)
}

type ReservationService interface {
	Create(ctx context.Context, in CreateReservationInput) (*models.Reservation, error)
	CheckIn(ctx context.Context, in CheckInInput) (*models.Reservation, error)
	CheckOut(ctx context.Context, id int64) (*models.Reservation, error)
	CalculateSubTotal(ctx context.Context, in FinalBillInput) (*models.Reservation, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus) (*models.Reservation, error)
	Cancel(ctx context.Context, id int64) (*models.Reservation, error)
	GetAll(ctx context.Context) ([]*models.Reservation, error)
	GetByID(ctx context.Context, id int64) (*models.Reservation, error)
	GetActiveReservations(ctx context.Context) ([]*models.Reservation, error)
	GetRoomReservations(ctx context.Context, roomID int64) ([]*models.Reservation, error)
}

type InvoiceService interface {
	Create(ctx context.Context, in CreateInvoiceInput) (*models.Invoice, error)
	GetOpen(ctx context.Context) ([]*models.Invoice, error)
	GetByID(ctx context.Context, id int64) (*models.Invoice, error)
	UpdateStatus(ctx context.Context, id int64, status models.PaymentStatus) (*models.Invoice, error)
	Recompute(ctx context.Context, id int64) (*models.Invoice, error)
}

type OrderService interface {
	Create(ctx context.Context, in CreateOrderInput) (*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	List(ctx context.Context, f OrderFilter) ([]*models.Order, error)
	UpdateStatus(ctx context.Context, id int64, status models.PaymentStatus) (*models.Order, error)
}

type GuestService interface {
	Create(ctx context.Context, in GuestInput) (*models.Guest, error)
	GetByID(ctx context.Context, id int64) (*models.Guest, error)
	List(ctx context.Context) ([]*models.Guest, error)
	Update(ctx context.Context, id int64, in GuestInput) (*models.Guest, error)
}

type CatalogService interface {
	CreateItem(ctx context.Context, item *models.Item) error
	GetItem(ctx context.Context, id int64) (*models.Item, error)
	ListItems(ctx context.Context) ([]*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	CreateRateProduct(ctx context.Context, item *models.ReservationItem) error
	ListRateProducts(ctx context.Context) ([]*models.ReservationItem, error)
}

type RoomService interface {
	Create(ctx context.Context, room *models.Room) error
	GetByID(ctx context.Context, id int64) (*models.Room, error)
	List(ctx context.Context) ([]*models.Room, error)
	UpdateStatus(ctx context.Context, id int64, status models.RoomStatus) (*models.Room, error)
}

type TaskService interface {
	Create(ctx context.Context, task *models.Task) error
	List(ctx context.Context, status models.TaskStatus) ([]*models.Task, error)
	Update(ctx context.Context, id int64, in TaskUpdate) (*models.Task, error)
}
