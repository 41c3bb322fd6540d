package service

import (
	"hotelpos/internal/config"
	"hotelpos/internal/domain"

	"github.com/rs/zerolog"
)

// Services bundles the domain procedures over one store.
type Services struct {
	Reconciler   *Reconciler
	Reservations *ReservationService
	Invoices     *InvoiceService
	Orders       *OrderService
	Guests       *GuestService
	Catalog      *CatalogService
	Rooms        *RoomService
	Tasks        *TaskService
}

func New(store domain.Store, cache domain.CatalogCache, bus domain.EventPublisher, cfg *config.Config, logger *zerolog.Logger) *Services {
	logger = nopLogger(logger)
	rec := NewReconciler(cfg.Invoicing, cfg.App.Location(), logger)
	return &Services{
		Reconciler:   rec,
		Reservations: NewReservationService(store, rec, cfg.Invoicing, bus, logger),
		Invoices:     NewInvoiceService(store, rec, bus, logger),
		Orders:       NewOrderService(store, rec, bus, logger),
		Guests:       NewGuestService(store, logger),
		Catalog:      NewCatalogService(store, cache, logger),
		Rooms:        NewRoomService(store, logger),
		Tasks:        NewTaskService(store, logger),
	}
}
