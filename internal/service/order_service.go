package service

import (
	"context"

	"hotelpos/internal/domain"
	"hotelpos/internal/events"
	"hotelpos/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type OrderService struct {
	store      domain.Store
	reconciler *Reconciler
	events     publisher
	logger     *zerolog.Logger
}

var _ domain.OrderService = (*OrderService)(nil)

func NewOrderService(store domain.Store, reconciler *Reconciler, bus domain.EventPublisher, logger *zerolog.Logger) *OrderService {
	logger = nopLogger(logger)
	return &OrderService{
		store:      store,
		reconciler: reconciler,
		events:     publisher{bus: bus, logger: logger},
		logger:     logger,
	}
}

func validateOrderInput(in domain.CreateOrderInput) error {
	if len(in.Lines) == 0 {
		return domain.Invalid("order has no lines")
	}
	for _, l := range in.Lines {
		if l.Quantity < 1 {
			return domain.Invalid("quantity for item %d must be at least 1", l.ItemID)
		}
	}
	if in.DiscountPercent.IsNegative() || in.DiscountPercent.GreaterThan(hundred) {
		return domain.Invalid("discount %s%% is out of range", in.DiscountPercent.String())
	}
	return nil
}

// Create records a sale. An order charged to a reservation lands on the
// reservation's invoice unless one is given explicitly. Stock is taken per
// line.
func (s *OrderService) Create(ctx context.Context, in domain.CreateOrderInput) (*models.Order, error) {
	if err := validateOrderInput(in); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		invoiceID, guestID := in.InvoiceID, in.GuestID
		if in.ReservationID != nil {
			r, err := tx.GetReservation(ctx, *in.ReservationID)
			if err != nil {
				return err
			}
			if invoiceID == nil {
				if !r.Active() {
					return domain.Unprocessable("reservation %d is %s and cannot be charged", r.ID, r.Status)
				}
				invoiceID = r.InvoiceID
			}
			if guestID == nil {
				guestID = r.GuestID
			}
		}
		if invoiceID != nil {
			inv, err := tx.GetInvoice(ctx, *invoiceID)
			if err != nil {
				return err
			}
			if inv.Status == models.PaymentCancelled {
				return domain.Unprocessable("invoice %s is cancelled", inv.InvoiceNumber)
			}
		}
		if guestID != nil {
			if _, err := tx.GetGuest(ctx, *guestID); err != nil {
				return err
			}
		}

		lines := make([]models.ItemOrder, 0, len(in.Lines))
		gross := decimal.Zero
		for _, l := range in.Lines {
			item, err := tx.GetItem(ctx, l.ItemID)
			if err != nil {
				return err
			}
			if !item.Active {
				return domain.Unprocessable("item %s is not on sale", item.Name)
			}
			if err := tx.AdjustItemStock(ctx, item.ID, -l.Quantity); err != nil {
				return err
			}

			unit := models.Money(item.UnitPrice(in.HappyHour))
			sub := models.Money(unit.Mul(decimal.NewFromInt(int64(l.Quantity))))
			gross = gross.Add(sub)
			lines = append(lines, models.ItemOrder{
				ItemID:       item.ID,
				ItemName:     item.Name,
				Quantity:     l.Quantity,
				UnitPriceUSD: unit,
				SubTotalUSD:  sub,
			})
		}

		discount := models.Money(in.DiscountPercent)
		order = &models.Order{
			SubTotalUSD:     models.Money(gross.Mul(hundred.Sub(discount)).Div(hundred)),
			Status:          models.PaymentUnpaid,
			HappyHour:       in.HappyHour,
			DiscountPercent: discount,
			ReservationID:   in.ReservationID,
			GuestID:         guestID,
			InvoiceID:       invoiceID,
			Lines:           lines,
		}
		s.reconciler.BeforeOrderCreate(order)
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		return s.reconciler.AfterOrderCreate(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("order_id", order.ID).
		Int("lines", len(order.Lines)).
		Str("sub_total", moneyString(order.SubTotalUSD)).
		Msg("order created")
	s.events.order(events.EventOrderCreated, order)
	s.events.recomputed(ctx, s.store, order.InvoiceID)
	return order, nil
}

func (s *OrderService) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	return s.store.GetOrder(ctx, id)
}

// List returns orders on business days in [From, To).
func (s *OrderService) List(ctx context.Context, f domain.OrderFilter) ([]*models.Order, error) {
	loc := s.reconciler.Location()
	if !f.From.IsZero() {
		f.From = models.StartOfDay(f.From, loc)
	}
	if !f.To.IsZero() {
		f.To = models.StartOfDay(f.To, loc)
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.To.After(f.From) {
		return nil, domain.Invalid("order range end must be after its start")
	}
	return s.store.ListOrders(ctx, f)
}

// UpdateStatus moves an order between payment states. Cancelling returns the
// stock taken by its lines; a cancelled order stays cancelled.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status models.PaymentStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, domain.Invalid("unknown payment status %q", status)
	}

	var invoiceID *int64
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		o, err := tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if o.Status == status {
			return nil
		}
		if o.Status == models.PaymentCancelled {
			return domain.Unprocessable("order %d is cancelled", o.ID)
		}

		before := *o
		o.Status = status
		if err := tx.UpdateOrderStatus(ctx, id, status); err != nil {
			return err
		}
		if status == models.PaymentCancelled {
			for _, l := range o.Lines {
				if err := tx.AdjustItemStock(ctx, l.ItemID, l.Quantity); err != nil {
					return err
				}
			}
		}
		invoiceID = o.InvoiceID
		return s.reconciler.AfterOrderUpdate(ctx, tx, &before, o)
	})
	if err != nil {
		return nil, err
	}

	s.events.recomputed(ctx, s.store, invoiceID)
	return s.store.GetOrder(ctx, id)
}
