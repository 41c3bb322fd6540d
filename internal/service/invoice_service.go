package service

import (
	"context"
	"errors"

	"hotelpos/internal/domain"
	"hotelpos/internal/events"
	"hotelpos/internal/models"

	"github.com/rs/zerolog"
)

type InvoiceService struct {
	store      domain.Store
	reconciler *Reconciler
	events     publisher
	logger     *zerolog.Logger
}

var _ domain.InvoiceService = (*InvoiceService)(nil)

func NewInvoiceService(store domain.Store, reconciler *Reconciler, bus domain.EventPublisher, logger *zerolog.Logger) *InvoiceService {
	logger = nopLogger(logger)
	return &InvoiceService{
		store:      store,
		reconciler: reconciler,
		events:     publisher{bus: bus, logger: logger},
		logger:     logger,
	}
}

// Create opens a manual invoice for an existing or new guest together with
// its reservations. A new guest whose email is already registered is a
// conflict and nothing is written.
func (s *InvoiceService) Create(ctx context.Context, in domain.CreateInvoiceInput) (*models.Invoice, error) {
	if in.GuestID == nil {
		if err := validateGuestInput(in.Guest); err != nil {
			return nil, err
		}
	}

	var id int64
	err := s.reconciler.WithNumberRetry(ctx, func() error {
		return s.store.InTx(ctx, func(tx domain.Store) error {
			guest, err := s.invoiceGuest(ctx, tx, in)
			if err != nil {
				return err
			}

			number, err := s.reconciler.NextInvoiceNumber(ctx, tx, models.SequenceNormal)
			if err != nil {
				return err
			}
			inv := &models.Invoice{InvoiceNumber: number, Status: models.PaymentUnpaid, GuestID: &guest.ID}
			if err := tx.CreateInvoice(ctx, inv); err != nil {
				return numberTaken(err)
			}

			for _, spec := range in.Reservations {
				_, err := createReservation(ctx, tx, s.reconciler, domain.CreateReservationInput{
					ReservationItemID: spec.ReservationItemID,
					CheckIn:           spec.CheckIn,
					CheckOut:          spec.CheckOut,
					GuestID:           &guest.ID,
					RoomID:            spec.RoomID,
					InvoiceID:         &inv.ID,
					Notes:             spec.Notes,
				})
				if err != nil {
					return err
				}
			}

			if err := s.reconciler.AfterInvoiceCreate(ctx, tx, inv); err != nil {
				return err
			}
			id = inv.ID
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	inv, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Int64("invoice_id", inv.ID).
		Str("invoice_number", inv.InvoiceNumber).
		Int("reservations", len(inv.Reservations)).
		Msg("invoice created")
	s.events.invoice(events.EventInvoiceCreated, inv)
	return inv, nil
}

func (s *InvoiceService) invoiceGuest(ctx context.Context, tx domain.Store, in domain.CreateInvoiceInput) (*models.Guest, error) {
	if in.GuestID != nil {
		return tx.GetGuest(ctx, *in.GuestID)
	}

	_, err := tx.GetGuestByEmail(ctx, in.Guest.Email)
	if err == nil {
		return nil, domain.Conflict("guest with email %s already exists", models.NormalizeEmail(in.Guest.Email))
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	guest := newGuest(in.Guest)
	if err := tx.CreateGuest(ctx, guest); err != nil {
		return nil, err
	}
	return guest, nil
}

// GetOpen lists unpaid invoices, newest first.
func (s *InvoiceService) GetOpen(ctx context.Context) ([]*models.Invoice, error) {
	return s.store.ListInvoices(ctx, domain.InvoiceFilter{Status: models.PaymentUnpaid})
}

func (s *InvoiceService) GetByID(ctx context.Context, id int64) (*models.Invoice, error) {
	return s.store.GetInvoice(ctx, id)
}

// UpdateStatus changes the payment status. Cancelling renumbers the invoice
// from the cancelled sequence; a cancelled invoice cannot be reopened.
func (s *InvoiceService) UpdateStatus(ctx context.Context, id int64, status models.PaymentStatus) (*models.Invoice, error) {
	if !status.Valid() {
		return nil, domain.Invalid("unknown payment status %q", status)
	}

	var before models.Invoice
	err := s.reconciler.WithNumberRetry(ctx, func() error {
		return s.store.InTx(ctx, func(tx domain.Store) error {
			current, err := tx.GetInvoice(ctx, id)
			if err != nil {
				return err
			}
			if current.Status == models.PaymentCancelled && status != models.PaymentCancelled {
				return domain.Unprocessable("invoice %s is cancelled and cannot become %s", current.InvoiceNumber, status)
			}
			if current.Status == status {
				before = *current
				return nil
			}

			before = *current
			after := *current
			after.Status = status
			if err := tx.UpdateInvoiceStatus(ctx, id, status, ""); err != nil {
				return err
			}
			return s.reconciler.AfterInvoiceUpdate(ctx, tx, &before, &after)
		})
	})
	if err != nil {
		return nil, err
	}

	inv, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if before.Status != inv.Status {
		s.logger.Info().
			Int64("invoice_id", id).
			Str("from", string(before.Status)).
			Str("to", string(inv.Status)).
			Str("invoice_number", inv.InvoiceNumber).
			Msg("invoice status changed")
		if inv.Status == models.PaymentCancelled {
			s.events.invoice(events.EventInvoiceCancelled, inv)
		}
	}
	return inv, nil
}

// Recompute rebuilds the invoice totals on demand. invoice.recomputed is only
// published when the stored totals moved.
func (s *InvoiceService) Recompute(ctx context.Context, id int64) (*models.Invoice, error) {
	var before *models.Invoice
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		var err error
		if before, err = tx.GetInvoice(ctx, id); err != nil {
			return err
		}
		_, err = s.reconciler.RecomputeInvoiceTotals(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	inv, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if !before.TotalUSD.Equal(inv.TotalUSD) || !before.RemainingBalanceUSD.Equal(inv.RemainingBalanceUSD) {
		s.events.invoice(events.EventInvoiceRecomputed, inv)
	}
	return inv, nil
}
