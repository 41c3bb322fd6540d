package service

import (
	"context"
	"fmt"

	"hotelpos/internal/config"
	"hotelpos/internal/domain"
	"hotelpos/internal/events"
	"hotelpos/internal/models"

	"github.com/rs/zerolog"
)

type ReservationService struct {
	store      domain.Store
	reconciler *Reconciler
	invoicing  config.InvoicingConfig
	events     publisher
	logger     *zerolog.Logger
}

var _ domain.ReservationService = (*ReservationService)(nil)

func NewReservationService(store domain.Store, reconciler *Reconciler, invoicing config.InvoicingConfig, bus domain.EventPublisher, logger *zerolog.Logger) *ReservationService {
	logger = nopLogger(logger)
	return &ReservationService{
		store:      store,
		reconciler: reconciler,
		invoicing:  invoicing,
		events:     publisher{bus: bus, logger: logger},
		logger:     logger,
	}
}

func (s *ReservationService) Create(ctx context.Context, in domain.CreateReservationInput) (*models.Reservation, error) {
	var id int64
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		r, err := createReservation(ctx, tx, s.reconciler, in)
		if err != nil {
			return err
		}
		id = r.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("reservation_id", r.ID).Str("sub_total", moneyString(r.SubTotalUSD)).Msg("reservation created")
	s.events.reservation(events.EventReservationCreated, r)
	s.events.recomputed(ctx, s.store, r.InvoiceID)
	return r, nil
}

// createReservation prices and inserts a CONFIRMED reservation inside tx.
func createReservation(ctx context.Context, tx domain.Store, rec *Reconciler, in domain.CreateReservationInput) (*models.Reservation, error) {
	item, err := tx.GetReservationItem(ctx, in.ReservationItemID)
	if err != nil {
		return nil, err
	}
	nights, subTotal, err := priceStay(item, in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, err
	}

	guest, _, err := findOrCreateGuest(ctx, tx, in.GuestID, in.Guest)
	if err != nil {
		return nil, err
	}
	if in.RoomID != nil {
		if _, err := tx.GetRoom(ctx, *in.RoomID); err != nil {
			return nil, err
		}
	}
	if in.InvoiceID != nil {
		inv, err := tx.GetInvoice(ctx, *in.InvoiceID)
		if err != nil {
			return nil, err
		}
		if inv.Status == models.PaymentCancelled {
			return nil, domain.Unprocessable("invoice %s is cancelled", inv.InvoiceNumber)
		}
	}

	r := &models.Reservation{
		CheckIn:           in.CheckIn,
		CheckOut:          in.CheckOut,
		Nights:            nights,
		Status:            models.ReservationConfirmed,
		PaymentStatus:     models.PaymentUnpaid,
		SubTotalUSD:       subTotal,
		Notes:             in.Notes,
		ReservationItemID: item.ID,
		RoomID:            in.RoomID,
		GuestID:           &guest.ID,
		InvoiceID:         in.InvoiceID,
	}
	if err := tx.CreateReservation(ctx, r); err != nil {
		return nil, err
	}
	if err := rec.AfterReservationCreate(ctx, tx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// CheckIn moves a CONFIRMED reservation in house: the room is occupied, the
// guest attached and a fresh invoice opened for the stay.
func (s *ReservationService) CheckIn(ctx context.Context, in domain.CheckInInput) (*models.Reservation, error) {
	var (
		previousInvoice *int64
		invoiceID       int64
	)
	err := s.reconciler.WithNumberRetry(ctx, func() error {
		return s.store.InTx(ctx, func(tx domain.Store) error {
			r, err := tx.GetReservation(ctx, in.ReservationID)
			if err != nil {
				return err
			}
			if r.Status != models.ReservationConfirmed {
				return domain.Unprocessable("reservation %d is %s, only CONFIRMED reservations can check in", r.ID, r.Status)
			}

			room, err := tx.GetRoom(ctx, in.RoomID)
			if err != nil {
				return err
			}
			if room.Status != models.RoomVacant {
				return domain.Unprocessable("room %s is %s", room.Number, room.Status)
			}

			guest, err := s.checkInGuest(ctx, tx, r, in)
			if err != nil {
				return err
			}
			if err := tx.SetGuestCurrentReservation(ctx, guest.ID, &r.ID); err != nil {
				return err
			}
			if err := tx.UpdateRoomStatus(ctx, room.ID, models.RoomOccupied); err != nil {
				return err
			}

			number, err := s.reconciler.NextInvoiceNumberFrom(ctx, tx, models.SequenceNormal, s.invoicing.CheckInBase)
			if err != nil {
				return err
			}
			inv := &models.Invoice{InvoiceNumber: number, Status: models.PaymentUnpaid, GuestID: &guest.ID}
			if err := tx.CreateInvoice(ctx, inv); err != nil {
				return numberTaken(err)
			}

			before := *r
			r.Status = models.ReservationCheckedIn
			r.RoomID = &room.ID
			r.GuestID = &guest.ID
			r.InvoiceID = &inv.ID
			if err := tx.UpdateReservation(ctx, r); err != nil {
				return err
			}
			if err := s.reconciler.AfterReservationUpdate(ctx, tx, &before, r); err != nil {
				return err
			}
			if err := s.reconciler.AfterInvoiceCreate(ctx, tx, inv); err != nil {
				return err
			}

			reloaded, err := tx.GetReservation(ctx, r.ID)
			if err != nil {
				return err
			}
			if reloaded.Guest == nil || reloaded.Room == nil || reloaded.ReservationItem == nil {
				return domain.Unprocessable("reservation %d is missing guest, room or rate product after check-in", r.ID)
			}

			previousInvoice = before.InvoiceID
			invoiceID = inv.ID
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	r, err := s.store.GetReservation(ctx, in.ReservationID)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Int64("reservation_id", r.ID).
		Int64("room_id", in.RoomID).
		Int64("invoice_id", invoiceID).
		Msg("guest checked in")

	s.events.reservation(events.EventReservationCheckedIn, r)
	if r.Invoice != nil {
		s.events.invoice(events.EventInvoiceCreated, r.Invoice)
	}
	s.events.recomputed(ctx, s.store, previousInvoice)
	return r, nil
}

// checkInGuest resolves the staying guest from an explicit id, inline details
// or the guest already on the reservation, and records personal details.
func (s *ReservationService) checkInGuest(ctx context.Context, tx domain.Store, r *models.Reservation, in domain.CheckInInput) (*models.Guest, error) {
	guestID := in.GuestID
	if guestID == nil && in.Guest == nil {
		if r.GuestID == nil {
			return nil, domain.Unprocessable("reservation %d has no guest", r.ID)
		}
		guestID = r.GuestID
	}

	guest, created, err := findOrCreateGuest(ctx, tx, guestID, in.Guest)
	if err != nil {
		return nil, err
	}
	if created || in.Guest == nil {
		return guest, nil
	}

	if in.Guest.Phone != "" {
		guest.Phone = in.Guest.Phone
	}
	if in.Guest.Details != nil {
		guest.PersonalDetails = models.NewPersonalDetails(*in.Guest.Details)
	}
	if err := tx.UpdateGuest(ctx, guest); err != nil {
		return nil, err
	}
	return guest, nil
}

// CheckOut closes the stay: the room is vacated and queued for housekeeping.
func (s *ReservationService) CheckOut(ctx context.Context, id int64) (*models.Reservation, error) {
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		r, err := tx.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		if !r.Active() {
			return domain.Unprocessable("reservation %d is %s, only checked-in reservations can check out", r.ID, r.Status)
		}

		before := *r
		r.Status = models.ReservationCheckedOut
		if err := tx.UpdateReservation(ctx, r); err != nil {
			return err
		}
		if err := s.reconciler.AfterReservationUpdate(ctx, tx, &before, r); err != nil {
			return err
		}
		if err := releaseStay(ctx, tx, r); err != nil {
			return err
		}

		if r.Room != nil {
			task := &models.Task{
				Title:       fmt.Sprintf("Clean room %s", r.Room.Number),
				Description: fmt.Sprintf("Guest checked out of reservation %d", r.ID),
				Status:      models.TaskOpen,
				Priority:    1,
				RoomID:      &r.Room.ID,
			}
			if err := tx.CreateTask(ctx, task); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("reservation_id", id).Msg("guest checked out")
	s.events.reservation(events.EventReservationCheckedOut, r)
	return r, nil
}

// releaseStay vacates the room and clears the guest's current reservation
// when it still points at r.
func releaseStay(ctx context.Context, tx domain.Store, r *models.Reservation) error {
	if r.GuestID != nil {
		guest, err := tx.GetGuest(ctx, *r.GuestID)
		if err != nil {
			return err
		}
		if guest.CurrentReservationID != nil && *guest.CurrentReservationID == r.ID {
			if err := tx.SetGuestCurrentReservation(ctx, guest.ID, nil); err != nil {
				return err
			}
		}
	}
	if r.RoomID != nil {
		if err := tx.UpdateRoomStatus(ctx, *r.RoomID, models.RoomVacant); err != nil {
			return err
		}
	}
	return nil
}

// CalculateSubTotal reprices the stay for the final bill and locks it in
// FINAL_BILL.
func (s *ReservationService) CalculateSubTotal(ctx context.Context, in domain.FinalBillInput) (*models.Reservation, error) {
	var invoiceID *int64
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		r, err := tx.GetReservation(ctx, in.ReservationID)
		if err != nil {
			return err
		}
		// only a stay in the house can be billed; FINAL_BILL may be rebilled
		if r.Status != models.ReservationCheckedIn && r.Status != models.ReservationFinalBill {
			return domain.Unprocessable("reservation %d is %s and has no stay to bill", r.ID, r.Status)
		}

		item := r.ReservationItem
		if item == nil {
			if item, err = tx.GetReservationItem(ctx, r.ReservationItemID); err != nil {
				return err
			}
		}

		checkIn, checkOut := r.CheckIn, r.CheckOut
		if in.CheckIn != nil {
			checkIn = *in.CheckIn
		}
		if in.CheckOut != nil {
			checkOut = *in.CheckOut
		}
		nights, subTotal, err := priceStay(item, checkIn, checkOut)
		if err != nil {
			return err
		}

		before := *r
		r.CheckIn = checkIn
		r.CheckOut = checkOut
		r.Nights = nights
		r.SubTotalUSD = subTotal
		r.Status = models.ReservationFinalBill
		if err := tx.UpdateReservation(ctx, r); err != nil {
			return err
		}
		invoiceID = r.InvoiceID
		return s.reconciler.AfterReservationUpdate(ctx, tx, &before, r)
	})
	if err != nil {
		return nil, err
	}

	r, err := s.store.GetReservation(ctx, in.ReservationID)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("reservation_id", r.ID).Int("nights", r.Nights).Str("sub_total", moneyString(r.SubTotalUSD)).Msg("final bill calculated")
	s.events.recomputed(ctx, s.store, invoiceID)
	return r, nil
}

func (s *ReservationService) UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus) (*models.Reservation, error) {
	if !status.Valid() {
		return nil, domain.Invalid("unknown payment status %q", status)
	}

	var invoiceID *int64
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		r, err := tx.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		before := *r
		r.PaymentStatus = status
		if err := tx.UpdateReservation(ctx, r); err != nil {
			return err
		}
		invoiceID = r.InvoiceID
		return s.reconciler.AfterReservationUpdate(ctx, tx, &before, r)
	})
	if err != nil {
		return nil, err
	}

	s.events.recomputed(ctx, s.store, invoiceID)
	return s.store.GetReservation(ctx, id)
}

// Cancel is allowed from CONFIRMED and CHECKED_IN. A checked-in guest is
// released from the room.
func (s *ReservationService) Cancel(ctx context.Context, id int64) (*models.Reservation, error) {
	var invoiceID *int64
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		r, err := tx.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		if r.Status != models.ReservationConfirmed && r.Status != models.ReservationCheckedIn {
			return domain.Unprocessable("reservation %d is %s and cannot be cancelled", r.ID, r.Status)
		}

		wasCheckedIn := r.Status == models.ReservationCheckedIn
		before := *r
		r.Status = models.ReservationCancelled
		r.PaymentStatus = models.PaymentCancelled
		if err := tx.UpdateReservation(ctx, r); err != nil {
			return err
		}
		if err := s.reconciler.AfterReservationUpdate(ctx, tx, &before, r); err != nil {
			return err
		}
		if wasCheckedIn {
			if err := releaseStay(ctx, tx, r); err != nil {
				return err
			}
		}
		invoiceID = r.InvoiceID
		return nil
	})
	if err != nil {
		return nil, err
	}

	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("reservation_id", id).Msg("reservation cancelled")
	s.events.reservation(events.EventReservationCancelled, r)
	s.events.recomputed(ctx, s.store, invoiceID)
	return r, nil
}

func (s *ReservationService) GetAll(ctx context.Context) ([]*models.Reservation, error) {
	return s.store.ListReservations(ctx, domain.ReservationFilter{})
}

func (s *ReservationService) GetByID(ctx context.Context, id int64) (*models.Reservation, error) {
	return s.store.GetReservation(ctx, id)
}

func (s *ReservationService) GetActiveReservations(ctx context.Context) ([]*models.Reservation, error) {
	return s.store.ListReservations(ctx, domain.ReservationFilter{
		Statuses: []models.ReservationStatus{models.ReservationCheckedIn, models.ReservationFinalBill},
	})
}

func (s *ReservationService) GetRoomReservations(ctx context.Context, roomID int64) ([]*models.Reservation, error) {
	if _, err := s.store.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	return s.store.ListReservations(ctx, domain.ReservationFilter{RoomID: &roomID, ExcludeCancelled: true})
}
