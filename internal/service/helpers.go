package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"hotelpos/internal/domain"
	"hotelpos/internal/events"
	"hotelpos/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func validateGuestInput(in *domain.GuestInput) error {
	if in == nil {
		return domain.Invalid("guest id or guest details are required")
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return domain.Invalid("guest first and last name are required")
	}
	email := models.NormalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.Invalid("guest email %q is not valid", in.Email)
	}
	if in.Type != "" && !in.Type.Valid() {
		return domain.Invalid("unknown guest type %q", in.Type)
	}
	return nil
}

func newGuest(in *domain.GuestInput) *models.Guest {
	g := &models.Guest{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     models.NormalizeEmail(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Type:      in.Type,
	}
	if in.Details != nil {
		g.PersonalDetails = models.NewPersonalDetails(*in.Details)
	}
	return g
}

// findOrCreateGuest resolves an explicit guest id, or looks the guest up by
// email and creates it when unknown.
func findOrCreateGuest(ctx context.Context, tx domain.Store, guestID *int64, in *domain.GuestInput) (*models.Guest, bool, error) {
	if guestID != nil {
		g, err := tx.GetGuest(ctx, *guestID)
		return g, false, err
	}
	if err := validateGuestInput(in); err != nil {
		return nil, false, err
	}

	g, err := tx.GetGuestByEmail(ctx, in.Email)
	if err == nil {
		return g, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	g = newGuest(in)
	if err := tx.CreateGuest(ctx, g); err != nil {
		return nil, false, err
	}
	return g, true, nil
}

// priceStay returns nights and sub-total for a stay on the rate product.
func priceStay(item *models.ReservationItem, checkIn, checkOut time.Time) (int, decimal.Decimal, error) {
	if checkIn.IsZero() || checkOut.IsZero() {
		return 0, decimal.Zero, domain.Invalid("check-in and check-out dates are required")
	}
	nights := models.Nights(checkIn, checkOut)
	if nights < 1 {
		return 0, decimal.Zero, domain.Invalid("check-out %s must be after check-in %s",
			checkOut.Format("2006-01-02"), checkIn.Format("2006-01-02"))
	}
	return nights, models.Money(item.DailyRateUSD.Mul(decimal.NewFromInt(int64(nights)))), nil
}

func moneyString(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// publisher wraps the optional event bus with logging.
type publisher struct {
	bus    domain.EventPublisher
	logger *zerolog.Logger
}

func (p publisher) publish(eventType string, payload interface{}) {
	if p.bus == nil {
		return
	}
	if err := p.bus.PublishJSON(eventType, payload); err != nil {
		p.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}

func (p publisher) reservation(eventType string, r *models.Reservation) {
	p.publish(eventType, events.ReservationEventPayload{
		ReservationID: r.ID,
		Status:        string(r.Status),
		RoomID:        r.RoomID,
		GuestID:       r.GuestID,
		InvoiceID:     r.InvoiceID,
		SubTotalUSD:   moneyString(r.SubTotalUSD),
		CheckIn:       r.CheckIn,
		CheckOut:      r.CheckOut,
	})
}

func (p publisher) invoice(eventType string, inv *models.Invoice) {
	p.publish(eventType, events.InvoiceEventPayload{
		InvoiceID:           inv.ID,
		InvoiceNumber:       inv.InvoiceNumber,
		Status:              string(inv.Status),
		TotalUSD:            moneyString(inv.TotalUSD),
		RemainingBalanceUSD: moneyString(inv.RemainingBalanceUSD),
		GuestID:             inv.GuestID,
	})
}

func (p publisher) order(eventType string, o *models.Order) {
	p.publish(eventType, events.OrderEventPayload{
		OrderID:     o.ID,
		Status:      string(o.Status),
		SubTotalUSD: moneyString(o.SubTotalUSD),
		Lines:       len(o.Lines),
		InvoiceID:   o.InvoiceID,
	})
}

// recomputed announces the current totals of each touched invoice once the
// transaction that changed them has committed.
func (p publisher) recomputed(ctx context.Context, store domain.Store, ids ...*int64) {
	if p.bus == nil {
		return
	}
	for _, id := range distinctIDs(ids...) {
		inv, err := store.GetInvoice(ctx, id)
		if err != nil {
			p.logger.Warn().Err(err).Int64("invoice_id", id).Msg("reload invoice for event")
			continue
		}
		p.invoice(events.EventInvoiceRecomputed, inv)
	}
}

func nopLogger(logger *zerolog.Logger) *zerolog.Logger {
	if logger != nil {
		return logger
	}
	nop := zerolog.Nop()
	return &nop
}
