package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotelpos/internal/config"
	"hotelpos/internal/domain"
	"hotelpos/internal/metrics"
	"hotelpos/internal/models"
	"hotelpos/internal/worker"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Reconciler keeps invoice totals consistent with the reservations and
// orders linked to them. Every hook takes the transaction of the write that
// triggered it; a failing hook aborts that write.
type Reconciler struct {
	cfg    config.InvoicingConfig
	loc    *time.Location
	retry  worker.RetryPolicy
	now    func() time.Time
	logger zerolog.Logger
}

func NewReconciler(cfg config.InvoicingConfig, loc *time.Location, logger *zerolog.Logger) *Reconciler {
	if loc == nil {
		loc = time.UTC
	}
	r := &Reconciler{
		cfg: cfg,
		loc: loc,
		retry: worker.RetryPolicy{
			MaxRetries:    cfg.AllocationRetries,
			InitialDelay:  25 * time.Millisecond,
			MaxDelay:      500 * time.Millisecond,
			BackoffFactor: 2,
		},
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	if logger != nil {
		r.logger = logger.With().Str("component", "reconciler").Logger()
	}
	return r
}

// Location is the hotel time zone used for business dates.
func (r *Reconciler) Location() *time.Location { return r.loc }

func (r *Reconciler) AfterReservationCreate(ctx context.Context, tx domain.Store, res *models.Reservation) error {
	return r.recomputeAll(ctx, tx, res.InvoiceID)
}

// AfterReservationUpdate recomputes the previous invoice when the payment
// status or sub-total moved, and both invoices when the link itself moved.
func (r *Reconciler) AfterReservationUpdate(ctx context.Context, tx domain.Store, before, after *models.Reservation) error {
	if !sameRef(before.InvoiceID, after.InvoiceID) {
		return r.recomputeAll(ctx, tx, before.InvoiceID, after.InvoiceID)
	}
	if before.PaymentStatus != after.PaymentStatus || !before.SubTotalUSD.Equal(after.SubTotalUSD) {
		return r.recomputeAll(ctx, tx, before.InvoiceID)
	}
	return nil
}

// BeforeOrderCreate stamps the business day the order is reported under.
func (r *Reconciler) BeforeOrderCreate(order *models.Order) {
	order.CreatedDate = models.StartOfDay(r.now(), r.loc)
}

func (r *Reconciler) AfterOrderCreate(ctx context.Context, tx domain.Store, order *models.Order) error {
	return r.recomputeAll(ctx, tx, order.InvoiceID)
}

func (r *Reconciler) AfterOrderUpdate(ctx context.Context, tx domain.Store, before, after *models.Order) error {
	if !sameRef(before.InvoiceID, after.InvoiceID) {
		return r.recomputeAll(ctx, tx, before.InvoiceID, after.InvoiceID)
	}
	if before.Status != after.Status || !before.SubTotalUSD.Equal(after.SubTotalUSD) {
		return r.recomputeAll(ctx, tx, before.InvoiceID)
	}
	return nil
}

func (r *Reconciler) AfterInvoiceCreate(ctx context.Context, tx domain.Store, inv *models.Invoice) error {
	_, err := r.RecomputeInvoiceTotals(ctx, tx, inv.ID)
	return err
}

// AfterInvoiceUpdate renumbers an invoice from the cancelled sequence when it
// transitions to CANCELLED. The new number is written onto after.
func (r *Reconciler) AfterInvoiceUpdate(ctx context.Context, tx domain.Store, before, after *models.Invoice) error {
	if after.Status != models.PaymentCancelled || before.Status == models.PaymentCancelled {
		return nil
	}

	number, err := r.NextInvoiceNumber(ctx, tx, models.SequenceCancelled)
	if err != nil {
		return err
	}
	if err := tx.UpdateInvoiceStatus(ctx, after.ID, models.PaymentCancelled, number); err != nil {
		return numberTaken(err)
	}
	after.InvoiceNumber = number

	r.logger.Info().
		Int64("invoice_id", after.ID).
		Str("previous_number", before.InvoiceNumber).
		Str("number", number).
		Msg("invoice cancelled and renumbered")
	return nil
}

// RecomputeInvoiceTotals aggregates the invoice's constituents and persists
// the total, the remaining balance and the printable breakdown.
func (r *Reconciler) RecomputeInvoiceTotals(ctx context.Context, tx domain.Store, invoiceID int64) (domain.InvoiceTotals, error) {
	totals, err := r.recompute(ctx, tx, invoiceID)
	metrics.IncRecompute(err == nil)
	if err != nil {
		r.logger.Error().Err(err).Int64("invoice_id", invoiceID).Msg("recompute failed")
		var de *domain.Error
		if errors.As(err, &de) {
			return totals, err
		}
		return totals, domain.Internal(err, "failed to recompute invoice %d", invoiceID)
	}
	return totals, nil
}

func (r *Reconciler) recompute(ctx context.Context, tx domain.Store, invoiceID int64) (domain.InvoiceTotals, error) {
	unpaid := domain.SubTotalFilter{InvoiceID: invoiceID, Status: models.PaymentUnpaid}
	remaining, err := r.aggregate(ctx, tx, unpaid, "remaining balance")
	if err != nil {
		return domain.InvoiceTotals{}, err
	}

	live := domain.SubTotalFilter{InvoiceID: invoiceID, Status: models.PaymentCancelled, Exclude: true}
	total, err := r.aggregate(ctx, tx, live, "total")
	if err != nil {
		return domain.InvoiceTotals{}, err
	}

	items, err := r.breakdown(ctx, tx, invoiceID)
	if err != nil {
		return domain.InvoiceTotals{}, err
	}

	totals := domain.InvoiceTotals{
		TotalUSD:            models.Money(total),
		RemainingBalanceUSD: models.Money(remaining),
		Items:               items,
		ReconciledAt:        r.now().UTC(),
	}
	if err := tx.SaveInvoiceTotals(ctx, invoiceID, totals); err != nil {
		return domain.InvoiceTotals{}, err
	}

	r.logger.Debug().
		Int64("invoice_id", invoiceID).
		Str("total", totals.TotalUSD.StringFixed(2)).
		Str("remaining", totals.RemainingBalanceUSD.StringFixed(2)).
		Msg("invoice reconciled")
	return totals, nil
}

// aggregate sums reservation and order sub-totals matching f. With no
// matching rows on either side the sum is absent, which is either rejected
// or counted as zero depending on configuration.
func (r *Reconciler) aggregate(ctx context.Context, tx domain.Store, f domain.SubTotalFilter, what string) (decimal.Decimal, error) {
	reservations, err := tx.SumReservationSubTotals(ctx, f)
	if err != nil {
		return decimal.Zero, err
	}
	orders, err := tx.SumOrderSubTotals(ctx, f)
	if err != nil {
		return decimal.Zero, err
	}

	if !reservations.Valid && !orders.Valid {
		if r.cfg.RejectEmptyAggregates {
			return decimal.Zero, domain.Internal(nil, "no reservations or orders to aggregate %s of invoice %d", what, f.InvoiceID)
		}
		r.logger.Warn().Int64("invoice_id", f.InvoiceID).Str("aggregate", what).Msg("no constituents, treating as zero")
	}

	sum := decimal.Zero
	if reservations.Valid {
		sum = sum.Add(reservations.Decimal)
	}
	if orders.Valid {
		sum = sum.Add(orders.Decimal)
	}
	return sum, nil
}

func (r *Reconciler) breakdown(ctx context.Context, tx domain.Store, invoiceID int64) ([]models.InvoiceItem, error) {
	reservations, err := tx.ListReservations(ctx, domain.ReservationFilter{InvoiceID: &invoiceID})
	if err != nil {
		return nil, err
	}
	orders, err := tx.ListOrders(ctx, domain.OrderFilter{InvoiceID: &invoiceID})
	if err != nil {
		return nil, err
	}

	items := make([]models.InvoiceItem, 0, len(reservations)+len(orders))
	for _, res := range reservations {
		items = append(items, models.InvoiceItem{
			Kind:        models.InvoiceItemReservation,
			SourceID:    res.ID,
			Description: describeReservation(res),
			AmountUSD:   res.SubTotalUSD,
			Status:      res.PaymentStatus,
		})
	}
	for _, o := range orders {
		items = append(items, models.InvoiceItem{
			Kind:        models.InvoiceItemOrder,
			SourceID:    o.ID,
			Description: fmt.Sprintf("Order #%d, %s (%d lines)", o.ID, o.CreatedDate.In(r.loc).Format("2006-01-02"), len(o.Lines)),
			AmountUSD:   o.SubTotalUSD,
			Status:      o.Status,
		})
	}
	return items, nil
}

func describeReservation(res *models.Reservation) string {
	desc := fmt.Sprintf("Reservation #%d", res.ID)
	if res.ReservationItem != nil {
		desc = res.ReservationItem.Description
	}
	if res.Room != nil {
		desc += ", room " + res.Room.Number
	}
	return fmt.Sprintf("%s, %s to %s (%d nights)", desc, res.CheckIn.Format("2006-01-02"), res.CheckOut.Format("2006-01-02"), res.Nights)
}

// recomputeAll recomputes each distinct non-nil invoice once.
func (r *Reconciler) recomputeAll(ctx context.Context, tx domain.Store, ids ...*int64) error {
	for _, id := range distinctIDs(ids...) {
		if _, err := r.RecomputeInvoiceTotals(ctx, tx, id); err != nil {
			return err
		}
	}
	return nil
}

// NextInvoiceNumber draws a number from sequence. The normal sequence is
// shared by manual and check-in invoices; use NextInvoiceNumberFrom for a
// path-specific floor.
func (r *Reconciler) NextInvoiceNumber(ctx context.Context, tx domain.Store, sequence string) (string, error) {
	floor := r.cfg.NormalBase
	if sequence == models.SequenceCancelled {
		floor = r.cfg.CancelledBase
	}
	return r.NextInvoiceNumberFrom(ctx, tx, sequence, floor)
}

func (r *Reconciler) NextInvoiceNumberFrom(ctx context.Context, tx domain.Store, sequence string, floor int) (string, error) {
	number, err := tx.AllocateInvoiceNumber(ctx, sequence, int64(floor), r.cfg.NumberWidth)
	if err != nil {
		return "", err
	}
	metrics.IncInvoiceNumber(sequence)
	return number, nil
}

// WithNumberRetry reruns fn when it failed because an invoice number was
// taken by a concurrent writer. fn must run its own transaction.
func (r *Reconciler) WithNumberRetry(ctx context.Context, fn func() error) error {
	return r.retry.Do(ctx, isNumberTaken, fn)
}

// numberTakenError marks a unique violation on the invoice number.
type numberTakenError struct{ err error }

func (e *numberTakenError) Error() string { return e.err.Error() }
func (e *numberTakenError) Unwrap() error { return e.err }

func numberTaken(err error) error {
	if err == nil || !errors.Is(err, domain.ErrConflict) {
		return err
	}
	return &numberTakenError{err: err}
}

func isNumberTaken(err error) bool {
	var nt *numberTakenError
	return errors.As(err, &nt)
}

func sameRef(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func distinctIDs(ids ...*int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if id == nil || seen[*id] {
			continue
		}
		seen[*id] = true
		out = append(out, *id)
	}
	return out
}
