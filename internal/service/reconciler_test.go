package service

import (
	"context"
	"testing"
	"time"

	"hotelpos/internal/config"
	"hotelpos/internal/domain"
	"hotelpos/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcilerMovesReservationBetweenInvoices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.rateProduct(t, "100")

	a, err := f.svc.Invoices.Create(ctx, domain.CreateInvoiceInput{
		Guest:        guestInput("a@example.com"),
		Reservations: []domain.ReservationSpec{{ReservationItemID: product.ID, CheckIn: day(2024, 1, 1), CheckOut: day(2024, 1, 3)}},
	})
	require.NoError(t, err)
	b, err := f.svc.Invoices.Create(ctx, domain.CreateInvoiceInput{GuestID: a.GuestID})
	require.NoError(t, err)

	moved := a.Reservations[0].ID
	err = f.db.InTx(ctx, func(tx domain.Store) error {
		r, err := tx.GetReservation(ctx, moved)
		if err != nil {
			return err
		}
		before := *r
		r.InvoiceID = &b.ID
		if err := tx.UpdateReservation(ctx, r); err != nil {
			return err
		}
		return f.svc.Reconciler.AfterReservationUpdate(ctx, tx, &before, r)
	})
	require.NoError(t, err)

	gotA := f.assertReconciled(t, a.ID)
	gotB := f.assertReconciled(t, b.ID)
	assert.True(t, gotA.TotalUSD.IsZero())
	assert.True(t, usd("200").Equal(gotB.TotalUSD))
}

func TestReconcilerUnchangedUpdateSkipsRecompute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.rateProduct(t, "100")

	inv, err := f.svc.Invoices.Create(ctx, domain.CreateInvoiceInput{
		Guest:        guestInput("a@example.com"),
		Reservations: []domain.ReservationSpec{{ReservationItemID: product.ID, CheckIn: day(2024, 1, 1), CheckOut: day(2024, 1, 3)}},
	})
	require.NoError(t, err)
	require.NoError(t, f.db.SaveInvoiceTotals(ctx, inv.ID, domain.InvoiceTotals{TotalUSD: usd("1"), RemainingBalanceUSD: usd("1")}))

	r := inv.Reservations[0]
	after := r
	after.Notes = "late arrival"
	err = f.db.InTx(ctx, func(tx domain.Store) error {
		return f.svc.Reconciler.AfterReservationUpdate(ctx, tx, &r, &after)
	})
	require.NoError(t, err)

	got, err := f.db.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, usd("1").Equal(got.TotalUSD), "notes-only change must not recompute")
}

func TestReconcilerAfterOrderUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cola := f.item(t, "Cola", "4", nil, 10)

	inv, err := f.svc.Invoices.Create(ctx, domain.CreateInvoiceInput{Guest: guestInput("bar@example.com")})
	require.NoError(t, err)
	order, err := f.svc.Orders.Create(ctx, domain.CreateOrderInput{
		Lines:     []domain.OrderLineInput{{ItemID: cola.ID, Quantity: 2}},
		InvoiceID: &inv.ID,
	})
	require.NoError(t, err)
	got := f.assertReconciled(t, inv.ID)
	assert.True(t, usd("8").Equal(got.TotalUSD))

	require.NoError(t, f.db.SaveInvoiceTotals(ctx, inv.ID, domain.InvoiceTotals{TotalUSD: usd("1"), RemainingBalanceUSD: usd("1")}))

	// same status and amount: stored totals are left alone
	before := *order
	err = f.db.InTx(ctx, func(tx domain.Store) error {
		return f.svc.Reconciler.AfterOrderUpdate(ctx, tx, &before, order)
	})
	require.NoError(t, err)
	got, err = f.db.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, usd("1").Equal(got.TotalUSD))

	// a status change recomputes from what is stored
	after := *order
	after.Status = models.PaymentPaid
	err = f.db.InTx(ctx, func(tx domain.Store) error {
		return f.svc.Reconciler.AfterOrderUpdate(ctx, tx, &before, &after)
	})
	require.NoError(t, err)
	f.assertReconciled(t, inv.ID)
}

func TestReconcilerBeforeOrderCreateUsesHotelZone(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	rec := NewReconciler(config.InvoicingConfig{NumberWidth: 6}, loc, nil)
	rec.now = func() time.Time { return time.Date(2024, 6, 2, 3, 0, 0, 0, time.UTC) } // 22:00 on the 1st locally

	order := &models.Order{}
	rec.BeforeOrderCreate(order)

	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, loc), order.CreatedDate)
	assert.Equal(t, loc, rec.Location())
}

func TestReconcilerBreakdown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.rateProduct(t, "120")
	cola := f.item(t, "Cola", "5", nil, 10)

	inv, err := f.svc.Invoices.Create(ctx, domain.CreateInvoiceInput{
		Guest:        guestInput("a@example.com"),
		Reservations: []domain.ReservationSpec{{ReservationItemID: product.ID, CheckIn: day(2024, 1, 1), CheckOut: day(2024, 1, 2)}},
	})
	require.NoError(t, err)
	_, err = f.svc.Orders.Create(ctx, domain.CreateOrderInput{Lines: []domain.OrderLineInput{{ItemID: cola.ID, Quantity: 1}}, InvoiceID: &inv.ID})
	require.NoError(t, err)

	got, err := f.svc.Invoices.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)

	assert.Equal(t, models.InvoiceItemReservation, got.Items[0].Kind)
	assert.Equal(t, "Double, bed and breakfast, 2024-01-01 to 2024-01-02 (1 nights)", got.Items[0].Description)
	assert.True(t, usd("120").Equal(got.Items[0].AmountUSD))
	assert.Equal(t, models.InvoiceItemOrder, got.Items[1].Kind)
	assert.True(t, usd("5").Equal(got.Items[1].AmountUSD))
	assert.Equal(t, models.PaymentUnpaid, got.Items[1].Status)
}

func TestNumberTakenRetry(t *testing.T) {
	rec := NewReconciler(config.InvoicingConfig{AllocationRetries: 3}, nil, nil)
	ctx := context.Background()

	calls := 0
	err := rec.WithNumberRetry(ctx, func() error {
		calls++
		if calls < 3 {
			return numberTaken(domain.Conflict("invoice already exists"))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = rec.WithNumberRetry(ctx, func() error {
		calls++
		return domain.Conflict("guest already exists")
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 1, calls)

	calls = 0
	err = rec.WithNumberRetry(ctx, func() error {
		calls++
		return numberTaken(domain.Conflict("invoice already exists"))
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	assert.Equal(t, 3, calls)

	assert.NoError(t, numberTaken(nil))
	assert.False(t, isNumberTaken(numberTaken(domain.NotFound("x"))))
}

func TestDistinctIDs(t *testing.T) {
	one, two := int64(1), int64(2)
	assert.Equal(t, []int64{1, 2}, distinctIDs(&one, nil, &two, &one))
	assert.Empty(t, distinctIDs(nil, nil))
	assert.True(t, sameRef(nil, nil))
	assert.False(t, sameRef(&one, nil))
	assert.True(t, sameRef(&one, ptr(int64(1))))
}

func TestPriceStay(t *testing.T) {
	item := &models.ReservationItem{DailyRateUSD: decimal.RequireFromString("100")}
	nights, sub, err := priceStay(item, day(2024, 1, 1), day(2024, 1, 4))
	require.NoError(t, err)
	assert.Equal(t, 3, nights)
	assert.Equal(t, "300", sub.String())

	_, _, err = priceStay(item, day(2024, 1, 4), day(2024, 1, 1))
	assert.ErrorIs(t, err, domain.ErrInvalid)
	_, _, err = priceStay(item, time.Time{}, day(2024, 1, 1))
	assert.ErrorIs(t, err, domain.ErrInvalid)
}
