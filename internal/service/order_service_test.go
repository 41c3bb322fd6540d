package service

import (
	"context"
	"testing"
	"time"

	"hotelpos/internal/domain"
	"hotelpos/internal/events"
	"hotelpos/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderCreatePricing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.Reconciler.now = func() time.Time { return time.Date(2024, 6, 1, 21, 45, 0, 0, time.UTC) }

	hh := usd("3")
	cola := f.item(t, "Cola", "5", &hh, 10)
	nuts := f.item(t, "Nuts", "2.50", nil, 10)

	order, err := f.svc.Orders.Create(ctx, domain.CreateOrderInput{
		Lines:           []domain.OrderLineInput{{ItemID: cola.ID, Quantity: 2}, {ItemID: nuts.ID, Quantity: 1}},
		HappyHour:       true,
		DiscountPercent: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	// (2 x 3.00 + 1 x 2.50) less 10%
	assert.True(t, usd("7.65").Equal(order.SubTotalUSD), "got %s", order.SubTotalUSD)
	require.Len(t, order.Lines, 2)
	assert.True(t, usd("3").Equal(order.Lines[0].UnitPriceUSD))
	assert.True(t, usd("6").Equal(order.Lines[0].SubTotalUSD))
	assert.True(t, usd("2.5").Equal(order.Lines[1].UnitPriceUSD))
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), order.CreatedDate.UTC())
	assert.Nil(t, order.InvoiceID)
	assert.Contains(t, f.published(), events.EventOrderCreated)

	gotCola, err := f.svc.Catalog.GetItem(ctx, cola.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, gotCola.StockQuantity)

	regular, err := f.svc.Orders.Create(ctx, domain.CreateOrderInput{Lines: []domain.OrderLineInput{{ItemID: cola.ID, Quantity: 1}}})
	require.NoError(t, err)
	assert.True(t, usd("5").Equal(regular.SubTotalUSD))
}

func TestOrderCreateRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cola := f.item(t, "Cola", "5", nil, 1)

	_, err := f.svc.Orders.Create(ctx, domain.CreateOrderInput{})
	assert.ErrorIs(t, err, domain.ErrInvalid)

	_, err = f.svc.Orders.Create(ctx, domain.CreateOrderInput{Lines: []domain.OrderLineInput{{ItemID: cola.ID, Quantity: 0}}})
	assert.ErrorIs(t, err, domain.ErrInvalid)

	_, err = f.svc.Orders.Create(ctx, domain.CreateOrderInput{
		Lines:           []domain.OrderLineInput{{ItemID: cola.ID, Quantity: 1}},
		DiscountPercent: decimal.NewFromInt(101),
	})
	assert.ErrorIs(t, err, domain.ErrInvalid)

	_, err = f.svc.Orders.Create(ctx, domain.CreateOrderInput{Lines: []domain.OrderLineInput{{ItemID: 999, Quantity: 1}}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Orders.Create(ctx, domain.CreateOrderInput{Lines: []domain.OrderLineInput{{ItemID: cola.ID, Quantity: 2}}})
	assert.ErrorIs(t, err, domain.ErrUnprocessable)

	got, err := f.svc.Catalog.GetItem(ctx, cola.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.StockQuantity)

	orders, err := f.svc.Orders.List(ctx, domain.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderChargedToRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.rateProduct(t, "100")
	room := f.room(t, "101")
	cola := f.item(t, "Cola", "5", nil, 10)

	r := f.reservation(t, product, "ada@example.com")
	checkedIn, err := f.svc.Reservations.CheckIn(ctx, domain.CheckInInput{ReservationID: r.ID, RoomID: room.ID})
	require.NoError(t, err)
	invoiceID := *checkedIn.InvoiceID

	order, err := f.svc.Orders.Create(ctx, domain.CreateOrderInput{
		Lines:         []domain.OrderLineInput{{ItemID: cola.ID, Quantity: 3}},
		ReservationID: &r.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, order.InvoiceID)
	assert.Equal(t, invoiceID, *order.InvoiceID)
	assert.Equal(t, *checkedIn.GuestID, *order.GuestID)

	inv := f.assertReconciled(t, invoiceID)
	assert.True(t, usd("315").Equal(inv.TotalUSD))

	paid, err := f.svc.Orders.UpdateStatus(ctx, order.ID, models.PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, paid.Status)
	inv = f.assertReconciled(t, invoiceID)
	assert.True(t, usd("300").Equal(inv.RemainingBalanceUSD))

	cancelled, err := f.svc.Orders.UpdateStatus(ctx, order.ID, models.PaymentCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCancelled, cancelled.Status)
	inv = f.assertReconciled(t, invoiceID)
	assert.True(t, usd("300").Equal(inv.TotalUSD))

	// stock comes back on cancellation
	got, err := f.svc.Catalog.GetItem(ctx, cola.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.StockQuantity)

	_, err = f.svc.Orders.UpdateStatus(ctx, order.ID, models.PaymentPaid)
	assert.ErrorIs(t, err, domain.ErrUnprocessable)

	_, err = f.svc.Orders.Create(ctx, domain.CreateOrderInput{
		Lines:         []domain.OrderLineInput{{ItemID: cola.ID, Quantity: 1}},
		ReservationID: ptr(int64(999)),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrderChargedToRoomNeedsGuestInHouse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.rateProduct(t, "100")
	room := f.room(t, "101")
	cola := f.item(t, "Cola", "5", nil, 10)
	lines := []domain.OrderLineInput{{ItemID: cola.ID, Quantity: 1}}

	confirmed := f.reservation(t, product, "early@example.com")
	_, err := f.svc.Orders.Create(ctx, domain.CreateOrderInput{Lines: lines, ReservationID: &confirmed.ID})
	assert.ErrorIs(t, err, domain.ErrUnprocessable)

	r := f.reservation(t, product, "ada@example.com")
	checkedIn, err := f.svc.Reservations.CheckIn(ctx, domain.CheckInInput{ReservationID: r.ID, RoomID: room.ID})
	require.NoError(t, err)
	_, err = f.svc.Reservations.CheckOut(ctx, r.ID)
	require.NoError(t, err)

	_, err = f.svc.Orders.Create(ctx, domain.CreateOrderInput{Lines: lines, ReservationID: &r.ID})
	assert.ErrorIs(t, err, domain.ErrUnprocessable)

	cancelled := f.reservation(t, product, "gone@example.com")
	_, err = f.svc.Reservations.Cancel(ctx, cancelled.ID)
	require.NoError(t, err)
	_, err = f.svc.Orders.Create(ctx, domain.CreateOrderInput{Lines: lines, ReservationID: &cancelled.ID})
	assert.ErrorIs(t, err, domain.ErrUnprocessable)

	// an explicit invoice still takes late charges
	order, err := f.svc.Orders.Create(ctx, domain.CreateOrderInput{Lines: lines, ReservationID: &r.ID, InvoiceID: checkedIn.InvoiceID})
	require.NoError(t, err)
	assert.Equal(t, *checkedIn.InvoiceID, *order.InvoiceID)

	got, err := f.svc.Catalog.GetItem(ctx, cola.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, got.StockQuantity)
}

func TestOrderListByDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cola := f.item(t, "Cola", "5", nil, 10)

	for _, ts := range []time.Time{
		time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC),
	} {
		ts := ts
		f.svc.Reconciler.now = func() time.Time { return ts }
		_, err := f.svc.Orders.Create(ctx, domain.CreateOrderInput{Lines: []domain.OrderLineInput{{ItemID: cola.ID, Quantity: 1}}})
		require.NoError(t, err)
	}

	first, err := f.svc.Orders.List(ctx, domain.OrderFilter{From: day(2024, 6, 1), To: day(2024, 6, 2)})
	require.NoError(t, err)
	assert.Len(t, first, 2)

	all, err := f.svc.Orders.List(ctx, domain.OrderFilter{From: day(2024, 6, 1)})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.svc.Orders.List(ctx, domain.OrderFilter{From: day(2024, 6, 2), To: day(2024, 6, 1)})
	assert.ErrorIs(t, err, domain.ErrInvalid)

	got, err := f.svc.Orders.GetByID(ctx, first[0].ID)
	require.NoError(t, err)
	assert.Len(t, got.Lines, 1)
}
