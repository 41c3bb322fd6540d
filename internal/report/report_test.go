package report

import (
	"context"
	"os"
	"testing"
	"time"

	"hotelpos/internal/domain"
	"hotelpos/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeOrders struct {
	orders []*models.Order
	got    domain.OrderFilter
}

func (f *fakeOrders) List(_ context.Context, filter domain.OrderFilter) ([]*models.Order, error) {
	f.got = filter
	return f.orders, nil
}

type fakeInvoices struct {
	inv *models.Invoice
}

func (f *fakeInvoices) GetByID(_ context.Context, id int64) (*models.Invoice, error) {
	if f.inv == nil || f.inv.ID != id {
		return nil, domain.NotFound("invoice %d not found", id)
	}
	return f.inv, nil
}

func usd(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func raw(t *testing.T, f *excelize.File, sheet, c string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, c, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return v
}

func TestOrdersReport(t *testing.T) {
	d1 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	invoiceID := int64(7)
	orders := &fakeOrders{orders: []*models.Order{
		{ID: 1, CreatedDate: d1, SubTotalUSD: usd("7.65"), Status: models.PaymentUnpaid, HappyHour: true, DiscountPercent: usd("10"),
			Lines: []models.ItemOrder{{ItemName: "Cola", Quantity: 2}, {ItemName: "Nuts", Quantity: 1}}},
		{ID: 2, CreatedDate: d1, SubTotalUSD: usd("5"), Status: models.PaymentCancelled, InvoiceID: &invoiceID},
		{ID: 3, CreatedDate: d2, SubTotalUSD: usd("12.5"), Status: models.PaymentPaid},
	}}
	e := NewExporter(orders, nil, time.UTC, t.TempDir(), nil)

	f, err := e.Orders(context.Background(), d1, d2.AddDate(0, 0, 1))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, d1, orders.got.From)
	assert.Equal(t, []string{ordersSheet, dailySheet}, f.GetSheetList())
	assert.Equal(t, "Orders 2024-06-01 to 2024-06-02", raw(t, f, ordersSheet, "A1"))
	assert.Equal(t, "Sub-total USD", raw(t, f, ordersSheet, "F2"))
	assert.Equal(t, "2024-06-01", raw(t, f, ordersSheet, "A3"))
	assert.Equal(t, "2 x Cola, 1 x Nuts", raw(t, f, ordersSheet, "C3"))
	assert.Equal(t, "yes", raw(t, f, ordersSheet, "D3"))
	assert.Equal(t, "7.65", raw(t, f, ordersSheet, "F3"))
	assert.Equal(t, "CANCELLED", raw(t, f, ordersSheet, "G4"))
	assert.Equal(t, "7", raw(t, f, ordersSheet, "H4"))

	// cancelled orders count but do not sell
	assert.Equal(t, "2024-06-01", raw(t, f, dailySheet, "A2"))
	assert.Equal(t, "2", raw(t, f, dailySheet, "B2"))
	assert.Equal(t, "7.65", raw(t, f, dailySheet, "C2"))
	assert.Equal(t, "2024-06-02", raw(t, f, dailySheet, "A3"))
	assert.Equal(t, "12.5", raw(t, f, dailySheet, "C3"))
}

func TestOrdersReportSingleDay(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	orders := &fakeOrders{}
	e := NewExporter(orders, nil, loc, t.TempDir(), nil)

	f, err := e.Orders(context.Background(), time.Date(2024, 6, 1, 22, 0, 0, 0, time.UTC), time.Time{})
	require.NoError(t, err)
	defer f.Close()

	// 22:00 UTC is already the 2nd in the hotel zone
	assert.Equal(t, time.Date(2024, 6, 2, 0, 0, 0, 0, loc), orders.got.From)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, loc), orders.got.To)
	assert.Equal(t, "Orders 2024-06-02 to 2024-06-02", raw(t, f, ordersSheet, "A1"))
}

func TestStatement(t *testing.T) {
	guestID := int64(3)
	inv := &models.Invoice{
		ID: 5, InvoiceNumber: "001220", Status: models.PaymentUnpaid, GuestID: &guestID,
		TotalUSD: usd("305"), RemainingBalanceUSD: usd("5"),
		Guest: &models.Guest{FirstName: "Ada", LastName: "Lovelace"},
		Items: []models.InvoiceItem{
			{Kind: models.InvoiceItemReservation, Description: "Double, 3 nights", AmountUSD: usd("300"), Status: models.PaymentPaid},
			{Kind: models.InvoiceItemOrder, Description: "Order #1", AmountUSD: usd("5"), Status: models.PaymentUnpaid},
		},
	}
	dir := t.TempDir()
	e := NewExporter(nil, &fakeInvoices{inv: inv}, nil, dir, nil)

	f, err := e.Statement(context.Background(), 5)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{statementSheet}, f.GetSheetList())
	assert.Equal(t, "Invoice 001220", raw(t, f, statementSheet, "A1"))
	assert.Equal(t, "Ada Lovelace", raw(t, f, statementSheet, "B2"))
	assert.Equal(t, "RESERVATION", raw(t, f, statementSheet, "A6"))
	assert.Equal(t, "300", raw(t, f, statementSheet, "D6"))
	assert.Equal(t, "Order #1", raw(t, f, statementSheet, "B7"))
	assert.Equal(t, "Total", raw(t, f, statementSheet, "C9"))
	assert.Equal(t, "305", raw(t, f, statementSheet, "D9"))
	assert.Equal(t, "5", raw(t, f, statementSheet, "D10"))

	_, err = e.Statement(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	path, err := e.SaveStatement(context.Background(), 5)
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSaveOrders(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(&fakeOrders{}, nil, time.UTC, dir, nil)

	path, err := e.SaveOrders(context.Background(), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	require.NoError(t, err)
	assert.Contains(t, path, "orders_2024-06-01.xlsx")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "Date", raw(t, f, ordersSheet, "A2"))
}
