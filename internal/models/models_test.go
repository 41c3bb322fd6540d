package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNights(t *testing.T) {
	in := time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC)
	out := time.Date(2024, 1, 4, 11, 0, 0, 0, time.UTC)
	assert.Equal(t, 3, Nights(in, out))
	assert.Equal(t, 0, Nights(in, in))
	assert.Equal(t, -3, Nights(out, in))

	// across a month boundary
	assert.Equal(t, 2, Nights(time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	ts := time.Date(2024, 5, 10, 22, 30, 0, 0, time.UTC) // 01:30 next day in UTC+3

	got := StartOfDay(ts, loc)
	assert.Equal(t, 11, got.Day())
	assert.Equal(t, 0, got.Hour())

	assert.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), StartOfDay(ts, nil))
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "10.13", Money(decimal.RequireFromString("10.125")).String())
	assert.Equal(t, "0.3", Money(decimal.NewFromFloat(0.1).Add(decimal.NewFromFloat(0.2))).String())
}

func TestUnitPrice(t *testing.T) {
	hh := decimal.NewFromInt(3)
	item := Item{PriceUSD: decimal.NewFromInt(5), HappyHourPriceUSD: &hh}
	assert.True(t, item.UnitPrice(true).Equal(hh))
	assert.True(t, item.UnitPrice(false).Equal(decimal.NewFromInt(5)))

	plain := Item{PriceUSD: decimal.NewFromInt(5)}
	assert.True(t, plain.UnitPrice(true).Equal(decimal.NewFromInt(5)))
}

func TestStatusValidation(t *testing.T) {
	assert.True(t, PaymentUnpaid.Valid())
	assert.False(t, PaymentStatus("REFUNDED").Valid())
	assert.True(t, RoomMaintenance.Valid())
	assert.False(t, RoomStatus("DIRTY").Valid())
	assert.True(t, GuestStaff.Valid())
	assert.False(t, TaskStatus("LATE").Valid())
	assert.Equal(t, "a@b.com", NormalizeEmail("  A@B.com "))
}

func TestReservationActive(t *testing.T) {
	assert.True(t, (&Reservation{Status: ReservationCheckedIn}).Active())
	assert.True(t, (&Reservation{Status: ReservationFinalBill}).Active())
	assert.False(t, (&Reservation{Status: ReservationConfirmed}).Active())
}
