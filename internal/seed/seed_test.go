package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"hotelpos/internal/config"
	"hotelpos/internal/database"
	"hotelpos/internal/models"
	"hotelpos/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
rooms:
  - number: "101"
    type: DOUBLE
    capacity: 2
    floor: 1
  - number: "102"
    type: SINGLE
    status: MAINTENANCE
rate_products:
  - description: Double, bed and breakfast
    room_type: DOUBLE
    board_type: BED_AND_BREAKFAST
    daily_rate_usd: "120.00"
items:
  - name: Mojito
    category: BAR
    price_usd: "8.50"
    happy_hour_price_usd: "6"
    stock: 40
    ingredients:
      - name: Rum
        quantity: "0.05"
        unit: l
  - name: Old stock
    price_usd: "1"
    active: false
`

func newServices(t *testing.T) *service.Services {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{Invoicing: config.InvoicingConfig{NormalBase: 1220, CancelledBase: 9000, CheckInBase: 2000, NumberWidth: 6, AllocationRetries: 3}}
	return service.New(db, nil, nil, cfg, &logger)
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte(catalogYAML))
	require.NoError(t, err)

	require.Len(t, c.Rooms, 2)
	assert.Equal(t, "101", c.Rooms[0].Number)
	assert.Equal(t, 2, c.Rooms[0].Capacity)
	assert.Equal(t, models.RoomMaintenance, c.Rooms[1].Status)
	require.Len(t, c.RateProducts, 1)
	assert.Equal(t, models.BoardBedAndBreakfast, c.RateProducts[0].BoardType)
	require.Len(t, c.Items, 2)
	assert.Equal(t, "6", c.Items[0].HappyHourPrice)
	require.NotNil(t, c.Items[1].Active)
	assert.False(t, *c.Items[1].Active)

	_, err = Parse([]byte("rooms: [unterminated"))
	assert.Error(t, err)
}

func TestApplyIsIdempotent(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o600))

	c, err := Load(path)
	require.NoError(t, err)

	res, err := Apply(ctx, c, svc.Rooms, svc.Catalog, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Rooms: 2, RateProducts: 1, Items: 2}, res)

	items, err := svc.Catalog.ListItems(ctx)
	require.NoError(t, err)
	byName := make(map[string]*models.Item)
	for _, it := range items {
		byName[it.Name] = it
	}
	mojito := byName["Mojito"]
	require.NotNil(t, mojito)
	assert.True(t, mojito.Active)
	assert.Equal(t, 40, mojito.StockQuantity)
	require.NotNil(t, mojito.HappyHourPriceUSD)
	assert.Equal(t, "6", mojito.HappyHourPriceUSD.String())
	assert.Len(t, mojito.Ingredients, 1)
	assert.False(t, byName["Old stock"].Active)

	products, err := svc.Catalog.ListRateProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "120", products[0].DailyRateUSD.String())

	again, err := Apply(ctx, c, svc.Rooms, svc.Catalog, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{}, again)

	rooms, err := svc.Rooms.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
}

func TestApplyRejectsBadPrices(t *testing.T) {
	svc := newServices(t)
	c := &Catalog{Items: []Item{{Name: "Broken", Price: "a lot"}}}

	_, err := Apply(context.Background(), c, svc.Rooms, svc.Catalog, nil)
	assert.ErrorContains(t, err, "bad price")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
