package repository

import (
	"context"
	"testing"
	"time"

	"hotelpos/internal/config"
	"hotelpos/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *RedisCatalog) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewRedisClient(config.RedisConfig{Address: mr.Addr()})
	t.Cleanup(func() { Close(client) })
	return mr, NewRedisCatalog(client, time.Minute)
}

func TestRedisCatalog(t *testing.T) {
	mr, repo := setupRedis(t)
	ctx := context.Background()

	t.Run("Miss", func(t *testing.T) {
		items, err := repo.LoadItems(ctx)
		assert.NoError(t, err)
		assert.Nil(t, items)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		hh := decimal.RequireFromString("3.50")
		items := []*models.Item{{ID: 1, Name: "Beer", PriceUSD: decimal.RequireFromString("5.25"), HappyHourPriceUSD: &hh}}
		require.NoError(t, repo.StoreItems(ctx, items))

		got, err := repo.LoadItems(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Beer", got[0].Name)
		assert.True(t, got[0].PriceUSD.Equal(decimal.RequireFromString("5.25")))
		require.NotNil(t, got[0].HappyHourPriceUSD)
		assert.True(t, got[0].HappyHourPriceUSD.Equal(hh))

		rates := []*models.ReservationItem{{ID: 7, Description: "Suite B&B", DailyRateUSD: decimal.NewFromInt(240)}}
		require.NoError(t, repo.StoreRateProducts(ctx, rates))
		gotRates, err := repo.LoadRateProducts(ctx)
		require.NoError(t, err)
		require.Len(t, gotRates, 1)
		assert.True(t, gotRates[0].DailyRateUSD.Equal(decimal.NewFromInt(240)))
	})

	t.Run("TTL", func(t *testing.T) {
		require.NoError(t, repo.StoreItems(ctx, []*models.Item{{ID: 2}}))
		mr.FastForward(2 * time.Minute)
		items, err := repo.LoadItems(ctx)
		assert.NoError(t, err)
		assert.Nil(t, items)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, repo.StoreItems(ctx, []*models.Item{{ID: 3}}))
		require.NoError(t, repo.Clear(ctx))
		assert.False(t, mr.Exists(keyItems))
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, repo.client))
	})

	t.Run("ServerDown", func(t *testing.T) {
		down := NewRedisCatalog(NewRedisClient(config.RedisConfig{Address: "127.0.0.1:1"}), time.Minute)
		defer Close(down.client)
		_, err := down.LoadItems(ctx)
		assert.Error(t, err)
	})
}

func TestRedisCatalogNilClient(t *testing.T) {
	repo := NewRedisCatalog(nil, time.Minute)
	_, err := repo.LoadItems(context.Background())
	assert.Error(t, err)
	assert.Error(t, repo.StoreItems(context.Background(), nil))
	assert.Error(t, repo.Clear(context.Background()))
	assert.NoError(t, Close(nil))
}
