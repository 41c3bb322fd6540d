package repository

import (
	"context"
	"testing"
	"time"

	"hotelpos/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCatalog(t *testing.T) {
	repo := NewMemoryCatalog(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	items, err := repo.LoadItems(ctx)
	require.NoError(t, err)
	assert.Nil(t, items)

	require.NoError(t, repo.StoreItems(ctx, []*models.Item{{ID: 1, Name: "Cola"}}))
	require.NoError(t, repo.StoreRateProducts(ctx, []*models.ReservationItem{{ID: 1}}))

	items, err = repo.LoadItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	now = now.Add(2 * time.Minute)
	items, err = repo.LoadItems(ctx)
	require.NoError(t, err)
	assert.Nil(t, items, "expired entries are dropped")

	now = now.Add(-2 * time.Minute)
	require.NoError(t, repo.StoreItems(ctx, []*models.Item{{ID: 1}}))
	require.NoError(t, repo.Clear(ctx))
	items, _ = repo.LoadItems(ctx)
	rates, _ := repo.LoadRateProducts(ctx)
	assert.Nil(t, items)
	assert.Nil(t, rates)
}
