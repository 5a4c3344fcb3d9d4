package repository

import (
	"context"
	"testing"
	"time"

	"roro/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocodeCacheUpsertAndExpiry(t *testing.T) {
	repo := NewGeocodeCacheRepository(newSQLiteDB(t))
	ctx := context.Background()
	now := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)

	miss, err := repo.Get(ctx, "1000001", now)
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, repo.Upsert(ctx, &models.GeocodeCache{
		Zipcode: "1000001", Lat: 35.68, Lng: 139.75, Address: "Chiyoda", ExpiresAt: now.Add(time.Hour),
	}))
	require.NoError(t, repo.Upsert(ctx, &models.GeocodeCache{
		Zipcode: "1000001", Lat: 35.69, Lng: 139.76, Address: "Chiyoda-ku", ExpiresAt: now.Add(2 * time.Hour),
	}))

	hit, err := repo.Get(ctx, "1000001", now)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, 35.69, hit.Lat)
	assert.Equal(t, "Chiyoda-ku", hit.Address)

	expired, err := repo.Get(ctx, "1000001", now.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, expired)
}

func TestGeocodeCacheDeleteExpired(t *testing.T) {
	repo := NewGeocodeCacheRepository(newSQLiteDB(t))
	ctx := context.Background()
	now := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert(ctx, &models.GeocodeCache{Zipcode: "1000001", ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, repo.Upsert(ctx, &models.GeocodeCache{Zipcode: "1500001", ExpiresAt: now.Add(time.Hour)}))

	deleted, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	kept, err := repo.Get(ctx, "1500001", now)
	require.NoError(t, err)
	assert.NotNil(t, kept)
}
