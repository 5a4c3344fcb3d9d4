package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"roro/internal/models"
	"roro/internal/ratelimit"
	"roro/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type memoryCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	failGet bool
	failSet bool
	gets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memoryCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.data[key]), nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.SetJSON(ctx, key, value, expiration)
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memoryCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.failGet {
		return false, errors.New("redis down")
	}
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memoryCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSet {
		return errors.New("redis down")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	c.ttls[key] = expiration
	return nil
}

type stubLimiter struct {
	allowed bool
	err     error
	calls   []string
}

func (l *stubLimiter) Allow(ctx context.Context, action, identity string) (*ratelimit.Result, error) {
	l.calls = append(l.calls, action+"|"+identity)
	if l.err != nil {
		return nil, l.err
	}
	return &ratelimit.Result{Allowed: l.allowed, Limit: 1, RetryAfter: 30 * time.Minute}, nil
}

type stubFacilityRepo struct {
	rows  []models.NearbyFacility
	err   error
	calls []repository.NearbyQuery
}

func (r *stubFacilityRepo) FindNearby(ctx context.Context, q repository.NearbyQuery) ([]models.NearbyFacility, error) {
	r.calls = append(r.calls, q)
	if r.err != nil {
		return nil, r.err
	}
	return r.rows, nil
}

func (r *stubFacilityRepo) Count(ctx context.Context) (int64, error) { return int64(len(r.rows)), nil }

func (r *stubFacilityRepo) Strategy() string { return "haversine" }

type stubGeocoder struct {
	point *models.GeoPoint
	err   error
	calls int
}

func (g *stubGeocoder) Resolve(ctx context.Context, zipcode string) (*models.GeoPoint, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.point, nil
}

func (g *stubGeocoder) PurgeExpired(ctx context.Context) (int64, error) { return 0, nil }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Facility{},
		&models.Advice{},
		&models.Event{},
		&models.Material{},
		&models.CategoryZipMapping{},
		&models.GachaLogEntry{},
		&models.GeocodeCache{},
	))
	return db
}
