package repository

import (
	"context"
	"errors"
	"time"

	"roro/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GeocodeCacheRepository interface {
	Get(ctx context.Context, zipcode string, now time.Time) (*models.GeocodeCache, error)
	Upsert(ctx context.Context, entry *models.GeocodeCache) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type geocodeCacheRepository struct {
	db *gorm.DB
}

func NewGeocodeCacheRepository(db *gorm.DB) GeocodeCacheRepository {
	return &geocodeCacheRepository{db: db}
}

// Get returns the unexpired entry for zipcode, or nil when there is none.
func (r *geocodeCacheRepository) Get(ctx context.Context, zipcode string, now time.Time) (*models.GeocodeCache, error) {
	var entry models.GeocodeCache
	err := r.db.WithContext(ctx).
		Where("zipcode = ? AND expires_at > ?", zipcode, now).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *geocodeCacheRepository) Upsert(ctx context.Context, entry *models.GeocodeCache) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "zipcode"}},
			DoUpdates: clause.AssignmentColumns([]string{"lat", "lng", "address", "expires_at"}),
		}).
		Create(entry).Error
}

func (r *geocodeCacheRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.GeocodeCache{})
	return result.RowsAffected, result.Error
}
