package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"roro/internal/geo"
	"roro/internal/models"

	"gorm.io/gorm"
)

// NearbyQuery is an already validated facility search.
type NearbyQuery struct {
	Lat      float64
	Lng      float64
	Radius   float64
	Limit    int
	Category string
}

type FacilityRepository interface {
	FindNearby(ctx context.Context, q NearbyQuery) ([]models.NearbyFacility, error)
	Count(ctx context.Context) (int64, error)
	Strategy() string
}

type facilityRepository struct {
	db       *gorm.DB
	strategy geo.DistanceStrategy
}

func NewFacilityRepository(db *gorm.DB, strategy geo.DistanceStrategy) FacilityRepository {
	if strategy == nil {
		strategy = geo.NewHaversine()
	}
	return &facilityRepository{db: db, strategy: strategy}
}

func (r *facilityRepository) Strategy() string {
	return r.strategy.Name()
}

func (r *facilityRepository) FindNearby(ctx context.Context, q NearbyQuery) ([]models.NearbyFacility, error) {
	box := geo.Bounds(q.Lat, q.Lng, q.Radius)
	expr, args := r.strategy.Expr(q.Lat, q.Lng)

	var inner strings.Builder
	inner.WriteString("SELECT facility_id, name, category, lat, lng, address, ")
	inner.WriteString(expr)
	inner.WriteString(" AS distance FROM facilities WHERE lat BETWEEN ? AND ? AND lng BETWEEN ? AND ?")
	args = append(args, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng)
	if q.Category != "" {
		inner.WriteString(" AND category = ?")
		args = append(args, q.Category)
	}

	sql := "SELECT * FROM (" + inner.String() + ") AS f WHERE distance <= ? ORDER BY distance ASC, facility_id ASC LIMIT ?"
	args = append(args, q.Radius, q.Limit)

	var rows []models.NearbyFacility
	if err := r.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query nearby facilities (%s): %w", r.strategy.Name(), err)
	}

	return normalizeNearby(rows, q.Radius, q.Limit), nil
}

func (r *facilityRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Facility{}).Count(&count).Error
	return count, err
}

// normalizeNearby holds the result ordering and bounds independent of how the
// database rounded the distance.
func normalizeNearby(rows []models.NearbyFacility, radius float64, limit int) []models.NearbyFacility {
	out := make([]models.NearbyFacility, 0, len(rows))
	for _, row := range rows {
		if row.Distance < 0 {
			row.Distance = 0
		}
		if row.Distance > radius {
			continue
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].ID < out[j].ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
