package repository

import (
	"context"
	"fmt"
	"time"

	"roro/internal/models"

	"gorm.io/gorm"
)

type AnalyticsRepository interface {
	CountSince(ctx context.Context, since time.Time) (int64, error)
	ActiveDaysSince(ctx context.Context, since time.Time) (int64, error)
	UniqueCustomersSince(ctx context.Context, since time.Time) (int64, error)
	BreakdownSince(ctx context.Context, since time.Time) (map[string]int64, error)
	DailySince(ctx context.Context, since time.Time) ([]models.DailySpins, error)
	LogsBetween(ctx context.Context, from, to time.Time) ([]models.GachaLogEntry, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) logs(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.GachaLogEntry{})
}

func (r *analyticsRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.logs(ctx).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

func (r *analyticsRepository) ActiveDaysSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.logs(ctx).
		Select("COUNT(DISTINCT DATE(created_at))").
		Where("created_at >= ?", since).
		Scan(&count).Error
	return count, err
}

func (r *analyticsRepository) UniqueCustomersSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.logs(ctx).
		Select("COUNT(DISTINCT customer_id)").
		Where("created_at >= ?", since).
		Scan(&count).Error
	return count, err
}

func (r *analyticsRepository) BreakdownSince(ctx context.Context, since time.Time) (map[string]int64, error) {
	var rows []struct {
		PrizeType string
		Spins     int64
	}
	err := r.logs(ctx).
		Select("prize_type, COUNT(*) AS spins").
		Where("created_at >= ?", since).
		Group("prize_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate prize breakdown: %w", err)
	}

	breakdown := make(map[string]int64, len(models.PrizeTypes))
	for _, t := range models.PrizeTypes {
		breakdown[t] = 0
	}
	for _, row := range rows {
		breakdown[row.PrizeType] = row.Spins
	}
	return breakdown, nil
}

func (r *analyticsRepository) DailySince(ctx context.Context, since time.Time) ([]models.DailySpins, error) {
	var rows []struct {
		Day   string
		Spins int64
	}
	err := r.logs(ctx).
		Select("DATE(created_at) AS day, COUNT(*) AS spins").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily spins: %w", err)
	}

	daily := make([]models.DailySpins, 0, len(rows))
	for _, row := range rows {
		day := row.Day
		// drivers that return DATE as a timestamp format it as RFC 3339
		if len(day) > 10 {
			day = day[:10]
		}
		daily = append(daily, models.DailySpins{Date: day, Spins: row.Spins})
	}
	return daily, nil
}

// LogsBetween returns log rows in [from, to). A zero bound is open.
func (r *analyticsRepository) LogsBetween(ctx context.Context, from, to time.Time) ([]models.GachaLogEntry, error) {
	q := r.db.WithContext(ctx)
	if !from.IsZero() {
		q = q.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("created_at < ?", to)
	}

	var entries []models.GachaLogEntry
	err := q.Order("spin_id ASC").Find(&entries).Error
	return entries, err
}
