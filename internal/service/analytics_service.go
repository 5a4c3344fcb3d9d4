package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"roro/internal/apperr"
	"roro/internal/logger"
	"roro/internal/models"
	"roro/internal/repository"
	"roro/internal/utils"

	"go.uber.org/zap"
)

const (
	analyticsSummaryKey = "analytics:summary"
	analyticsWindowDays = 30
)

type AnalyticsService interface {
	Summary(ctx context.Context) (*models.AnalyticsSummary, error)
	RefreshSummary(ctx context.Context) (*models.AnalyticsSummary, error)
	Dashboard(ctx context.Context) (*models.DashboardKPI, error)
	Export(ctx context.Context, w io.Writer, format string, from, to time.Time) error
}

type analyticsService struct {
	repo      repository.AnalyticsRepository
	cacheRepo repository.CacheRepository
	ttl       time.Duration
	now       func() time.Time
	log       *zap.SugaredLogger
}

// NewAnalyticsService caches the public summary for ttl; the analytics worker
// refreshes it before expiry.
func NewAnalyticsService(repo repository.AnalyticsRepository, cacheRepo repository.CacheRepository, ttl time.Duration) AnalyticsService {
	return &analyticsService{
		repo:      repo,
		cacheRepo: cacheRepo,
		ttl:       ttl,
		now:       func() time.Time { return time.Now().UTC() },
		log:       logger.GetLogger("analytics"),
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (s *analyticsService) Summary(ctx context.Context) (*models.AnalyticsSummary, error) {
	var summary models.AnalyticsSummary
	found, err := s.cacheRepo.GetJSON(ctx, analyticsSummaryKey, &summary)
	if err != nil {
		s.log.Warnw("analytics cache read failed", "error", err)
	} else if found {
		return &summary, nil
	}
	return s.RefreshSummary(ctx)
}

func (s *analyticsService) RefreshSummary(ctx context.Context) (*models.AnalyticsSummary, error) {
	now := s.now()
	since := now.AddDate(0, 0, -analyticsWindowDays)

	today, err := s.repo.CountSince(ctx, startOfDay(now))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to count today's spins: %w", err))
	}
	days, err := s.repo.ActiveDaysSince(ctx, since)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to count active days: %w", err))
	}
	customers, err := s.repo.UniqueCustomersSince(ctx, since)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to count customers: %w", err))
	}

	summary := &models.AnalyticsSummary{
		TodaySpins:         today,
		ActiveDays:         days,
		UniqueCustomers30d: customers,
	}
	if err := s.cacheRepo.SetJSON(ctx, analyticsSummaryKey, summary, s.ttl); err != nil {
		s.log.Warnw("analytics cache write failed", "error", err)
	}
	return summary, nil
}

func (s *analyticsService) Dashboard(ctx context.Context) (*models.DashboardKPI, error) {
	now := s.now()
	today := startOfDay(now)

	breakdown, err := s.repo.BreakdownSince(ctx, today)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	daily, err := s.repo.DailySince(ctx, today.AddDate(0, 0, -(analyticsWindowDays - 1)))
	if err != nil {
		return nil, apperr.Internal(err)
	}

	var total int64
	for _, n := range breakdown {
		total += n
	}
	kpi := &models.DashboardKPI{
		TodaySpins:     total,
		PrizeBreakdown: breakdown,
		Daily:          daily,
	}
	if total > 0 {
		kpi.FacilityRateToday = float64(breakdown[models.PrizeFacility]) / float64(total)
	}
	return kpi, nil
}

var exportHeader = []string{"spin_id", "customer_id", "prize_type", "prize_id", "policy", "created_at"}

// Export writes gacha log rows in [from, to) as csv or xlsx.
func (s *analyticsService) Export(ctx context.Context, w io.Writer, format string, from, to time.Time) error {
	if format != "csv" && format != "xlsx" {
		return apperr.Validation("invalid_format", "format must be csv or xlsx")
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return apperr.Validation("invalid_range", "from must be before to")
	}

	entries, err := s.repo.LogsBetween(ctx, from, to)
	if err != nil {
		return apperr.Internal(fmt.Errorf("failed to load gacha logs: %w", err))
	}

	if format == "xlsx" {
		if err := utils.WriteGachaExcel(w, entries, s.now()); err != nil {
			return apperr.Internal(err)
		}
		return nil
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return apperr.Internal(err)
	}
	for _, e := range entries {
		record := []string{
			strconv.FormatUint(uint64(e.SpinID), 10),
			e.CustomerID,
			e.PrizeType,
			strconv.FormatUint(uint64(e.PrizeID), 10),
			e.Policy,
			e.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return apperr.Internal(err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperr.Internal(err)
	}
	return nil
}
