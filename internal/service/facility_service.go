package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"roro/internal/apperr"
	"roro/internal/geo"
	"roro/internal/logger"
	"roro/internal/metrics"
	"roro/internal/models"
	"roro/internal/ratelimit"
	"roro/internal/repository"

	"go.uber.org/zap"
)

// FacilitySearchInput carries the raw query parameters of a search.
type FacilitySearchInput struct {
	Lat      string
	Lng      string
	Zipcode  string
	Radius   string
	Limit    string
	Category string
}

type FacilitySearchConfig struct {
	DefaultRadius int
	MaxRadius     int
	DefaultLimit  int
	MaxLimit      int
	CacheTTL      time.Duration
}

type FacilityService interface {
	Search(ctx context.Context, identity string, in FacilitySearchInput) ([]models.NearbyFacility, error)
}

type facilityService struct {
	repo      repository.FacilityRepository
	cacheRepo repository.CacheRepository
	geocoder  GeocodeService
	limiter   ratelimit.Limiter
	config    FacilitySearchConfig
	log       *zap.SugaredLogger
}

func NewFacilityService(
	repo repository.FacilityRepository,
	cacheRepo repository.CacheRepository,
	geocoder GeocodeService,
	limiter ratelimit.Limiter,
	config FacilitySearchConfig,
) FacilityService {
	return &facilityService{
		repo:      repo,
		cacheRepo: cacheRepo,
		geocoder:  geocoder,
		limiter:   limiter,
		config:    config,
		log:       logger.GetLogger("facility"),
	}
}

type searchParams struct {
	lat, lng float64
	zipcode  string
	radius   int
	limit    int
	category string
}

func (s *facilityService) parse(in FacilitySearchInput) (*searchParams, error) {
	p := &searchParams{radius: s.config.DefaultRadius, limit: s.config.DefaultLimit}

	hasLat, hasLng := strings.TrimSpace(in.Lat) != "", strings.TrimSpace(in.Lng) != ""
	switch {
	case hasLat && hasLng:
		lat, err := strconv.ParseFloat(strings.TrimSpace(in.Lat), 64)
		if err != nil || !geo.ValidLat(lat) {
			return nil, apperr.Validation("invalid_params", "lat must be a number between -90 and 90")
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(in.Lng), 64)
		if err != nil || !geo.ValidLng(lng) {
			return nil, apperr.Validation("invalid_params", "lng must be a number between -180 and 180")
		}
		p.lat, p.lng = lat, lng
	case hasLat || hasLng:
		return nil, apperr.Validation("invalid_params", "lat and lng must be given together")
	case strings.TrimSpace(in.Zipcode) != "":
		zip, err := NormalizeZip(in.Zipcode)
		if err != nil {
			return nil, err
		}
		p.zipcode = zip
	default:
		return nil, apperr.Validation("invalid_params", "lat and lng, or zipcode, are required")
	}

	if raw := strings.TrimSpace(in.Radius); raw != "" {
		radius, err := strconv.Atoi(raw)
		if err != nil || radius <= 0 {
			return nil, apperr.Validation("invalid_params", "radius must be a positive integer")
		}
		p.radius = radius
	}
	if p.radius > s.config.MaxRadius {
		p.radius = s.config.MaxRadius
	}

	if raw := strings.TrimSpace(in.Limit); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return nil, apperr.Validation("invalid_params", "limit must be a positive integer")
		}
		p.limit = limit
	}
	if p.limit > s.config.MaxLimit {
		p.limit = s.config.MaxLimit
	}

	if category := strings.ToLower(strings.TrimSpace(in.Category)); category != "" {
		if !models.IsFacilityCategory(category) {
			return nil, apperr.Validation("invalid_params", "unknown facility category")
		}
		p.category = category
	}

	return p, nil
}

func facilityCacheKey(p *searchParams) string {
	return fmt.Sprintf("geo:facilities:%.6f:%.6f:%d:%d:%s", p.lat, p.lng, p.radius, p.limit, p.category)
}

// Search validates input, applies the per-identity limit, then serves from
// cache or the database.
func (s *facilityService) Search(ctx context.Context, identity string, in FacilitySearchInput) ([]models.NearbyFacility, error) {
	p, err := s.parse(in)
	if err != nil {
		return nil, err
	}

	if err := checkRateLimit(ctx, s.limiter, s.log, ratelimit.ActionFacilitySearch, identity); err != nil {
		return nil, err
	}

	if p.zipcode != "" {
		point, err := s.geocoder.Resolve(ctx, p.zipcode)
		if err != nil {
			return nil, err
		}
		p.lat, p.lng = point.Lat, point.Lng
	}

	key := facilityCacheKey(p)
	var cached []models.NearbyFacility
	found, err := s.cacheRepo.GetJSON(ctx, key, &cached)
	if err != nil {
		s.log.Warnw("facility cache read failed", "key", key, "error", err)
	} else if found {
		metrics.GeoCacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.GeoCacheLookups.WithLabelValues("miss").Inc()

	facilities, err := s.repo.FindNearby(ctx, repository.NearbyQuery{
		Lat:      p.lat,
		Lng:      p.lng,
		Radius:   float64(p.radius),
		Limit:    p.limit,
		Category: p.category,
	})
	if err != nil {
		s.log.Errorw("facility search failed", "strategy", s.repo.Strategy(), "error", err)
		return nil, apperr.Internal(err)
	}

	if err := s.cacheRepo.SetJSON(ctx, key, facilities, s.config.CacheTTL); err != nil {
		s.log.Warnw("facility cache write failed", "key", key, "error", err)
	}

	return facilities, nil
}

// checkRateLimit fails open when the counter store is unreachable.
func checkRateLimit(ctx context.Context, limiter ratelimit.Limiter, log *zap.SugaredLogger, action, identity string) error {
	if limiter == nil {
		return nil
	}
	res, err := limiter.Allow(ctx, action, identity)
	if err != nil {
		log.Warnw("rate limiter unavailable", "action", action, "error", err)
		return nil
	}
	if !res.Allowed {
		metrics.RateLimitRejections.WithLabelValues(action).Inc()
		retry := res.RetryAfter.Round(time.Second)
		return apperr.RateLimited(fmt.Sprintf("too many requests, retry in %s", retry))
	}
	return nil
}
