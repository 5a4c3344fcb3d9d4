package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"roro/internal/apperr"
	"roro/internal/clients"
	"roro/internal/logger"
	"roro/internal/metrics"
	"roro/internal/models"
	"roro/internal/repository"

	"go.uber.org/zap"
)

var zipPattern = regexp.MustCompile(`^\d{3}-?\d{4}$`)

type GeocodeService interface {
	Resolve(ctx context.Context, zipcode string) (*models.GeoPoint, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

type geocodeService struct {
	cacheRepo repository.CacheRepository
	store     repository.GeocodeCacheRepository
	client    clients.GeocodeClient
	ttl       time.Duration
	now       func() time.Time
	log       *zap.SugaredLogger
}

func NewGeocodeService(
	cacheRepo repository.CacheRepository,
	store repository.GeocodeCacheRepository,
	client clients.GeocodeClient,
	ttl time.Duration,
) GeocodeService {
	return &geocodeService{
		cacheRepo: cacheRepo,
		store:     store,
		client:    client,
		ttl:       ttl,
		now:       func() time.Time { return time.Now().UTC() },
		log:       logger.GetLogger("geocode"),
	}
}

// NormalizeZip strips the hyphen from a 7-digit Japanese postal code.
func NormalizeZip(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !zipPattern.MatchString(raw) {
		return "", apperr.Validation("invalid_zipcode", "zipcode must be 7 digits, optionally written as 123-4567")
	}
	return strings.Replace(raw, "-", "", 1), nil
}

func geocodeCacheKey(zip string) string {
	return "geo:zip:" + zip
}

// Resolve looks the postal code up in Redis, then the database, then upstream.
func (s *geocodeService) Resolve(ctx context.Context, zipcode string) (*models.GeoPoint, error) {
	zip, err := NormalizeZip(zipcode)
	if err != nil {
		return nil, err
	}

	var point models.GeoPoint
	found, err := s.cacheRepo.GetJSON(ctx, geocodeCacheKey(zip), &point)
	if err != nil {
		s.log.Warnw("geocode cache read failed", "zipcode", zip, "error", err)
	} else if found {
		return &point, nil
	}

	now := s.now()
	if entry, err := s.store.Get(ctx, zip, now); err != nil {
		s.log.Warnw("geocode store read failed", "zipcode", zip, "error", err)
	} else if entry != nil {
		point = models.GeoPoint{Zipcode: entry.Zipcode, Lat: entry.Lat, Lng: entry.Lng, Address: entry.Address}
		s.remember(ctx, &point, entry.ExpiresAt.Sub(now))
		return &point, nil
	}

	resolved, err := s.client.Lookup(ctx, zip)
	if err != nil {
		if errors.Is(err, clients.ErrZipNotFound) {
			return nil, apperr.NotFound("not_found", "postal code not found")
		}
		metrics.GeocoderFailures.Inc()
		s.log.Errorw("geocoder upstream failed", "zipcode", zip, "error", err)
		return nil, apperr.Unavailable("service_unreachable", "geocoding service is unavailable", err)
	}

	if err := s.store.Upsert(ctx, &models.GeocodeCache{
		Zipcode:   zip,
		Lat:       resolved.Lat,
		Lng:       resolved.Lng,
		Address:   resolved.Address,
		ExpiresAt: now.Add(s.ttl),
	}); err != nil {
		s.log.Warnw("geocode store write failed", "zipcode", zip, "error", err)
	}
	s.remember(ctx, resolved, s.ttl)

	return resolved, nil
}

func (s *geocodeService) remember(ctx context.Context, point *models.GeoPoint, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := s.cacheRepo.SetJSON(ctx, geocodeCacheKey(point.Zipcode), point, ttl); err != nil {
		s.log.Warnw("geocode cache write failed", "zipcode", point.Zipcode, "error", err)
	}
}

func (s *geocodeService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, s.now())
}
