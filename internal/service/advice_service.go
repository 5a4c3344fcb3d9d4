package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"roro/internal/apperr"
	"roro/internal/clients"
	"roro/internal/logger"
	"roro/internal/metrics"
	"roro/internal/models"
	"roro/internal/ratelimit"
	"roro/internal/repository"

	"go.uber.org/zap"
)

const (
	maxQuestionLength = 1000
	maxBreedLength    = 64
)

type AdviceService interface {
	Ask(ctx context.Context, identity, question, breed string) (*models.AdviceAnswer, error)
}

type adviceService struct {
	client    clients.AdviceClient
	cacheRepo repository.CacheRepository
	limiter   ratelimit.Limiter
	ttl       time.Duration
	log       *zap.SugaredLogger
}

// NewAdviceService caches answers for ttl keyed by the lower-cased question and breed.
func NewAdviceService(client clients.AdviceClient, cacheRepo repository.CacheRepository, limiter ratelimit.Limiter, ttl time.Duration) AdviceService {
	return &adviceService{
		client:    client,
		cacheRepo: cacheRepo,
		limiter:   limiter,
		ttl:       ttl,
		log:       logger.GetLogger("advice"),
	}
}

func adviceCacheKey(question, breed string) string {
	sum := md5.Sum([]byte(strings.ToLower(question) + "\n" + strings.ToLower(breed)))
	return "ai:advice:" + hex.EncodeToString(sum[:])
}

func (s *adviceService) Ask(ctx context.Context, identity, question, breed string) (*models.AdviceAnswer, error) {
	question = strings.TrimSpace(question)
	breed = strings.TrimSpace(breed)
	if question == "" {
		return nil, apperr.Validation("no_question", "question is required")
	}
	if utf8.RuneCountInString(question) > maxQuestionLength {
		return nil, apperr.Validation("invalid_question", "question is too long")
	}
	if utf8.RuneCountInString(breed) > maxBreedLength {
		return nil, apperr.Validation("invalid_breed", "breed is too long")
	}

	if err := checkRateLimit(ctx, s.limiter, s.log, ratelimit.ActionAIAdvice, identity); err != nil {
		return nil, err
	}

	key := adviceCacheKey(question, breed)
	var answer string
	found, err := s.cacheRepo.GetJSON(ctx, key, &answer)
	if err != nil {
		s.log.Warnw("advice cache read failed", "key", key, "error", err)
	} else if found {
		metrics.AdviceRequests.WithLabelValues("cached").Inc()
		return &models.AdviceAnswer{Answer: answer, Cached: true}, nil
	}

	answer, err = s.client.Ask(ctx, question, breed)
	if err != nil {
		metrics.AdviceRequests.WithLabelValues("failed").Inc()
		if errors.Is(err, clients.ErrNoAPIKey) {
			s.log.Error("advice requested but no api key is configured")
			return nil, apperr.Unavailable("no_api_key", "advice service is not configured", err)
		}
		s.log.Errorw("advice upstream failed", "error", err)
		return nil, apperr.Unavailable("advice_unavailable", "advice service is unavailable", err)
	}
	metrics.AdviceRequests.WithLabelValues("fresh").Inc()

	if err := s.cacheRepo.SetJSON(ctx, key, answer, s.ttl); err != nil {
		s.log.Warnw("advice cache write failed", "key", key, "error", err)
	}

	return &models.AdviceAnswer{Answer: answer, Cached: false}, nil
}
