package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"roro/internal/apperr"
	"roro/internal/logger"
	"roro/internal/metrics"
	"roro/internal/models"
	"roro/internal/ratelimit"
	"roro/internal/repository"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var zipPrefixPattern = regexp.MustCompile(`^\d{1,7}$`)

// SpinRequest is one draw. CustomerID is the logged identity; Identity keys the
// rate limiter and defaults to CustomerID.
type SpinRequest struct {
	CustomerID string
	Identity   string
	Species    string
	Category   string
	Zipcode    string
}

type SpinResult struct {
	Prize  models.Prize `json:"prize"`
	SpinID uint         `json:"spin_id"`
}

type GachaService interface {
	Spin(ctx context.Context, req SpinRequest) (*SpinResult, error)
}

type gachaService struct {
	repo    repository.GachaRepository
	limiter ratelimit.Limiter
	policy  DrawPolicy
	rnd     Rand
	now     func() time.Time
	log     *zap.SugaredLogger
}

// NewGachaService wires a spin pipeline. A nil rnd uses the process-wide source.
func NewGachaService(repo repository.GachaRepository, limiter ratelimit.Limiter, policy DrawPolicy, rnd Rand) GachaService {
	if rnd == nil {
		rnd = globalRand{}
	}
	if policy == nil {
		policy = NewUniformPolicy()
	}
	return &gachaService{
		repo:    repo,
		limiter: limiter,
		policy:  policy,
		rnd:     rnd,
		now:     func() time.Time { return time.Now().UTC() },
		log:     logger.GetLogger("gacha"),
	}
}

func normalizeSpin(req SpinRequest) (SpinRequest, error) {
	req.Species = strings.ToLower(strings.TrimSpace(req.Species))
	if req.Species != "dog" && req.Species != "cat" {
		return req, apperr.Validation("invalid_species", "species must be dog or cat")
	}

	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	if req.Category == "" {
		return req, apperr.Validation("invalid_category", "category is required")
	}
	if len(req.Category) > 32 {
		return req, apperr.Validation("invalid_category", "category is too long")
	}

	req.Zipcode = strings.ReplaceAll(strings.TrimSpace(req.Zipcode), "-", "")
	if req.Zipcode != "" && !zipPrefixPattern.MatchString(req.Zipcode) {
		return req, apperr.Validation("invalid_zipcode", "zipcode must contain up to 7 digits")
	}
	return req, nil
}

func (s *gachaService) Spin(ctx context.Context, req SpinRequest) (*SpinResult, error) {
	req, err := normalizeSpin(req)
	if err != nil {
		return nil, err
	}
	if req.CustomerID == "" {
		return nil, apperr.Auth("sign in to spin")
	}

	identity := req.Identity
	if identity == "" {
		identity = req.CustomerID
	}
	if err := checkRateLimit(ctx, s.limiter, s.log, ratelimit.ActionGacha, identity); err != nil {
		return nil, err
	}

	now := s.now()
	pool, err := s.repo.FindCandidates(ctx, repository.CandidateQuery{
		Species:  req.Species,
		Category: req.Category,
		Zipcode:  req.Zipcode,
		Now:      now,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(pool) == 0 {
		return nil, apperr.NotFound("no_candidates", "no prizes available for this selection")
	}

	prize, err := s.policy.Draw(pool, s.rnd)
	if err != nil {
		if errors.Is(err, errEmptyPool) {
			return nil, apperr.NotFound("no_candidates", "no prizes available for this selection")
		}
		return nil, apperr.Internal(err)
	}

	meta, err := json.Marshal(map[string]interface{}{
		"pool_size": len(pool),
		"species":   req.Species,
		"category":  req.Category,
		"zipcode":   req.Zipcode,
	})
	if err != nil {
		s.log.Warnw("gacha meta encoding failed", "error", err)
		meta = nil
	}
	entry := &models.GachaLogEntry{
		CustomerID: req.CustomerID,
		PrizeType:  prize.Type,
		PrizeID:    prize.ID,
		Policy:     s.policy.Name(),
		Meta:       datatypes.JSON(meta),
		CreatedAt:  now,
	}
	if err := s.repo.AppendLog(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrPrizeNotFound) {
			s.log.Warnw("drawn prize vanished before logging", "type", prize.Type, "id", prize.ID)
			return nil, apperr.NotFound("prize_unavailable", "the drawn prize is no longer available, please spin again")
		}
		return nil, apperr.Internal(err)
	}

	metrics.GachaDraws.WithLabelValues(prize.Type, s.policy.Name()).Inc()
	s.log.Infow("gacha spin", "spin_id", entry.SpinID, "type", prize.Type, "id", prize.ID, "policy", s.policy.Name())

	return &SpinResult{Prize: prize, SpinID: entry.SpinID}, nil
}
