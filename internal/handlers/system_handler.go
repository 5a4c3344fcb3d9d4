package handlers

import (
	"context"
	"net/http"
	"time"

	"roro/internal/logger"
	"roro/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type SystemHandler struct {
	checks     map[string]HealthCheck
	redisStats func(ctx context.Context) (map[string]string, error)
	facilities repository.FacilityRepository
	gacha      repository.GachaRepository
	workers    map[string]bool
	log        *zap.SugaredLogger
}

func NewSystemHandler(
	checks map[string]HealthCheck,
	redisStats func(ctx context.Context) (map[string]string, error),
	facilities repository.FacilityRepository,
	gacha repository.GachaRepository,
	workers map[string]bool,
) *SystemHandler {
	return &SystemHandler{
		checks:     checks,
		redisStats: redisStats,
		facilities: facilities,
		gacha:      gacha,
		workers:    workers,
		log:        logger.GetLogger("system"),
	}
}

func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	services := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			services[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		services[name] = "connected"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status":    state,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  services,
	})
}

// Stats reports counters for operators. A source that fails is logged and
// rendered as null rather than as a zero count.
func (h *SystemHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	var redisStats interface{}
	if h.redisStats != nil {
		if stats, err := h.redisStats(ctx); err != nil {
			h.log.Warnw("redis stats unavailable", "error", err)
		} else {
			redisStats = stats
		}
	}

	var facilities, spins interface{}
	if n, err := h.facilities.Count(ctx); err != nil {
		h.log.Warnw("facility count failed", "error", err)
	} else {
		facilities = n
	}
	if n, err := h.gacha.Count(ctx); err != nil {
		h.log.Warnw("gacha log count failed", "error", err)
	} else {
		spins = n
	}

	c.JSON(http.StatusOK, gin.H{
		"database": gin.H{
			"facilities":        facilities,
			"gacha_logs":        spins,
			"distance_strategy": h.facilities.Strategy(),
		},
		"redis":   redisStats,
		"workers": h.workers,
	})
}
