package middleware

import (
	"net/http"

	"roro/internal/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware caps process-wide throughput. Per-identity hourly quotas
// live in the ratelimit package.
func RateLimitMiddleware(limiter *rate.Limiter) gin.HandlerFunc {
	log := logger.GetLogger("ratelimit")

	return func(c *gin.Context) {
		// Пропускаем health-check и метрики
		switch c.Request.URL.Path {
		case "/health", "/api/v1/health", "/metrics":
			c.Next()
			return
		}

		if !limiter.Allow() {
			log.Warnw("global rate limit hit", "ip", c.ClientIP(), "path", c.Request.URL.Path)

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limited",
				"message": "please try again later",
			})
			return
		}

		c.Next()
	}
}
