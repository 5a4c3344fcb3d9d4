package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"roro/internal/apperr"
	"roro/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"

// RequestID propagates X-Request-Id or assigns a fresh one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader("X-Request-Id"))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

// RequestLogger logs one line per request and records the latency histogram.
func RequestLogger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		latency := time.Since(start)

		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).
			Observe(latency.Seconds())

		if route == "/metrics" {
			return
		}

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", latency.Milliseconds(),
			"request_id", c.GetString(requestIDKey),
			"ip", c.ClientIP(),
		}
		if last := c.Errors.Last(); last != nil {
			appErr := apperr.From(last.Err)
			fields = append(fields, "error_code", appErr.Code)
			if appErr.Kind == apperr.KindInternal {
				fields = append(fields, "error", last.Err.Error())
			}
		}

		if status >= http.StatusInternalServerError {
			log.Errorw("http_request", fields...)
		} else {
			log.Infow("http_request", fields...)
		}
	}
}
