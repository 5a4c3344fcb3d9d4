package handlers

import (
	"roro/internal/middleware"
	"roro/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// respondError renders {"error": code, "message": msg}. Internal causes are
// attached to the context for the request logger and never sent to the client.
func respondError(c *gin.Context, err error) {
	middleware.Abort(c, err)
}

// identity returns the rate-limit key and, when authenticated, the user id.
func identity(c *gin.Context) (key, userID string) {
	if claims := middleware.Claims(c); claims != nil {
		userID = claims.Subject
	}
	return ratelimit.Identity(c.ClientIP(), userID), userID
}
