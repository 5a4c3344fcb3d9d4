package middleware

import (
	"strings"

	"roro/internal/apperr"
	"roro/pkg/auth"

	"github.com/gin-gonic/gin"
)

const claimsKey = "auth_claims"

type AuthConfig struct {
	Secret string
	Issuer string
}

// OptionalAuth attaches claims when a valid bearer token is present and lets
// every request through. A malformed or invalid token is rejected.
func OptionalAuth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			Abort(c, apperr.Auth("authorization header must be a bearer token"))
			return
		}

		claims, err := auth.ValidateToken(strings.TrimSpace(token), cfg.Secret, cfg.Issuer)
		if err != nil {
			Abort(c, apperr.Auth("invalid or expired token"))
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireAuth rejects requests without claims. Mount after OptionalAuth.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Claims(c) == nil {
			Abort(c, apperr.Auth("authentication required"))
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects callers without the admin role. Mount after OptionalAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			Abort(c, apperr.Auth("authentication required"))
			return
		}
		if !claims.IsAdmin() {
			Abort(c, apperr.Forbidden("admin role required"))
			return
		}
		c.Next()
	}
}

// Claims returns the verified claims of the request, or nil.
func Claims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

// Abort renders err in the standard error body and stops the chain.
func Abort(c *gin.Context, err error) {
	appErr := apperr.From(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.Kind.Status(), gin.H{
		"error":   appErr.Code,
		"message": appErr.Message,
	})
}
