// Package middleware provides the gin middleware of the GreenWipe API server:
// JWT authentication, request logging, CORS, rate limiting and HTTP metrics.
package middleware

import (
	"net/http"
	"strings"

	"github.com/MK-codes365/greenwipe/internal/auth"
	"github.com/MK-codes365/greenwipe/internal/config"
	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRole     = "role"
)

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": message})
}

// bearerToken extracts the token from "Bearer <token>"
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return parts[1], true
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUsername, claims.Username)
	c.Set(ContextRole, claims.Role)
}

// AuthMiddleware validates JWT tokens and sets user context
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "authorization header required")
			return
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		claims, err := auth.ValidateToken(token, cfg.JWT.Secret, cfg.JWT.Issuer)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth sets user context when a valid token is present and lets
// anonymous requests through. A malformed or invalid token is still rejected.
func OptionalAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		claims, err := auth.ValidateToken(token, cfg.JWT.Secret, cfg.JWT.Issuer)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// RequireRole middleware checks if user has required role
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get(ContextRole)
		if !exists {
			abortWithError(c, http.StatusForbidden, "no role in context")
			return
		}

		// Admin can access everything
		if userRole != role && userRole != auth.RoleAdmin {
			abortWithError(c, http.StatusForbidden, "insufficient permissions")
			return
		}

		c.Next()
	}
}

// UserID returns the authenticated user id, or "" for anonymous requests
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
