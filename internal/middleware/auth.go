package middleware

import (
	"net/http"
	"strings"

	"landlords/config"
	"landlords/internal/apperr"
	"landlords/internal/auth"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "code": code, "message": message})
}

// AuthRequired validates the bearer JWT and attaches the caller's identity to
// both the gin context and the request context.
func AuthRequired(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, http.StatusUnauthorized, apperr.CodeUnauthorized, "missing authorization header")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abort(c, http.StatusUnauthorized, apperr.CodeUnauthorized, "invalid authorization format")
			return
		}
		claims, err := auth.ParseAccessToken(cfg, parts[1])
		if err != nil {
			abort(c, http.StatusUnauthorized, apperr.CodeUnauthorized, "invalid or expired token")
			return
		}
		id := claims.Identity()
		c.Set(identityKey, id)
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// RequireRole checks that the authenticated user has one of the allowed roles.
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			abort(c, http.StatusUnauthorized, apperr.CodeUnauthorized, "unauthorized")
			return
		}
		for _, a := range allowed {
			if id.Role == a {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, apperr.CodeForbidden, "forbidden")
	}
}

// GetIdentity returns the caller set by AuthRequired.
func GetIdentity(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

// GetUserID returns the authenticated user ID, or 0 before AuthRequired has run.
func GetUserID(c *gin.Context) uint {
	id, _ := GetIdentity(c)
	return id.UserID
}
