package middleware

import (
	"landlords/internal/domain"

	"github.com/gin-gonic/gin"
)

// AdminRequired checks that the authenticated user has the ADMIN role.
func AdminRequired() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}

// OwnerRequired admits property owners. Admins act on behalf of owners through the admin routes only.
func OwnerRequired() gin.HandlerFunc {
	return RequireRole(domain.RoleOwner)
}
