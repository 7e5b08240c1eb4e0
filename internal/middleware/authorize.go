package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Minister124/BlazorAuth-sub000/internal/authz"
)

// RequirePermissions gates a route group on the session's permission set.
// 401 means "go log in", 403 means "logged in but not allowed" -- clients
// redirect to the login view or the landing view accordingly.
func RequirePermissions(required ...authz.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		permsVal, authenticated := c.Get(CtxPermissions)
		var granted authz.Set
		if authenticated {
			granted, authenticated = permsVal.(authz.Set)
		}

		switch authz.Decide(authenticated, granted, required...) {
		case authz.Allow:
			c.Next()
		case authz.DenyUnauthenticated:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication_required"})
		default:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission_denied"})
		}
	}
}
