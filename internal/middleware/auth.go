package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Minister124/BlazorAuth-sub000/internal/config"
	"github.com/Minister124/BlazorAuth-sub000/internal/models"
	"github.com/Minister124/BlazorAuth-sub000/internal/repository"
	"github.com/Minister124/BlazorAuth-sub000/internal/security"
	"github.com/Minister124/BlazorAuth-sub000/internal/service"
)

// Context keys set by Auth for downstream handlers.
const (
	CtxAccessToken  = "access_token"
	CtxAccessClaims = "access_claims"
	CtxCurrentUser  = "current_user"
	CtxRoleName     = "role_name"
	CtxPermissions  = "permissions"
)

func Auth(cfg *config.AppConfig, users repository.UserRepository, sessions repository.SessionRepository, roles *service.RoleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := security.ParseAccessToken(tokenStr, cfg.Security.JWTAccessSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		session, err := sessions.GetByID(c.Request.Context(), claims.SessionID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_not_found"})
			return
		}

		if session.UserID != claims.UserID || session.DeviceID != claims.DeviceID {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_mismatch"})
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_not_found"})
			return
		}

		if user.Status != models.UserStatusActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user_inactive"})
			return
		}

		// Permissions come from the role store, not the token, so a role
		// edit takes effect without waiting for token expiry.
		roleName, perms, err := roles.PermissionsFor(c.Request.Context(), user.RoleID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "role_not_found"})
			return
		}

		_ = sessions.Touch(c.Request.Context(), session.ID, c.ClientIP(), c.GetHeader("User-Agent"))

		c.Set(CtxAccessToken, tokenStr)
		c.Set(CtxAccessClaims, *claims)
		c.Set(CtxCurrentUser, user)
		c.Set(CtxRoleName, roleName)
		c.Set(CtxPermissions, perms)

		c.Next()
	}
}
