package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Minister124/BlazorAuth-sub000/internal/repository"
	"github.com/Minister124/BlazorAuth-sub000/internal/service"
)

// writeServiceError maps service-level failures to a status and a stable
// error code the UI can translate into a short user-facing message.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
	case errors.Is(err, service.ErrUserInactive):
		c.JSON(http.StatusForbidden, gin.H{"error": "user_inactive"})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email_taken"})
	case errors.Is(err, service.ErrRoleNameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "role_name_taken"})
	case errors.Is(err, service.ErrDepartmentNameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "department_name_taken"})
	case errors.Is(err, service.ErrSystemRole):
		c.JSON(http.StatusConflict, gin.H{"error": "system_role_immutable"})
	case errors.Is(err, service.ErrRoleInUse):
		c.JSON(http.StatusConflict, gin.H{"error": "role_in_use"})
	case errors.Is(err, service.ErrDepartmentInUse):
		c.JSON(http.StatusConflict, gin.H{"error": "department_in_use"})
	case errors.Is(err, service.ErrUnknownPermission):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_permission"})
	case errors.Is(err, service.ErrWrongPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": "wrong_password"})
	case errors.Is(err, repository.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
	case errors.Is(err, repository.ErrRoleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "role_not_found"})
	case errors.Is(err, repository.ErrDepartmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "department_not_found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
