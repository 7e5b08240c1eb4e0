package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Minister124/BlazorAuth-sub000/internal/authz"
	"github.com/Minister124/BlazorAuth-sub000/internal/models"
	"github.com/Minister124/BlazorAuth-sub000/internal/service"
)

type roleResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Color       string   `json:"color"`
	Permissions []string `json:"permissions"`
	IsSystem    bool     `json:"isSystem"`
}

func newRoleResponse(role models.Role) roleResponse {
	return roleResponse{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		Color:       role.Color,
		Permissions: role.PermissionSet().Strings(),
		IsSystem:    role.IsSystem,
	}
}

func (h HandlerSet) ListRoles(c *gin.Context) {
	roles, err := h.roleService.List(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}

	items := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		items = append(items, newRoleResponse(role))
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h HandlerSet) GetRole(c *gin.Context) {
	role, err := h.roleService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"role": newRoleResponse(role)})
}

type roleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Color       string   `json:"color"`
	Permissions []string `json:"permissions"`
}

func (r roleRequest) toInput() service.RoleInput {
	input := service.RoleInput{
		Name:        r.Name,
		Description: r.Description,
		Color:       r.Color,
	}
	if r.Permissions != nil {
		input.Permissions = make([]authz.Permission, 0, len(r.Permissions))
		for _, p := range r.Permissions {
			input.Permissions = append(input.Permissions, authz.Permission(p))
		}
	}
	return input
}

func (h HandlerSet) CreateRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}

	actor, _ := currentUser(c)
	role, err := h.roleService.Create(c.Request.Context(), actor.ID, req.toInput())
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"role": newRoleResponse(role)})
}

func (h HandlerSet) UpdateRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, _ := currentUser(c)
	role, err := h.roleService.Update(c.Request.Context(), actor.ID, c.Param("id"), req.toInput())
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"role": newRoleResponse(role)})
}

func (h HandlerSet) DeleteRole(c *gin.Context) {
	actor, _ := currentUser(c)
	if err := h.roleService.Delete(c.Request.Context(), actor.ID, c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type matrixRowResponse struct {
	Role    roleResponse    `json:"role"`
	Granted map[string]bool `json:"granted"`
}

// PermissionMatrix returns every role crossed with every permission tag,
// which is what the role-management screen renders as a checkbox grid.
func (h HandlerSet) PermissionMatrix(c *gin.Context) {
	rows, err := h.roleService.Matrix(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}

	permissions := make([]string, 0, len(authz.All()))
	for _, p := range authz.All() {
		permissions = append(permissions, string(p))
	}

	respRows := make([]matrixRowResponse, 0, len(rows))
	for _, row := range rows {
		granted := make(map[string]bool, len(row.Granted))
		for p, ok := range row.Granted {
			granted[string(p)] = ok
		}
		respRows = append(respRows, matrixRowResponse{
			Role:    newRoleResponse(row.Role),
			Granted: granted,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"permissions": permissions,
		"rows":        respRows,
	})
}
