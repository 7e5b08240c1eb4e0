package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Minister124/BlazorAuth-sub000/internal/models"
	"github.com/Minister124/BlazorAuth-sub000/internal/service"
)

type departmentResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func newDepartmentResponse(dept models.Department) departmentResponse {
	return departmentResponse{
		ID:          dept.ID,
		Name:        dept.Name,
		Description: dept.Description,
	}
}

func (h HandlerSet) ListDepartments(c *gin.Context) {
	depts, err := h.deptService.List(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}

	items := make([]departmentResponse, 0, len(depts))
	for _, dept := range depts {
		items = append(items, newDepartmentResponse(dept))
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h HandlerSet) GetDepartment(c *gin.Context) {
	dept, err := h.deptService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"department": newDepartmentResponse(dept)})
}

type departmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h HandlerSet) CreateDepartment(c *gin.Context) {
	var req departmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}

	actor, _ := currentUser(c)
	dept, err := h.deptService.Create(c.Request.Context(), actor.ID, service.DepartmentInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"department": newDepartmentResponse(dept)})
}

func (h HandlerSet) UpdateDepartment(c *gin.Context) {
	var req departmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, _ := currentUser(c)
	dept, err := h.deptService.Update(c.Request.Context(), actor.ID, c.Param("id"), service.DepartmentInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"department": newDepartmentResponse(dept)})
}

func (h HandlerSet) DeleteDepartment(c *gin.Context) {
	actor, _ := currentUser(c)
	if err := h.deptService.Delete(c.Request.Context(), actor.ID, c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
