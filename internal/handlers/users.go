package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Minister124/BlazorAuth-sub000/internal/models"
	"github.com/Minister124/BlazorAuth-sub000/internal/repository"
	"github.com/Minister124/BlazorAuth-sub000/internal/service"
)

func (h HandlerSet) ListUsers(c *gin.Context) {
	filter := repository.UserFilter{
		Search:       c.Query("search"),
		DepartmentID: c.Query("departmentId"),
		RoleID:       c.Query("roleId"),
		Status:       models.UserStatus(c.Query("status")),
		Limit:        50,
	}

	if perPage := c.Query("perPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= 200 {
			filter.Limit = v
		}
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 1 {
			filter.Offset = (v - 1) * filter.Limit
		}
	}

	users, err := h.userService.List(c.Request.Context(), filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	items := make([]userResponse, 0, len(users))
	for _, user := range users {
		items = append(items, newUserResponse(user))
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h HandlerSet) GetUser(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

type createUserRequest struct {
	Email        string  `json:"email" binding:"required,email"`
	Password     string  `json:"password" binding:"required,min=8"`
	DisplayName  string  `json:"displayName" binding:"required"`
	RoleID       string  `json:"roleId" binding:"required"`
	DepartmentID *string `json:"departmentId"`
	Status       string  `json:"status"`
}

func (h HandlerSet) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, _ := currentUser(c)
	user, err := h.userService.Create(c.Request.Context(), actor.ID, service.CreateUserInput{
		Email:        req.Email,
		Password:     req.Password,
		DisplayName:  req.DisplayName,
		RoleID:       req.RoleID,
		DepartmentID: req.DepartmentID,
		Status:       models.UserStatus(req.Status),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": newUserResponse(user)})
}

type updateUserRequest struct {
	DisplayName     *string `json:"displayName"`
	RoleID          *string `json:"roleId"`
	DepartmentID    *string `json:"departmentId"`
	ClearDepartment bool    `json:"clearDepartment"`
	Status          *string `json:"status"`
}

func (h HandlerSet) UpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.UpdateUserInput{
		DisplayName:     req.DisplayName,
		RoleID:          req.RoleID,
		DepartmentID:    req.DepartmentID,
		ClearDepartment: req.ClearDepartment,
	}
	if req.Status != nil {
		status := models.UserStatus(*req.Status)
		switch status {
		case models.UserStatusActive, models.UserStatusInactive, models.UserStatusPending:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_status"})
			return
		}
		input.Status = &status
	}

	actor, _ := currentUser(c)
	user, err := h.userService.Update(c.Request.Context(), actor.ID, c.Param("id"), input)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

func (h HandlerSet) DeleteUser(c *gin.Context) {
	actor, _ := currentUser(c)
	if actor.ID == c.Param("id") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot_delete_self"})
		return
	}

	if err := h.userService.Delete(c.Request.Context(), actor.ID, c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
