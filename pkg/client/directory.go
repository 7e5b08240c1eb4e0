package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Minister124/BlazorAuth-sub000/internal/authz"
)

// Directory CRUD surface. Every call goes through the retry transport, so
// an expired bearer token costs the caller nothing but latency.

type ListUsersOptions struct {
	Search       string
	DepartmentID string
	RoleID       string
	Status       string
	Page         int
	PerPage      int
}

func (o ListUsersOptions) query() string {
	q := url.Values{}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.DepartmentID != "" {
		q.Set("departmentId", o.DepartmentID)
	}
	if o.RoleID != "" {
		q.Set("roleId", o.RoleID)
	}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PerPage > 0 {
		q.Set("perPage", strconv.Itoa(o.PerPage))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func (c *Client) ListUsers(ctx context.Context, opts ListUsersOptions) ([]User, error) {
	var resp struct {
		Items []User `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/users"+opts.query(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/users/"+url.PathEscape(id), nil, &resp); err != nil {
		return User{}, err
	}
	return resp.User, nil
}

type CreateUserInput struct {
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	DisplayName  string  `json:"displayName"`
	RoleID       string  `json:"roleId"`
	DepartmentID *string `json:"departmentId,omitempty"`
	Status       string  `json:"status,omitempty"`
}

func (c *Client) CreateUser(ctx context.Context, input CreateUserInput) (User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/users", input, &resp); err != nil {
		return User{}, err
	}
	return resp.User, nil
}

type UpdateUserInput struct {
	DisplayName     *string `json:"displayName,omitempty"`
	RoleID          *string `json:"roleId,omitempty"`
	DepartmentID    *string `json:"departmentId,omitempty"`
	ClearDepartment bool    `json:"clearDepartment,omitempty"`
	Status          *string `json:"status,omitempty"`
}

func (c *Client) UpdateUser(ctx context.Context, id string, input UpdateUserInput) (User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPatch, "/v1/users/"+url.PathEscape(id), input, &resp); err != nil {
		return User{}, err
	}
	return resp.User, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/users/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListRoles(ctx context.Context) ([]Role, error) {
	var resp struct {
		Items []Role `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/roles", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

type RoleInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Color       string   `json:"color,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

func (c *Client) CreateRole(ctx context.Context, input RoleInput) (Role, error) {
	var resp struct {
		Role Role `json:"role"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/roles", input, &resp); err != nil {
		return Role{}, err
	}
	return resp.Role, nil
}

func (c *Client) UpdateRole(ctx context.Context, id string, input RoleInput) (Role, error) {
	var resp struct {
		Role Role `json:"role"`
	}
	if err := c.do(ctx, http.MethodPatch, "/v1/roles/"+url.PathEscape(id), input, &resp); err != nil {
		return Role{}, err
	}
	return resp.Role, nil
}

func (c *Client) DeleteRole(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/roles/"+url.PathEscape(id), nil, nil)
}

func (c *Client) GetPermissionMatrix(ctx context.Context) (PermissionMatrix, error) {
	var resp PermissionMatrix
	if err := c.do(ctx, http.MethodGet, "/v1/roles/matrix", nil, &resp); err != nil {
		return PermissionMatrix{}, err
	}
	return resp, nil
}

func (c *Client) ListDepartments(ctx context.Context) ([]Department, error) {
	var resp struct {
		Items []Department `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/departments", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

type DepartmentInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (c *Client) CreateDepartment(ctx context.Context, input DepartmentInput) (Department, error) {
	var resp struct {
		Department Department `json:"department"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/departments", input, &resp); err != nil {
		return Department{}, err
	}
	return resp.Department, nil
}

func (c *Client) UpdateDepartment(ctx context.Context, id string, input DepartmentInput) (Department, error) {
	var resp struct {
		Department Department `json:"department"`
	}
	if err := c.do(ctx, http.MethodPatch, "/v1/departments/"+url.PathEscape(id), input, &resp); err != nil {
		return Department{}, err
	}
	return resp.Department, nil
}

func (c *Client) DeleteDepartment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/departments/"+url.PathEscape(id), nil, nil)
}

// Me fetches the caller's account and refreshes the cached user and
// permission set from the server's answer.
func (c *Client) Me(ctx context.Context) (User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/auth/me", nil, &resp); err != nil {
		return User{}, err
	}

	c.mu.Lock()
	user := resp.User
	c.user = &user
	c.roleName = resp.User.RoleName
	c.roleColor = resp.User.RoleColor
	if resp.User.Permissions != nil {
		c.perms = authz.NewSetFromStrings(resp.User.Permissions)
	}
	c.mu.Unlock()

	return resp.User, nil
}

func (c *Client) ListSessions(ctx context.Context) ([]DeviceSession, error) {
	var resp struct {
		Sessions []DeviceSession `json:"sessions"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/auth/sessions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

func (c *Client) RevokeSession(ctx context.Context, deviceID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/auth/sessions/"+url.PathEscape(deviceID), nil, nil)
}

type UpdateProfileInput struct {
	DisplayName *string `json:"displayName,omitempty"`
}

func (c *Client) UpdateProfile(ctx context.Context, input UpdateProfileInput) (User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPatch, "/v1/profile", input, &resp); err != nil {
		return User{}, err
	}
	return resp.User, nil
}

func (c *Client) ChangePassword(ctx context.Context, current, newPassword string) error {
	if newPassword == "" || current == "" {
		return fmt.Errorf("current and new password required")
	}
	return c.do(ctx, http.MethodPost, "/v1/profile/password", map[string]any{
		"currentPassword": current,
		"newPassword":     newPassword,
		"confirmPassword": newPassword,
	}, nil)
}
