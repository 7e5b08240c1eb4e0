package client

import "time"

type User struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	DisplayName  string   `json:"displayName"`
	RoleID       string   `json:"roleId"`
	RoleName     string   `json:"roleName,omitempty"`
	RoleColor    string   `json:"roleColor,omitempty"`
	Permissions  []string `json:"permissions,omitempty"`
	DepartmentID *string  `json:"departmentId,omitempty"`
	Status       string   `json:"status"`
	AvatarURL    *string  `json:"avatarUrl,omitempty"`
}

type Role struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Color       string   `json:"color"`
	Permissions []string `json:"permissions"`
	IsSystem    bool     `json:"isSystem"`
}

type Department struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type DeviceSession struct {
	ID         string    `json:"id"`
	DeviceID   string    `json:"deviceId"`
	DeviceName string    `json:"deviceName"`
	IPAddress  string    `json:"ipAddress"`
	UserAgent  string    `json:"userAgent"`
	LastSeenAt time.Time `json:"lastSeenAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
	Current    bool      `json:"current"`
}

type PermissionMatrix struct {
	Permissions []string    `json:"permissions"`
	Rows        []MatrixRow `json:"rows"`
}

type MatrixRow struct {
	Role    Role            `json:"role"`
	Granted map[string]bool `json:"granted"`
}

// authEnvelope is the auth endpoints' response shape. Tokens are absent
// when registration does not auto-login.
type authEnvelope struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	DeviceID     string `json:"deviceId"`
	User         User   `json:"user"`
}
