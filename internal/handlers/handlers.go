package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Minister124/BlazorAuth-sub000/internal/audit"
	"github.com/Minister124/BlazorAuth-sub000/internal/authz"
	"github.com/Minister124/BlazorAuth-sub000/internal/config"
	"github.com/Minister124/BlazorAuth-sub000/internal/middleware"
	"github.com/Minister124/BlazorAuth-sub000/internal/models"
	"github.com/Minister124/BlazorAuth-sub000/internal/repository"
	"github.com/Minister124/BlazorAuth-sub000/internal/security"
	"github.com/Minister124/BlazorAuth-sub000/internal/service"
	"github.com/Minister124/BlazorAuth-sub000/internal/storage"
)

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	authService *service.AuthService
	userService *service.UserService
	roleService *service.RoleService
	deptService *service.DepartmentService
	db          *pgxpool.Pool
	cache       *redis.Client
	store       *storage.ObjectStore
	repos       repository.Set
}

func NewHandlerSet(
	log zerolog.Logger,
	repos repository.Set,
	db *pgxpool.Pool,
	cache *redis.Client,
	store *storage.ObjectStore,
	auditor *audit.Publisher,
	cfg *config.AppConfig,
) HandlerSet {
	roleService := service.NewRoleService(repos.Roles, repos.Users, cache, auditor, log)
	authService := service.NewAuthService(repos.Users, repos.Sessions, roleService, auditor, cfg, log)
	userService := service.NewUserService(repos.Users, repos.Sessions, repos.Roles, repos.Departments, auditor, log)
	deptService := service.NewDepartmentService(repos.Departments, repos.Users, auditor, log)

	return HandlerSet{
		log:         log,
		cfg:         cfg,
		authService: authService,
		userService: userService,
		roleService: roleService,
		deptService: deptService,
		db:          db,
		cache:       cache,
		store:       store,
		repos:       repos,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.RegisterAccount)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)

		authed := middleware.Auth(h.cfg, h.repos.Users, h.repos.Sessions, h.roleService)

		protected := v1.Group("/auth")
		protected.Use(authed)
		protected.GET("/me", h.Me)
		protected.GET("/sessions", h.ListSessions)
		protected.DELETE("/sessions/:deviceId", h.RevokeSession)

		profile := v1.Group("/profile")
		profile.Use(authed, middleware.RequirePermissions(authz.PermProfileEdit))
		profile.GET("", h.GetProfile)
		profile.PATCH("", h.UpdateProfile)
		profile.POST("/password", h.ChangePassword)
		profile.POST("/avatar", h.UploadAvatar)

		users := v1.Group("/users")
		users.Use(authed)
		users.GET("", middleware.RequirePermissions(authz.PermUsersView), h.ListUsers)
		users.GET("/:id", middleware.RequirePermissions(authz.PermUsersView), h.GetUser)
		users.POST("", middleware.RequirePermissions(authz.PermUsersCreate), h.CreateUser)
		users.PATCH("/:id", middleware.RequirePermissions(authz.PermUsersEdit), h.UpdateUser)
		users.DELETE("/:id", middleware.RequirePermissions(authz.PermUsersDelete), h.DeleteUser)

		roles := v1.Group("/roles")
		roles.Use(authed)
		roles.GET("", middleware.RequirePermissions(authz.PermRolesView), h.ListRoles)
		roles.GET("/matrix", middleware.RequirePermissions(authz.PermRolesView), h.PermissionMatrix)
		roles.GET("/:id", middleware.RequirePermissions(authz.PermRolesView), h.GetRole)
		roles.POST("", middleware.RequirePermissions(authz.PermRolesManage), h.CreateRole)
		roles.PATCH("/:id", middleware.RequirePermissions(authz.PermRolesManage), h.UpdateRole)
		roles.DELETE("/:id", middleware.RequirePermissions(authz.PermRolesManage), h.DeleteRole)

		departments := v1.Group("/departments")
		departments.Use(authed)
		departments.GET("", middleware.RequirePermissions(authz.PermDepartmentsView), h.ListDepartments)
		departments.GET("/:id", middleware.RequirePermissions(authz.PermDepartmentsView), h.GetDepartment)
		departments.POST("", middleware.RequirePermissions(authz.PermDepartmentsManage), h.CreateDepartment)
		departments.PATCH("/:id", middleware.RequirePermissions(authz.PermDepartmentsManage), h.UpdateDepartment)
		departments.DELETE("/:id", middleware.RequirePermissions(authz.PermDepartmentsManage), h.DeleteDepartment)
	}
}

func currentUser(c *gin.Context) (models.User, bool) {
	userVal, exists := c.Get(middleware.CtxCurrentUser)
	if !exists {
		return models.User{}, false
	}
	user, ok := userVal.(models.User)
	return user, ok
}

func currentClaims(c *gin.Context) (security.AccessClaims, bool) {
	claimsVal, exists := c.Get(middleware.CtxAccessClaims)
	if !exists {
		return security.AccessClaims{}, false
	}
	claims, ok := claimsVal.(security.AccessClaims)
	return claims, ok
}
