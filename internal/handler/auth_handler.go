package handler

import (
	"net/http"

	"posekit/internal/model"
	"posekit/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthHandler обрабатывает регистрацию, вход и управление пользователями
type AuthHandler struct {
	authService *service.AuthService
	logger      *logrus.Logger
}

// NewAuthHandler создает новый экземпляр AuthHandler
func NewAuthHandler(authService *service.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// RegisterRoutes регистрирует маршруты аутентификации
func (h *AuthHandler) RegisterRoutes(router *gin.Engine, auth *Authenticator) {
	api := router.Group("/api/v1")
	{
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
	}

	admin := api.Group("", auth.Authenticate(), auth.RequireRole(model.RoleAdmin))
	{
		admin.GET("/users", h.ListUsers)
		admin.PUT("/users/:id/role", h.UpdateRole)
	}
}

// Register создает учетную запись
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат запроса"})
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err, "Ошибка регистрации")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Login выдает токен доступа
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат запроса"})
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err, "Ошибка входа")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListUsers возвращает всех пользователей
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.authService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Ошибка получения пользователей")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// UpdateRole меняет роль пользователя
func (h *AuthHandler) UpdateRole(c *gin.Context) {
	var req service.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат запроса"})
		return
	}

	if claims := currentClaims(c); claims != nil && claims.UserID == c.Param("id") && req.Role != model.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Нельзя снять роль администратора с самого себя"})
		return
	}

	user, err := h.authService.UpdateRole(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, h.logger, err, "Ошибка смены роли")
		return
	}
	c.JSON(http.StatusOK, user)
}
