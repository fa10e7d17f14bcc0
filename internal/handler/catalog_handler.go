package handler

import (
	"net/http"

	"posekit/internal/model"
	"posekit/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CatalogHandler обрабатывает запросы тем и тегов
type CatalogHandler struct {
	catalogService *service.CatalogService
	logger         *logrus.Logger
}

// NewCatalogHandler создает новый экземпляр CatalogHandler
func NewCatalogHandler(catalogService *service.CatalogService, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// RegisterRoutes регистрирует маршруты каталога
func (h *CatalogHandler) RegisterRoutes(router *gin.Engine, auth *Authenticator) {
	api := router.Group("/api/v1")
	{
		api.GET("/themes", h.ListThemes)
		api.GET("/tags", h.ListTags)
	}

	admin := api.Group("", auth.Authenticate(), auth.RequireRole(model.RoleAdmin))
	{
		admin.POST("/themes", h.CreateTheme)
		admin.DELETE("/themes/:id", h.DeleteTheme)
		admin.POST("/tags", h.CreateTag)
	}
}

// ListThemes возвращает все темы
func (h *CatalogHandler) ListThemes(c *gin.Context) {
	themes, err := h.catalogService.ListThemes(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Ошибка получения тем")
		return
	}
	c.JSON(http.StatusOK, gin.H{"themes": themes})
}

// CreateTheme создает тему
func (h *CatalogHandler) CreateTheme(c *gin.Context) {
	var req service.CreateThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат запроса"})
		return
	}

	theme, err := h.catalogService.CreateTheme(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err, "Ошибка создания темы")
		return
	}
	c.JSON(http.StatusCreated, theme)
}

// DeleteTheme удаляет тему
func (h *CatalogHandler) DeleteTheme(c *gin.Context) {
	if err := h.catalogService.DeleteTheme(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, "Ошибка удаления темы")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Тема успешно удалена"})
}

// ListTags возвращает все теги
func (h *CatalogHandler) ListTags(c *gin.Context) {
	tags, err := h.catalogService.ListTags(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Ошибка получения тегов")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// CreateTag создает тег
func (h *CatalogHandler) CreateTag(c *gin.Context) {
	var req service.CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат запроса"})
		return
	}

	tag, err := h.catalogService.CreateTag(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err, "Ошибка создания тега")
		return
	}
	c.JSON(http.StatusCreated, tag)
}
