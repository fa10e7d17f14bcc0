package handler

import (
	"context"
	"net/http"

	"posekit/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HealthHandler проверяет состояние сервиса и его зависимостей
type HealthHandler struct {
	dbCheck         func(ctx context.Context) error
	detectorService *service.DetectorService
	logger          *logrus.Logger
}

// NewHealthHandler создает новый обработчик проверки здоровья
func NewHealthHandler(dbCheck func(ctx context.Context) error, detectorService *service.DetectorService, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		dbCheck:         dbCheck,
		detectorService: detectorService,
		logger:          logger,
	}
}

// RegisterRoutes регистрирует маршрут проверки здоровья
func (h *HealthHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/v1/health", h.CheckHealth)
}

// CheckHealth возвращает состояние базы данных и сервиса детекции.
// Недоступность детектора не делает сервис нездоровым.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	h.logger.Debug("Получен запрос проверки здоровья")

	status := service.HealthStatus{Status: "healthy", Database: "up"}
	if err := h.dbCheck(c.Request.Context()); err != nil {
		h.logger.Errorf("База данных недоступна: %v", err)
		status.Status = "unhealthy"
		status.Database = "down"
	}
	status.Detector = h.detectorService.CheckHealth(c.Request.Context())

	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
