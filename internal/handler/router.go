package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version версия API
const Version = "1.0.0"

// Handlers набор обработчиков API
type Handlers struct {
	Auth    *Authenticator
	Health  *HealthHandler
	Poses   *PoseHandler
	Catalog *CatalogHandler
	Users   *AuthHandler
}

// NewRouter настраивает gin router: middleware, статические файлы и маршруты
func NewRouter(h Handlers, staticDir string) *gin.Engine {
	router := gin.New()

	// Добавляем middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(CORSMiddleware())

	// Обслуживание статических файлов
	router.Static("/static", staticDir)

	// Регистрируем маршруты
	h.Health.RegisterRoutes(router)
	h.Poses.RegisterRoutes(router, h.Auth)
	h.Catalog.RegisterRoutes(router, h.Auth)
	h.Users.RegisterRoutes(router, h.Auth)

	// Добавляем базовый маршрут для проверки
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "PoseKit API Server",
			"version": Version,
			"status":  "running",
		})
	})

	return router
}
