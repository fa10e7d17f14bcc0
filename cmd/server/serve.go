package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"posekit/internal/client"
	"posekit/internal/config"
	"posekit/internal/database"
	"posekit/internal/grpcserver"
	"posekit/internal/handler"
	"posekit/internal/repository"
	"posekit/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout    = 10 * time.Second
	healthRefreshEvery = 30 * time.Second
)

var serveMemory bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Запуск HTTP API и gRPC health сервера",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMemory, "memory", false, "хранить каталог в памяти, без PostgreSQL")
	rootCmd.AddCommand(serveCmd)
}

// repositories хранилища каталога и проверка их доступности
type repositories struct {
	poses   repository.PoseRepository
	catalog repository.CatalogRepository
	users   repository.UserRepository
	check   func(ctx context.Context) error
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	logger.Info("Запуск PoseKit API Server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close()

	staticDir := cfg.Server.StaticDir
	if err := os.MkdirAll(staticDir, 0755); err != nil {
		return fmt.Errorf("failed to create static dir: %w", err)
	}

	secret, err := jwtSecret(cfg, logger)
	if err != nil {
		return err
	}

	// Внешние сервисы
	detector := client.NewDetectorAPIClient(cfg.DetectorAPI.BaseURL, time.Duration(cfg.DetectorAPI.Timeout)*time.Second, logger)

	var generator service.TextGenerator
	if cfg.Gemini.APIKey != "" {
		gemini, err := client.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, logger)
		if err != nil {
			return err
		}
		defer gemini.Close()
		generator = gemini
	} else {
		logger.Warn("GEMINI_API_KEY не задан, генерация промптов отключена")
	}

	// Сервисы
	authService := service.NewAuthService(repos.users, secret, time.Duration(cfg.Auth.ExpirationHours)*time.Hour, cfg.Auth.BcryptCost, logger)
	poseService := service.NewPoseService(repos.poses, repos.catalog, logger, staticDir)
	detectorService := service.NewDetectorService(detector, poseService, logger)

	// Обработчики
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handler.NewRouter(handler.Handlers{
		Auth:   handler.NewAuthenticator(authService),
		Health: handler.NewHealthHandler(repos.check, detectorService, logger),
		Poses: handler.NewPoseHandler(
			poseService,
			service.NewAssetService(repos.poses, logger, staticDir),
			service.NewExportService(logger),
			detectorService,
			service.NewPromptService(generator, poseService, logger),
			logger,
		),
		Catalog: handler.NewCatalogHandler(service.NewCatalogService(repos.catalog, logger), logger),
		Users:   handler.NewAuthHandler(authService, logger),
	}, staticDir)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("Сервер запущен на порту %d", cfg.Server.Port)
		logger.Infof("API доступно по адресу: http://localhost:%d/api/v1", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Остановка HTTP сервера...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.Server.GRPCPort > 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
		if err != nil {
			stop()
			_ = g.Wait()
			return fmt.Errorf("failed to listen grpc port: %w", err)
		}
		healthServer := grpcserver.New(repos.check, healthRefreshEvery, logger)
		g.Go(func() error {
			return healthServer.Serve(gCtx, lis)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Errorf("Сервер остановлен с ошибкой: %v", err)
		return err
	}

	logger.Info("Сервер остановлен")
	return nil
}

// openRepositories подключает PostgreSQL или, с флагом --memory, хранилище в памяти
func openRepositories(cfg *config.Config, logger *logrus.Logger) (*repositories, error) {
	if serveMemory {
		logger.Warn("Каталог хранится в памяти и будет потерян при остановке")
		store := repository.NewMemoryStore()
		return &repositories{
			poses:   store.Poses(),
			catalog: store.Catalog(),
			users:   store.Users(),
			check:   func(context.Context) error { return nil },
		}, nil
	}

	logger.Info("Подключение к базе данных...")
	db, err := database.Connect(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(logger); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.HealthCheck(ctx); err != nil {
		return nil, fmt.Errorf("database is not reachable: %w", err)
	}

	logger.Info("База данных успешно подключена и готова к работе")
	return &repositories{
		poses:   repository.NewPoseRepository(db),
		catalog: repository.NewCatalogRepository(db),
		users:   repository.NewUserRepository(db),
		check:   database.HealthCheck,
	}, nil
}

// jwtSecret возвращает секрет подписи токенов. Вне production при пустом
// значении генерируется случайный секрет, токены не переживут перезапуск.
func jwtSecret(cfg *config.Config, logger *logrus.Logger) (string, error) {
	if cfg.Auth.JWTSecret != "" {
		return cfg.Auth.JWTSecret, nil
	}
	if cfg.IsProduction() {
		return "", fmt.Errorf("config error: JWT_SECRET is required in production")
	}

	logger.Warn("JWT_SECRET не задан, используется случайный секрет")
	return uuid.NewString(), nil
}
