package grpcserver

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName имя сервиса каталога в протоколе grpc.health.v1
const ServiceName = "posekit.Catalog"

const checkTimeout = 5 * time.Second

// HealthServer gRPC сервер проверки здоровья. Статус определяется
// доступностью базы данных и периодически обновляется.
type HealthServer struct {
	server   *grpc.Server
	health   *health.Server
	check    func(ctx context.Context) error
	interval time.Duration
	logger   *logrus.Logger
}

// New создает сервер проверки здоровья
func New(check func(ctx context.Context) error, interval time.Duration, logger *logrus.Logger) *HealthServer {
	s := &HealthServer{
		server:   grpc.NewServer(),
		health:   health.NewServer(),
		check:    check,
		interval: interval,
		logger:   logger,
	}

	healthpb.RegisterHealthServer(s.server, s.health)
	reflection.Register(s.server)

	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Refresh проверяет базу данных и обновляет статус
func (s *HealthServer) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.check(ctx); err != nil {
		s.logger.Warnf("gRPC health: база данных недоступна: %v", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	s.setStatus(status)
	return status
}

// Serve обслуживает соединения до отмены контекста
func (s *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	s.Refresh(ctx)
	go s.watch(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(lis)
	}()

	s.logger.Infof("gRPC сервер запущен на %s", lis.Addr())

	select {
	case <-ctx.Done():
		s.logger.Info("Остановка gRPC сервера...")
		s.health.Shutdown()
		s.server.GracefulStop()
		return nil
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

func (s *HealthServer) watch(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

func (s *HealthServer) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	// пустое имя означает состояние сервера в целом
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
