package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"posekit/internal/model"
	"posekit/internal/pose"
	"posekit/pkg/models"

	"github.com/sirupsen/logrus"
)

// KeypointDetector внешний сервис распознавания скелета
type KeypointDetector interface {
	Detect(ctx context.Context, request models.DetectRequest) (*models.DetectResponse, error)
	CheckHealth(ctx context.Context) (*models.HealthResponse, error)
}

// DetectorService сервис для распознавания скелета на изображениях поз
type DetectorService struct {
	detector    KeypointDetector
	poseService *PoseService
	logger      *logrus.Logger
}

// NewDetectorService создает новый сервис детекции
func NewDetectorService(detector KeypointDetector, poseService *PoseService, logger *logrus.Logger) *DetectorService {
	return &DetectorService{
		detector:    detector,
		poseService: poseService,
		logger:      logger,
	}
}

// DetectPose отправляет основное изображение позы в сервис детекции и
// сохраняет полученный скелет
func (s *DetectorService) DetectPose(ctx context.Context, poseID string) (*model.Pose, error) {
	p, err := s.poseService.GetPose(ctx, poseID)
	if err != nil {
		return nil, err
	}

	image := primaryImage(p)
	if image == nil {
		return nil, ErrNoImage
	}

	data, err := os.ReadFile(image.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", image.Path, err)
	}

	s.logger.Infof("Начинаем распознавание скелета для позы %s", poseID)
	startTime := time.Now()

	// 1. Отправляем изображение в Python сервис
	resp, err := s.detector.Detect(ctx, models.DetectRequest{
		ImageData:     data,
		ImageFilename: image.Filename,
	})
	if err != nil {
		s.logger.Errorf("Ошибка при обращении к сервису детекции: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
	}

	if resp.Status != "success" {
		s.logger.Errorf("Сервис детекции вернул ошибку: %s", resp.Message)
		return nil, fmt.Errorf("%w: %s", ErrDetectorUnavailable, resp.Message)
	}

	// 2. Преобразуем ответ в скелет и сохраняем
	keypoints := detectedPose(resp, image)
	updated, err := s.poseService.SetKeypoints(ctx, poseID, keypoints)
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Распознавание завершено за %v: %d точек", time.Since(startTime), len(keypoints.Keypoints))
	return updated, nil
}

// CheckHealth проверяет состояние сервиса детекции
func (s *DetectorService) CheckHealth(ctx context.Context) *models.HealthResponse {
	health, err := s.detector.CheckHealth(ctx)
	if err != nil {
		s.logger.Errorf("Сервис детекции недоступен: %v", err)
		return &models.HealthResponse{
			Status:      "unhealthy",
			ModelLoaded: false,
		}
	}
	return health
}

// primaryImage возвращает первое загруженное изображение позы
func primaryImage(p *model.Pose) *model.Asset {
	for i := range p.Assets {
		if p.Assets[i].Kind == model.AssetKindImage {
			return &p.Assets[i]
		}
	}
	return nil
}

// detectedPose собирает PoseData из ответа детектора. Размер кадра берется
// из ответа, а если его нет, из метаданных изображения.
func detectedPose(resp *models.DetectResponse, image *model.Asset) pose.PoseData {
	keypoints := make([]pose.Keypoint, len(resp.Keypoints))
	for i, kp := range resp.Keypoints {
		label := kp.Label
		if label == "" {
			label = pose.LabelAt(i)
		}
		keypoints[i] = pose.Keypoint{X: kp.X, Y: kp.Y, Confidence: kp.Confidence, Label: label}
	}

	width, height := resp.Width, resp.Height
	if width <= 0 || height <= 0 {
		width, height = float64(image.Width), float64(image.Height)
	}

	return pose.PoseData{
		Keypoints: keypoints,
		Skeleton:  pose.SkeletonFor(len(keypoints)),
		Width:     width,
		Height:    height,
	}
}
