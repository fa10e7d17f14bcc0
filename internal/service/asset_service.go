package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"posekit/internal/model"
	"posekit/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ThumbnailMaxSide наибольшая сторона миниатюры в пикселях
const ThumbnailMaxSide = 320

// MaxImageBytes предельный размер загружаемого изображения
const MaxImageBytes = 20 << 20

// AssetService сервис для работы с изображениями поз
type AssetService struct {
	poseRepo  repository.PoseRepository
	logger    *logrus.Logger
	staticDir string
}

// NewAssetService создает новый сервис изображений
func NewAssetService(poseRepo repository.PoseRepository, logger *logrus.Logger, staticDir string) *AssetService {
	return &AssetService{
		poseRepo:  poseRepo,
		logger:    logger,
		staticDir: staticDir,
	}
}

// UploadImage сохраняет изображение позы и генерирует миниатюру.
// Возвращает оба созданных файла: изображение и миниатюру.
func (s *AssetService) UploadImage(ctx context.Context, poseID, filename string, r io.Reader) ([]model.Asset, error) {
	if _, err := s.poseRepo.GetByID(ctx, poseID); err != nil {
		return nil, fmt.Errorf("failed to get pose: %w", err)
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, invalid("image", "must be at most %d bytes", MaxImageBytes)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, invalid("image", "unsupported image format")
	}

	dir := poseDir(s.staticDir, poseID)
	s.logger.Infof("Сохраняем изображение %s в %s", filename, dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create pose directory: %w", err)
	}

	assetID := uuid.New().String()
	imagePath := filepath.Join(dir, assetID+"."+format)
	if err := os.WriteFile(imagePath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write image: %w", err)
	}

	thumb := Thumbnail(img, ThumbnailMaxSide)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 85}); err != nil {
		os.Remove(imagePath)
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	thumbID := uuid.New().String()
	thumbPath := filepath.Join(dir, thumbID+".jpg")
	if err := os.WriteFile(thumbPath, buf.Bytes(), 0644); err != nil {
		os.Remove(imagePath)
		return nil, fmt.Errorf("failed to write thumbnail: %w", err)
	}

	bounds := img.Bounds()
	assets := []model.Asset{
		{
			ID:          assetID,
			PoseID:      poseID,
			Kind:        model.AssetKindImage,
			Filename:    filepath.Base(filename),
			Path:        imagePath,
			ContentType: "image/" + format,
			Width:       bounds.Dx(),
			Height:      bounds.Dy(),
			SizeBytes:   int64(len(data)),
		},
		{
			ID:          thumbID,
			PoseID:      poseID,
			Kind:        model.AssetKindThumbnail,
			Filename:    thumbnailFilename(filename),
			Path:        thumbPath,
			ContentType: "image/jpeg",
			Width:       thumb.Bounds().Dx(),
			Height:      thumb.Bounds().Dy(),
			SizeBytes:   int64(buf.Len()),
		},
	}

	for i := range assets {
		if err := s.poseRepo.AddAsset(ctx, &assets[i]); err != nil {
			s.logger.Errorf("Ошибка сохранения файла в БД: %v", err)
			// Удаляем файлы, если запись в БД не удалась
			os.Remove(imagePath)
			os.Remove(thumbPath)
			return nil, fmt.Errorf("failed to save asset: %w", err)
		}
	}

	s.logger.Infof("Изображение %dx%d сохранено, миниатюра %dx%d",
		assets[0].Width, assets[0].Height, assets[1].Width, assets[1].Height)
	return assets, nil
}

// thumbnailFilename имя миниатюры: миниатюры кодируются в JPEG
func thumbnailFilename(filename string) string {
	base := filepath.Base(filename)
	return "thumb_" + strings.TrimSuffix(base, filepath.Ext(base)) + ".jpg"
}

// Thumbnail уменьшает изображение так, чтобы большая сторона не превышала
// maxSide. Пропорции сохраняются, маленькие изображения не увеличиваются.
func Thumbnail(src image.Image, maxSide int) *image.RGBA {
	b := src.Bounds()
	w, h := thumbnailSize(b.Dx(), b.Dy(), maxSide)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

func thumbnailSize(width, height, maxSide int) (int, int) {
	if width <= maxSide && height <= maxSide {
		return width, height
	}

	ratio := float64(maxSide) / float64(max(width, height))
	w := int(math.Round(float64(width) * ratio))
	h := int(math.Round(float64(height) * ratio))
	return max(w, 1), max(h, 1)
}
