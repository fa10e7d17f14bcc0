package service

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"posekit/internal/model"
	"posekit/internal/pose"

	"github.com/sirupsen/logrus"
)

// ExportService собирает ZIP архив позы
type ExportService struct {
	logger *logrus.Logger
}

// NewExportService создает новый сервис экспорта
func NewExportService(logger *logrus.Logger) *ExportService {
	return &ExportService{
		logger: logger,
	}
}

// ArchiveName имя файла архива позы
func ArchiveName(p *model.Pose) string {
	return p.Slug + ".zip"
}

// WriteArchive пишет архив: pose.json, openpose.json, variants/<kind>.json
// и images/<kind>_<asset id>_<name>. Отсутствующие на диске файлы пропускаются.
func (s *ExportService) WriteArchive(p *model.Pose, w io.Writer) error {
	zw := zip.NewWriter(w)

	if err := writeJSON(zw, "pose.json", p); err != nil {
		return err
	}
	if err := writeJSON(zw, "openpose.json", pose.ToOpenPose(p.Keypoints)); err != nil {
		return err
	}

	variations, err := pose.GenerateVariations(p.ID, p.Keypoints)
	if err != nil {
		// у позы без кадра вариантов нет, архив остается полезным
		s.logger.Warnf("Варианты позы %s не построены: %v", p.ID, err)
	}
	kinds := pose.VariationKinds()
	for i, v := range variations {
		if err := writeJSON(zw, path.Join("variants", kinds[i]+".json"), v); err != nil {
			return err
		}
	}

	for _, asset := range p.Assets {
		name := archiveImageName(asset)
		if err := copyFile(zw, name, asset.Path); err != nil {
			if os.IsNotExist(err) {
				s.logger.Warnf("Файл %s отсутствует на диске, пропускаем", asset.Path)
				continue
			}
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}

	s.logger.Infof("Архив позы %s собран: %d вариантов, %d файлов", p.ID, len(variations), len(p.Assets))
	return nil
}

// archiveImageName уникальное имя файла в архиве. Расширение берется из
// сохраненного файла, миниатюры всегда JPEG.
func archiveImageName(asset model.Asset) string {
	ext := filepath.Ext(asset.Path)
	if asset.Kind == model.AssetKindThumbnail {
		ext = ".jpg"
	}
	stem := strings.TrimSuffix(filepath.Base(asset.Filename), filepath.Ext(asset.Filename))
	return path.Join("images", asset.Kind+"_"+asset.ID+"_"+stem+ext)
}

func writeJSON(zw *zip.Writer, name string, v any) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func copyFile(zw *zip.Writer, name, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := io.Copy(f, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return nil
}
