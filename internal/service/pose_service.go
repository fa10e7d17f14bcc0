package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"posekit/internal/model"
	"posekit/internal/pose"
	"posekit/internal/repository"

	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"
	"github.com/sirupsen/logrus"
)

// PoseService сервис для работы с позами каталога
type PoseService struct {
	poseRepo    repository.PoseRepository
	catalogRepo repository.CatalogRepository
	logger      *logrus.Logger
	staticDir   string
}

// NewPoseService создает новый сервис для работы с позами
func NewPoseService(poseRepo repository.PoseRepository, catalogRepo repository.CatalogRepository, logger *logrus.Logger, staticDir string) *PoseService {
	return &PoseService{
		poseRepo:    poseRepo,
		catalogRepo: catalogRepo,
		logger:      logger,
		staticDir:   staticDir,
	}
}

// CreatePose создает позу. Точки проверяются до сохранения.
func (s *PoseService) CreatePose(ctx context.Context, req *CreatePoseRequest) (*model.Pose, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	keypoints, err := decodeKeypoints(req.Keypoints)
	if err != nil {
		return nil, err
	}

	return s.create(ctx, newPoseFields{
		title:       req.Title,
		description: req.Description,
		prompt:      req.Prompt,
		difficulty:  req.Difficulty,
		themeID:     req.ThemeID,
		tags:        req.Tags,
		keypoints:   keypoints,
	})
}

type newPoseFields struct {
	title       string
	description string
	prompt      string
	difficulty  string
	themeID     *string
	tags        []string
	keypoints   pose.PoseData
}

func (s *PoseService) create(ctx context.Context, f newPoseFields) (*model.Pose, error) {
	if err := s.checkTheme(ctx, f.themeID); err != nil {
		return nil, err
	}

	tags, err := s.catalogRepo.EnsureTags(ctx, normalizeTags(f.tags))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tags: %w", err)
	}

	difficulty := f.difficulty
	if difficulty == "" {
		difficulty = model.DifficultyMedium
	}

	id := uuid.New().String()
	p := &model.Pose{
		ID:          id,
		Slug:        poseSlug(f.title, id),
		Title:       strings.TrimSpace(f.title),
		Description: f.description,
		Prompt:      f.prompt,
		Difficulty:  difficulty,
		Keypoints:   f.keypoints,
		ThemeID:     f.themeID,
		Tags:        tags,
	}

	s.logger.Infof("Сохраняем позу %s (%s) в БД", p.ID, p.Title)
	if err := s.poseRepo.Create(ctx, p); err != nil {
		s.logger.Errorf("Ошибка сохранения позы в БД: %v", err)
		return nil, fmt.Errorf("failed to save pose: %w", err)
	}

	return s.poseRepo.GetByID(ctx, id)
}

// GetPose получает позу по ID
func (s *PoseService) GetPose(ctx context.Context, id string) (*model.Pose, error) {
	p, err := s.poseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get pose: %w", err)
	}
	return p, nil
}

// ListPoses получает список поз с фильтрами и пагинацией
func (s *PoseService) ListPoses(ctx context.Context, filter repository.PoseFilter) (*ListPosesResponse, error) {
	s.logger.Debugf("Получаем список поз: страница %d, размер %d", filter.Page, filter.PageSize)

	poses, total, err := s.poseRepo.List(ctx, filter)
	if err != nil {
		s.logger.Errorf("Ошибка получения списка поз: %v", err)
		return nil, fmt.Errorf("failed to list poses: %w", err)
	}

	return &ListPosesResponse{
		Poses: poses,
		Total: total,
		Page:  filter.Page,
		Size:  filter.PageSize,
	}, nil
}

// UpdatePose обновляет заданные поля позы
func (s *PoseService) UpdatePose(ctx context.Context, id string, req *UpdatePoseRequest) (*model.Pose, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	p, err := s.poseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get pose for update: %w", err)
	}

	if req.Title != nil {
		p.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Prompt != nil {
		p.Prompt = *req.Prompt
	}
	if req.Difficulty != nil {
		p.Difficulty = *req.Difficulty
	}
	if req.ThemeID != nil {
		if *req.ThemeID == "" {
			p.ThemeID = nil
		} else {
			if err := s.checkTheme(ctx, req.ThemeID); err != nil {
				return nil, err
			}
			p.ThemeID = req.ThemeID
		}
		p.Theme = nil
	}
	if req.Tags != nil {
		tags, err := s.catalogRepo.EnsureTags(ctx, normalizeTags(req.Tags))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve tags: %w", err)
		}
		p.Tags = tags
	}
	if len(req.Keypoints) > 0 {
		keypoints, err := decodeKeypoints(req.Keypoints)
		if err != nil {
			return nil, err
		}
		p.Keypoints = keypoints
	}

	if err := s.poseRepo.Update(ctx, p); err != nil {
		s.logger.Errorf("Ошибка обновления позы %s: %v", id, err)
		return nil, fmt.Errorf("failed to update pose: %w", err)
	}

	return s.poseRepo.GetByID(ctx, id)
}

// SetKeypoints заменяет скелет позы
func (s *PoseService) SetKeypoints(ctx context.Context, id string, keypoints pose.PoseData) (*model.Pose, error) {
	if err := keypoints.Check(); err != nil {
		return nil, invalid("keypoints", "%v", err)
	}

	p, err := s.poseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get pose: %w", err)
	}

	p.Keypoints = keypoints
	if err := s.poseRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update keypoints: %w", err)
	}
	return s.poseRepo.GetByID(ctx, id)
}

// SetPrompt сохраняет текст промпта позы
func (s *PoseService) SetPrompt(ctx context.Context, id, prompt string) (*model.Pose, error) {
	p, err := s.poseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get pose: %w", err)
	}

	p.Prompt = prompt
	if err := s.poseRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update prompt: %w", err)
	}
	return p, nil
}

// DeletePose удаляет позу и ее файлы
func (s *PoseService) DeletePose(ctx context.Context, id string) error {
	s.logger.Infof("Удаляем позу %s", id)

	if err := s.poseRepo.Delete(ctx, id); err != nil {
		s.logger.Errorf("Ошибка удаления позы из БД: %v", err)
		return fmt.Errorf("failed to delete pose: %w", err)
	}

	// Удаляем файлы позы, если они есть
	dir := poseDir(s.staticDir, id)
	if err := os.RemoveAll(dir); err != nil {
		s.logger.Warnf("Не удалось удалить файлы позы %s: %v", dir, err)
	}

	s.logger.Infof("Поза %s успешно удалена", id)
	return nil
}

// Variants строит фиксированный набор вариантов сохраненной позы
func (s *PoseService) Variants(ctx context.Context, id string) ([]pose.Variation, error) {
	p, err := s.poseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get pose: %w", err)
	}

	variations, err := pose.GenerateVariations(p.ID, p.Keypoints)
	if err != nil {
		return nil, fmt.Errorf("failed to generate variations: %w", err)
	}
	return variations, nil
}

// Transform применяет преобразования к сохраненной позе, не изменяя ее
func (s *PoseService) Transform(ctx context.Context, id string, req *TransformRequest) (pose.PoseData, error) {
	p, err := s.poseRepo.GetByID(ctx, id)
	if err != nil {
		return pose.PoseData{}, fmt.Errorf("failed to get pose: %w", err)
	}

	out, err := pose.Transform(p.Keypoints, pose.TransformOptions{
		Mirror:   req.Mirror,
		Scale:    req.Scale,
		Rotation: req.Rotation,
	})
	if err != nil {
		return pose.PoseData{}, fmt.Errorf("failed to transform pose: %w", err)
	}
	return out, nil
}

// FindSimilar ищет в каталоге позы, похожие на заданную
func (s *PoseService) FindSimilar(ctx context.Context, id string, threshold float64, limit int) ([]SimilarPose, error) {
	if threshold < 0 || threshold > 1 {
		return nil, invalid("threshold", "must be between 0 and 1")
	}

	target, err := s.poseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get pose: %w", err)
	}

	all, err := s.poseRepo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	byID := make(map[string]*model.Pose, len(all))
	candidates := make([]pose.Candidate, 0, len(all))
	for _, p := range all {
		if p.ID == target.ID {
			continue
		}
		byID[p.ID] = p
		candidates = append(candidates, pose.Candidate{ID: p.ID, Pose: p.Keypoints})
	}

	matches := pose.FindSimilar(target.Keypoints, candidates, threshold, limit)
	out := make([]SimilarPose, len(matches))
	for i, m := range matches {
		p := byID[m.Candidate.ID]
		out[i] = SimilarPose{ID: p.ID, Slug: p.Slug, Title: p.Title, Score: m.Score}
	}

	s.logger.Debugf("Найдено %d похожих поз для %s", len(out), id)
	return out, nil
}

// ExportOpenPose возвращает скелет позы в формате OpenPose
func (s *PoseService) ExportOpenPose(ctx context.Context, id string) (pose.OpenPoseDocument, error) {
	p, err := s.poseRepo.GetByID(ctx, id)
	if err != nil {
		return pose.OpenPoseDocument{}, fmt.Errorf("failed to get pose: %w", err)
	}
	return pose.ToOpenPose(p.Keypoints), nil
}

// ImportOpenPose создает позу из документа OpenPose
func (s *PoseService) ImportOpenPose(ctx context.Context, req *ImportOpenPoseRequest) (*model.Pose, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	keypoints, ok := pose.ParseOpenPose(req.Document)
	if !ok {
		return nil, invalid("document", "is not an OpenPose document with %d body keypoints", pose.COCOKeypointCount)
	}

	return s.create(ctx, newPoseFields{
		title:      req.Title,
		difficulty: req.Difficulty,
		themeID:    req.ThemeID,
		tags:       req.Tags,
		keypoints:  keypoints,
	})
}

// ImportBatch последовательно импортирует файлы OpenPose. Ошибка одного
// файла не прерывает пакет; progress вызывается после каждого файла.
func (s *PoseService) ImportBatch(ctx context.Context, files []BatchFile, defaults BatchDefaults, progress func(BatchProgress)) (*BatchSummary, error) {
	if err := validateStruct(defaults); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, invalid("files", "is required")
	}

	summary := &BatchSummary{Total: len(files), PoseIDs: []string{}}
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		event := BatchProgress{Index: i + 1, Total: len(files), Filename: file.Name}
		p, err := s.ImportOpenPose(ctx, &ImportOpenPoseRequest{
			Title:      titleFromFilename(file.Name),
			Difficulty: defaults.Difficulty,
			ThemeID:    defaults.ThemeID,
			Tags:       defaults.Tags,
			Document:   file.Data,
		})
		if err != nil {
			s.logger.Warnf("Файл %s пропущен: %v", file.Name, err)
			event.Status = BatchStatusFailed
			event.Error = err.Error()
			summary.Failed++
		} else {
			event.Status = BatchStatusCreated
			event.PoseID = p.ID
			summary.Created++
			summary.PoseIDs = append(summary.PoseIDs, p.ID)
		}

		if progress != nil {
			progress(event)
		}
	}

	s.logger.Infof("Пакетный импорт завершен: %d создано, %d с ошибками", summary.Created, summary.Failed)
	return summary, nil
}

// poseSource адаптирует позы к fuzzy.Source
type poseSource []*model.Pose

func (p poseSource) String(i int) string {
	parts := []string{p[i].Title, p[i].Description}
	for _, tag := range p[i].Tags {
		parts = append(parts, tag.Name)
	}
	return strings.Join(parts, " ")
}

func (p poseSource) Len() int { return len(p) }

// Search выполняет нечеткий поиск по заголовку, описанию и тегам
func (s *PoseService) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalid("q", "is required")
	}

	all, err := s.poseRepo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	matches := fuzzy.FindFrom(query, poseSource(all))
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		results[i] = SearchResult{Pose: all[m.Index], Score: m.Score}
	}
	return results, nil
}

func (s *PoseService) checkTheme(ctx context.Context, themeID *string) error {
	if themeID == nil {
		return nil
	}
	if _, err := s.catalogRepo.GetTheme(ctx, *themeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("theme_id", "theme %s does not exist", *themeID)
		}
		return fmt.Errorf("failed to check theme: %w", err)
	}
	return nil
}

// poseDir каталог файлов позы
func poseDir(staticDir, id string) string {
	return filepath.Join(staticDir, "poses", id)
}

// titleFromFilename делает заголовок из имени файла: "warrior_ii.json" -> "warrior ii"
func titleFromFilename(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	if base == "" {
		return "Imported pose"
	}
	return base
}
