package service

import (
	"context"
	"fmt"
	"strings"

	"posekit/internal/model"
	"posekit/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CatalogService сервис для работы с темами и тегами
type CatalogService struct {
	catalogRepo repository.CatalogRepository
	logger      *logrus.Logger
}

// NewCatalogService создает новый сервис каталога
func NewCatalogService(catalogRepo repository.CatalogRepository, logger *logrus.Logger) *CatalogService {
	return &CatalogService{
		catalogRepo: catalogRepo,
		logger:      logger,
	}
}

// ListThemes возвращает все темы
func (s *CatalogService) ListThemes(ctx context.Context) ([]*model.Theme, error) {
	themes, err := s.catalogRepo.ListThemes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list themes: %w", err)
	}
	return themes, nil
}

// CreateTheme создает тему
func (s *CatalogService) CreateTheme(ctx context.Context, req *CreateThemeRequest) (*model.Theme, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	slug := slugify(name)
	if slug == "" {
		return nil, invalid("name", "must contain letters or digits")
	}

	theme := &model.Theme{
		ID:          uuid.New().String(),
		Name:        name,
		Slug:        slug,
		Description: req.Description,
	}
	if err := s.catalogRepo.CreateTheme(ctx, theme); err != nil {
		return nil, fmt.Errorf("failed to create theme: %w", err)
	}

	s.logger.Infof("Создана тема %s", theme.Name)
	return theme, nil
}

// DeleteTheme удаляет тему
func (s *CatalogService) DeleteTheme(ctx context.Context, id string) error {
	if err := s.catalogRepo.DeleteTheme(ctx, id); err != nil {
		return fmt.Errorf("failed to delete theme: %w", err)
	}
	s.logger.Infof("Тема %s удалена", id)
	return nil
}

// ListTags возвращает все теги
func (s *CatalogService) ListTags(ctx context.Context) ([]*model.Tag, error) {
	tags, err := s.catalogRepo.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// CreateTag создает тег
func (s *CatalogService) CreateTag(ctx context.Context, req *CreateTagRequest) (*model.Tag, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	names := normalizeTags([]string{req.Name})
	if len(names) == 0 {
		return nil, invalid("name", "is required")
	}

	tag := &model.Tag{Name: names[0]}
	if err := s.catalogRepo.CreateTag(ctx, tag); err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	return tag, nil
}
