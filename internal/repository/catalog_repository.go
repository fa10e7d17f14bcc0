package repository

import (
	"context"

	"posekit/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogRepository интерфейс для работы с темами и тегами
type CatalogRepository interface {
	CreateTheme(ctx context.Context, theme *model.Theme) error
	GetTheme(ctx context.Context, id string) (*model.Theme, error)
	ListThemes(ctx context.Context) ([]*model.Theme, error)
	DeleteTheme(ctx context.Context, id string) error
	CreateTag(ctx context.Context, tag *model.Tag) error
	ListTags(ctx context.Context) ([]*model.Tag, error)
	EnsureTags(ctx context.Context, names []string) ([]model.Tag, error)
}

// catalogRepository реализация CatalogRepository
type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository создает новый instance CatalogRepository
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{
		db: db,
	}
}

// CreateTheme создает тему
func (r *catalogRepository) CreateTheme(ctx context.Context, theme *model.Theme) error {
	if err := r.db.WithContext(ctx).Create(theme).Error; err != nil {
		return classify(err, "failed to create theme")
	}
	return nil
}

// GetTheme получает тему по ID
func (r *catalogRepository) GetTheme(ctx context.Context, id string) (*model.Theme, error) {
	var theme model.Theme
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&theme).Error; err != nil {
		return nil, classify(err, "failed to get theme %s", id)
	}
	return &theme, nil
}

// ListThemes возвращает все темы по имени
func (r *catalogRepository) ListThemes(ctx context.Context) ([]*model.Theme, error) {
	var themes []*model.Theme
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&themes).Error; err != nil {
		return nil, classify(err, "failed to list themes")
	}
	return themes, nil
}

// DeleteTheme удаляет тему, позы темы остаются без темы
func (r *catalogRepository) DeleteTheme(ctx context.Context, id string) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return classify(tx.Error, "failed to begin transaction")
	}

	if err := tx.Model(&model.Pose{}).Where("theme_id = ?", id).Update("theme_id", nil).Error; err != nil {
		tx.Rollback()
		return classify(err, "failed to detach poses from theme")
	}

	result := tx.Where("id = ?", id).Delete(&model.Theme{})
	if result.Error != nil {
		tx.Rollback()
		return classify(result.Error, "failed to delete theme")
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return classify(gorm.ErrRecordNotFound, "theme with id %s", id)
	}

	if err := tx.Commit().Error; err != nil {
		return classify(err, "failed to commit transaction")
	}
	return nil
}

// CreateTag создает тег
func (r *catalogRepository) CreateTag(ctx context.Context, tag *model.Tag) error {
	if err := r.db.WithContext(ctx).Create(tag).Error; err != nil {
		return classify(err, "failed to create tag")
	}
	return nil
}

// ListTags возвращает все теги по имени
func (r *catalogRepository) ListTags(ctx context.Context) ([]*model.Tag, error) {
	var tags []*model.Tag
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, classify(err, "failed to list tags")
	}
	return tags, nil
}

// EnsureTags возвращает теги с указанными именами, создавая недостающие
func (r *catalogRepository) EnsureTags(ctx context.Context, names []string) ([]model.Tag, error) {
	if len(names) == 0 {
		return []model.Tag{}, nil
	}

	rows := make([]model.Tag, len(names))
	for i, name := range names {
		rows[i] = model.Tag{Name: name}
	}

	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return nil, classify(err, "failed to create tags")
	}

	var tags []model.Tag
	if err := db.Where("name IN ?", names).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, classify(err, "failed to load tags")
	}
	return tags, nil
}
