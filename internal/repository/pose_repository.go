package repository

import (
	"context"

	"posekit/internal/model"

	"gorm.io/gorm"
)

// PoseFilter параметры выборки поз
type PoseFilter struct {
	Page       int
	PageSize   int
	ThemeID    string
	Tag        string
	Difficulty string
}

// PoseRepository интерфейс для работы с позами
type PoseRepository interface {
	Create(ctx context.Context, pose *model.Pose) error
	GetByID(ctx context.Context, id string) (*model.Pose, error)
	List(ctx context.Context, filter PoseFilter) ([]*model.Pose, int64, error)
	All(ctx context.Context) ([]*model.Pose, error)
	Update(ctx context.Context, pose *model.Pose) error
	Delete(ctx context.Context, id string) error
	AddAsset(ctx context.Context, asset *model.Asset) error
}

// poseRepository реализация PoseRepository
type poseRepository struct {
	db *gorm.DB
}

// NewPoseRepository создает новый instance PoseRepository
func NewPoseRepository(db *gorm.DB) PoseRepository {
	return &poseRepository{
		db: db,
	}
}

// Create создает новую позу вместе с тегами
func (r *poseRepository) Create(ctx context.Context, pose *model.Pose) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return classify(tx.Error, "failed to begin transaction")
	}

	if err := tx.Omit("Assets", "Theme").Create(pose).Error; err != nil {
		tx.Rollback()
		return classify(err, "failed to create pose")
	}

	for i := range pose.Assets {
		pose.Assets[i].PoseID = pose.ID
		if err := tx.Create(&pose.Assets[i]).Error; err != nil {
			tx.Rollback()
			return classify(err, "failed to create asset %d", i)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return classify(err, "failed to commit transaction")
	}

	return nil
}

// GetByID получает позу по ID
func (r *poseRepository) GetByID(ctx context.Context, id string) (*model.Pose, error) {
	var pose model.Pose
	err := r.preload(r.db.WithContext(ctx)).Where("id = ?", id).First(&pose).Error
	if err != nil {
		return nil, classify(err, "failed to get pose %s", id)
	}
	return &pose, nil
}

// List получает список поз с фильтрами и пагинацией
func (r *poseRepository) List(ctx context.Context, filter PoseFilter) ([]*model.Pose, int64, error) {
	var poses []*model.Pose
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Pose{})
	if filter.ThemeID != "" {
		query = query.Where("poses.theme_id = ?", filter.ThemeID)
	}
	if filter.Difficulty != "" {
		query = query.Where("poses.difficulty = ?", filter.Difficulty)
	}
	if filter.Tag != "" {
		query = query.
			Joins("JOIN pose_tags ON pose_tags.pose_id = poses.id").
			Joins("JOIN tags ON tags.id = pose_tags.tag_id").
			Where("tags.name = ?", filter.Tag)
	}

	// Подсчитываем общее количество
	if err := query.Session(&gorm.Session{}).Distinct("poses.id").Count(&total).Error; err != nil {
		return nil, 0, classify(err, "failed to count poses")
	}

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}

	err := r.preload(query).
		Select("poses.*").
		Offset((page - 1) * size).
		Limit(size).
		Order("poses.created_at DESC").
		Find(&poses).Error
	if err != nil {
		return nil, 0, classify(err, "failed to list poses")
	}

	return poses, total, nil
}

// All возвращает все позы каталога
func (r *poseRepository) All(ctx context.Context) ([]*model.Pose, error) {
	var poses []*model.Pose
	if err := r.db.WithContext(ctx).Preload("Tags").Order("created_at ASC").Find(&poses).Error; err != nil {
		return nil, classify(err, "failed to load poses")
	}
	return poses, nil
}

// Update обновляет позу и заменяет набор тегов
func (r *poseRepository) Update(ctx context.Context, pose *model.Pose) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return classify(tx.Error, "failed to begin transaction")
	}

	if err := tx.Omit("Tags", "Assets", "Theme").Save(pose).Error; err != nil {
		tx.Rollback()
		return classify(err, "failed to update pose")
	}

	if err := tx.Model(pose).Association("Tags").Replace(pose.Tags); err != nil {
		tx.Rollback()
		return classify(err, "failed to replace pose tags")
	}

	if err := tx.Commit().Error; err != nil {
		return classify(err, "failed to commit transaction")
	}

	return nil
}

// Delete удаляет позу по ID
func (r *poseRepository) Delete(ctx context.Context, id string) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return classify(tx.Error, "failed to begin transaction")
	}

	// Сначала удаляем файлы и связи с тегами
	if err := tx.Where("pose_id = ?", id).Delete(&model.Asset{}).Error; err != nil {
		tx.Rollback()
		return classify(err, "failed to delete assets")
	}

	if err := tx.Model(&model.Pose{ID: id}).Association("Tags").Clear(); err != nil {
		tx.Rollback()
		return classify(err, "failed to clear pose tags")
	}

	// Затем удаляем позу
	result := tx.Where("id = ?", id).Delete(&model.Pose{})
	if result.Error != nil {
		tx.Rollback()
		return classify(result.Error, "failed to delete pose")
	}

	if result.RowsAffected == 0 {
		tx.Rollback()
		return classify(gorm.ErrRecordNotFound, "pose with id %s", id)
	}

	if err := tx.Commit().Error; err != nil {
		return classify(err, "failed to commit transaction")
	}

	return nil
}

// AddAsset сохраняет файл позы
func (r *poseRepository) AddAsset(ctx context.Context, asset *model.Asset) error {
	if err := r.db.WithContext(ctx).Create(asset).Error; err != nil {
		return classify(err, "failed to create asset")
	}
	return nil
}

func (r *poseRepository) preload(db *gorm.DB) *gorm.DB {
	return db.Preload("Tags").Preload("Assets").Preload("Theme")
}
