package model

import (
	"time"

	"posekit/internal/pose"

	"gorm.io/gorm"
)

// Уровни сложности позы
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Pose представляет позу каталога в базе данных
type Pose struct {
	ID          string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Slug        string `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	Title       string `gorm:"type:varchar(255);not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Prompt      string `gorm:"type:text" json:"prompt"`
	Difficulty  string `gorm:"type:varchar(16);not null;default:'medium'" json:"difficulty"`

	// Скелет позы хранится как JSON
	Keypoints pose.PoseData `gorm:"type:jsonb;serializer:json" json:"keypoints"`

	ThemeID *string `gorm:"type:varchar(36);index" json:"theme_id,omitempty"`
	Theme   *Theme  `gorm:"foreignKey:ThemeID;references:ID" json:"theme,omitempty"`

	Tags   []Tag   `gorm:"many2many:pose_tags;constraint:OnDelete:CASCADE" json:"tags"`
	Assets []Asset `gorm:"foreignKey:PoseID;constraint:OnDelete:CASCADE" json:"assets"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// Типы файлов позы
const (
	AssetKindImage     = "image"
	AssetKindThumbnail = "thumbnail"
)

// Asset файл, привязанный к позе
type Asset struct {
	ID          string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PoseID      string `gorm:"type:varchar(36);not null;index" json:"pose_id"`
	Kind        string `gorm:"type:varchar(16);not null" json:"kind"`
	Filename    string `gorm:"type:varchar(255)" json:"filename"`
	Path        string `gorm:"type:varchar(500)" json:"path"`
	ContentType string `gorm:"type:varchar(100)" json:"content_type"`
	Width       int    `gorm:"not null;default:0" json:"width"`
	Height      int    `gorm:"not null;default:0" json:"height"`
	SizeBytes   int64  `gorm:"not null;default:0" json:"size_bytes"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Theme тематическая коллекция поз
type Theme struct {
	ID          string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	Slug        string `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	Description string `gorm:"type:text" json:"description"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Tag метка позы
type Tag struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName указывает имя таблицы для Pose
func (Pose) TableName() string {
	return "poses"
}

// TableName указывает имя таблицы для Asset
func (Asset) TableName() string {
	return "assets"
}

// TableName указывает имя таблицы для Theme
func (Theme) TableName() string {
	return "themes"
}

// TableName указывает имя таблицы для Tag
func (Tag) TableName() string {
	return "tags"
}
