package service

import (
	"encoding/json"

	"posekit/internal/model"
	"posekit/internal/pose"
	"posekit/pkg/models"
)

// CreatePoseRequest запрос на создание позы
type CreatePoseRequest struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Description string          `json:"description"`
	Prompt      string          `json:"prompt"`
	Difficulty  string          `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	ThemeID     *string         `json:"theme_id"`
	Tags        []string        `json:"tags" validate:"dive,max=100"`
	Keypoints   json.RawMessage `json:"keypoints"`
}

// UpdatePoseRequest частичное обновление позы. Пустые поля не меняются.
type UpdatePoseRequest struct {
	Title       *string         `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string         `json:"description"`
	Prompt      *string         `json:"prompt"`
	Difficulty  *string         `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	ThemeID     *string         `json:"theme_id"`
	Tags        []string        `json:"tags" validate:"omitempty,dive,max=100"`
	Keypoints   json.RawMessage `json:"keypoints"`
}

// ImportOpenPoseRequest запрос на создание позы из документа OpenPose
type ImportOpenPoseRequest struct {
	Title      string          `json:"title" validate:"required,max=255"`
	Difficulty string          `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	ThemeID    *string         `json:"theme_id"`
	Tags       []string        `json:"tags" validate:"dive,max=100"`
	Document   json.RawMessage `json:"document" validate:"required"`
}

// TransformRequest параметры преобразования сохраненной позы
type TransformRequest struct {
	Mirror   bool       `json:"mirror"`
	Scale    *pose.Size `json:"scale"`
	Rotation *float64   `json:"rotation"`
}

// ListPosesResponse ответ со списком поз
type ListPosesResponse struct {
	Poses []*model.Pose `json:"poses"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Size  int           `json:"size"`
}

// SimilarPose поза каталога, похожая на заданную
type SimilarPose struct {
	ID    string  `json:"id"`
	Slug  string  `json:"slug"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// SearchResult результат нечеткого поиска
type SearchResult struct {
	Pose  *model.Pose `json:"pose"`
	Score int         `json:"score"`
}

// BatchFile файл пакетного импорта
type BatchFile struct {
	Name string
	Data []byte
}

// BatchDefaults общие поля для всех поз пакета
type BatchDefaults struct {
	Difficulty string   `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	ThemeID    *string  `json:"theme_id"`
	Tags       []string `json:"tags" validate:"dive,max=100"`
}

// Статусы элементов пакетного импорта
const (
	BatchStatusCreated = "created"
	BatchStatusFailed  = "failed"
)

// BatchProgress событие прогресса пакетного импорта
type BatchProgress struct {
	Index    int    `json:"index"`
	Total    int    `json:"total"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
	PoseID   string `json:"pose_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// BatchSummary итог пакетного импорта
type BatchSummary struct {
	Total   int      `json:"total"`
	Created int      `json:"created"`
	Failed  int      `json:"failed"`
	PoseIDs []string `json:"pose_ids"`
}

// RegisterRequest запрос на регистрацию
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest запрос на вход
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse пользователь и токен доступа
type LoginResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// UpdateRoleRequest запрос на смену роли
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin editor viewer"`
}

// CreateThemeRequest запрос на создание темы
type CreateThemeRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
}

// CreateTagRequest запрос на создание тега
type CreateTagRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// HealthStatus состояние сервиса и зависимостей
type HealthStatus struct {
	Status   string                 `json:"status"`
	Database string                 `json:"database"`
	Detector *models.HealthResponse `json:"detector"`
}
