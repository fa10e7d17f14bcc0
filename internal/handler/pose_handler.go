package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"posekit/internal/model"
	"posekit/internal/repository"
	"posekit/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PoseHandler обрабатывает HTTP запросы для работы с позами
type PoseHandler struct {
	poseService     *service.PoseService
	assetService    *service.AssetService
	exportService   *service.ExportService
	detectorService *service.DetectorService
	promptService   *service.PromptService
	logger          *logrus.Logger
}

// NewPoseHandler создает новый экземпляр PoseHandler
func NewPoseHandler(
	poseService *service.PoseService,
	assetService *service.AssetService,
	exportService *service.ExportService,
	detectorService *service.DetectorService,
	promptService *service.PromptService,
	logger *logrus.Logger,
) *PoseHandler {
	return &PoseHandler{
		poseService:     poseService,
		assetService:    assetService,
		exportService:   exportService,
		detectorService: detectorService,
		promptService:   promptService,
		logger:          logger,
	}
}

// RegisterRoutes регистрирует маршруты API поз
func (h *PoseHandler) RegisterRoutes(router *gin.Engine, auth *Authenticator) {
	api := router.Group("/api/v1")
	{
		api.GET("/poses", h.ListPoses)
		api.GET("/poses/search", h.SearchPoses)
		api.GET("/poses/:id", h.GetPose)
		api.GET("/poses/:id/variants", h.GetVariants)
		api.POST("/poses/:id/transform", h.TransformPose)
		api.GET("/poses/:id/similar", h.GetSimilar)
		api.GET("/poses/:id/openpose", h.ExportOpenPose)
		api.GET("/poses/:id/export", h.ExportArchive)
	}

	editor := api.Group("", auth.Authenticate(), auth.RequireRole(model.RoleEditor, model.RoleAdmin))
	{
		editor.POST("/poses", h.CreatePose)
		editor.PUT("/poses/:id", h.UpdatePose)
		editor.DELETE("/poses/:id", h.DeletePose)
		editor.POST("/poses/import/openpose", h.ImportOpenPose)
		editor.POST("/poses/batch", h.ImportBatch)
		editor.POST("/poses/:id/assets", h.UploadAsset)
		editor.POST("/poses/:id/detect", h.DetectKeypoints)
		editor.POST("/poses/:id/prompt", h.DraftPrompt)
	}
}

// ListPoses возвращает список поз с фильтрами и пагинацией
func (h *PoseHandler) ListPoses(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	size, err := strconv.Atoi(c.DefaultQuery("size", "20"))
	if err != nil || size < 1 || size > 100 {
		size = 20
	}

	filter := repository.PoseFilter{
		Page:       page,
		PageSize:   size,
		ThemeID:    c.Query("theme"),
		Tag:        c.Query("tag"),
		Difficulty: c.Query("difficulty"),
	}

	response, err := h.poseService.ListPoses(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err, "Ошибка получения списка поз")
		return
	}

	c.JSON(http.StatusOK, response)
}

// SearchPoses выполняет нечеткий поиск по каталогу
func (h *PoseHandler) SearchPoses(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}

	results, err := h.poseService.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, h.logger, err, "Ошибка поиска")
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "total": len(results)})
}

// GetPose возвращает позу по ID
func (h *PoseHandler) GetPose(c *gin.Context) {
	p, err := h.poseService.GetPose(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "Ошибка получения позы")
		return
	}

	c.JSON(http.StatusOK, p)
}

// CreatePose создает позу
func (h *PoseHandler) CreatePose(c *gin.Context) {
	var req service.CreatePoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат запроса"})
		return
	}

	p, err := h.poseService.CreatePose(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err, "Ошибка создания позы")
		return
	}

	h.logger.Infof("Поза %s создана", p.ID)
	c.JSON(http.StatusCreated, p)
}

// UpdatePose обновляет позу
func (h *PoseHandler) UpdatePose(c *gin.Context) {
	var req service.UpdatePoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат запроса"})
		return
	}

	p, err := h.poseService.UpdatePose(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, h.logger, err, "Ошибка обновления позы")
		return
	}

	c.JSON(http.StatusOK, p)
}

// DeletePose удаляет позу
func (h *PoseHandler) DeletePose(c *gin.Context) {
	if err := h.poseService.DeletePose(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, "Ошибка удаления позы")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Поза успешно удалена"})
}

// GetVariants возвращает фиксированный набор вариантов позы
func (h *PoseHandler) GetVariants(c *gin.Context) {
	variations, err := h.poseService.Variants(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "Ошибка построения вариантов")
		return
	}

	c.JSON(http.StatusOK, gin.H{"variants": variations})
}

// TransformPose применяет преобразования к позе
func (h *PoseHandler) TransformPose(c *gin.Context) {
	var req service.TransformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат запроса"})
		return
	}

	out, err := h.poseService.Transform(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, h.logger, err, "Ошибка преобразования позы")
		return
	}

	c.JSON(http.StatusOK, out)
}

// GetSimilar возвращает похожие позы каталога
func (h *PoseHandler) GetSimilar(c *gin.Context) {
	threshold, err := strconv.ParseFloat(c.DefaultQuery("threshold", "0.5"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат threshold"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат limit"})
		return
	}

	matches, err := h.poseService.FindSimilar(c.Request.Context(), c.Param("id"), threshold, limit)
	if err != nil {
		respondError(c, h.logger, err, "Ошибка поиска похожих поз")
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": matches, "total": len(matches)})
}

// ExportOpenPose возвращает скелет позы в формате OpenPose
func (h *PoseHandler) ExportOpenPose(c *gin.Context) {
	doc, err := h.poseService.ExportOpenPose(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "Ошибка экспорта OpenPose")
		return
	}

	c.JSON(http.StatusOK, doc)
}

// ImportOpenPose создает позу из документа OpenPose
func (h *PoseHandler) ImportOpenPose(c *gin.Context) {
	var req service.ImportOpenPoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат запроса"})
		return
	}

	p, err := h.poseService.ImportOpenPose(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err, "Ошибка импорта OpenPose")
		return
	}

	c.JSON(http.StatusCreated, p)
}

// UploadAsset загружает изображение позы
func (h *PoseHandler) UploadAsset(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		h.logger.Errorf("Ошибка парсинга multipart form: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ошибка парсинга формы"})
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Файл изображения обязателен"})
		return
	}
	defer file.Close()

	assets, err := h.assetService.UploadImage(c.Request.Context(), c.Param("id"), header.Filename, file)
	if err != nil {
		respondError(c, h.logger, err, "Ошибка сохранения изображения")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"assets": assets})
}

// DetectKeypoints распознает скелет на основном изображении позы
func (h *PoseHandler) DetectKeypoints(c *gin.Context) {
	p, err := h.detectorService.DetectPose(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "Ошибка распознавания скелета")
		return
	}

	c.JSON(http.StatusOK, p)
}

// DraftPrompt генерирует промпт для позы
func (h *PoseHandler) DraftPrompt(c *gin.Context) {
	p, err := h.promptService.DraftPrompt(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "Ошибка генерации промпта")
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": p.ID, "prompt": p.Prompt})
}

// ExportArchive отдает ZIP архив позы
func (h *PoseHandler) ExportArchive(c *gin.Context) {
	p, err := h.poseService.GetPose(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "Ошибка экспорта позы")
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", service.ArchiveName(p)))
	c.Status(http.StatusOK)

	if err := h.exportService.WriteArchive(p, c.Writer); err != nil {
		// заголовки уже отправлены, остается только записать в лог
		h.logger.Errorf("Ошибка записи архива позы %s: %v", p.ID, err)
	}
}

// ImportBatch импортирует пакет файлов OpenPose, прогресс передается через SSE
func (h *PoseHandler) ImportBatch(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(64 << 20); err != nil {
		h.logger.Errorf("Ошибка парсинга multipart form: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ошибка парсинга формы"})
		return
	}

	files, err := readBatchFiles(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	defaults := service.BatchDefaults{
		Difficulty: c.PostForm("difficulty"),
		Tags:       splitList(c.PostForm("tags")),
	}
	if themeID := c.PostForm("theme_id"); themeID != "" {
		defaults.ThemeID = &themeID
	}

	h.logger.Infof("Пакетный импорт: %d файлов", len(files))
	summary, err := h.poseService.ImportBatch(c.Request.Context(), files, defaults, func(p service.BatchProgress) {
		c.SSEvent("progress", p)
		c.Writer.Flush()
	})
	if err != nil {
		if !c.Writer.Written() {
			respondError(c, h.logger, err, "Ошибка пакетного импорта")
			return
		}
		c.SSEvent("error", gin.H{"error": err.Error()})
		c.Writer.Flush()
		return
	}

	c.SSEvent("complete", summary)
	c.Writer.Flush()
}

// readBatchFiles читает все файлы поля "files"
func readBatchFiles(c *gin.Context) ([]service.BatchFile, error) {
	if c.Request.MultipartForm == nil || len(c.Request.MultipartForm.File["files"]) == 0 {
		return nil, fmt.Errorf("Файлы обязательны")
	}

	headers := c.Request.MultipartForm.File["files"]
	files := make([]service.BatchFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("Ошибка чтения файла %s", header.Filename)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("Ошибка чтения файла %s", header.Filename)
		}
		files = append(files, service.BatchFile{Name: header.Filename, Data: data})
	}
	return files, nil
}

// splitList разбирает список через запятую
func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return strings.Split(value, ",")
}
