package handler

import (
	"errors"
	"net/http"

	"posekit/internal/pose"
	"posekit/internal/repository"
	"posekit/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// httpStatus сопоставляет ошибку сервиса с кодом ответа
func httpStatus(err error) int {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, pose.ErrInvalidDimensions):
		return http.StatusBadRequest
	case errors.Is(err, pose.ErrDegenerateFrame), errors.Is(err, service.ErrNoImage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrDetectorUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrPromptUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError пишет ошибку в формате {"error": "..."}. Текст внутренних
// ошибок не раскрывается клиенту.
func respondError(c *gin.Context, logger *logrus.Logger, err error, fallback string) {
	status := httpStatus(err)
	if status == http.StatusInternalServerError {
		logger.Errorf("%s: %v", fallback, err)
		c.JSON(status, gin.H{"error": fallback})
		return
	}

	logger.Debugf("%s: %v", fallback, err)
	c.JSON(status, gin.H{"error": err.Error()})
}
