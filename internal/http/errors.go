package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jobportal/internal/domain"
)

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondError traduce un error de dominio a la respuesta JSON. Los errores
// internos se registran y nunca se exponen al cliente.
func respondError(c *gin.Context, logger *zap.Logger, op string, err error) {
	status := statusForError(err)
	message := "internal server error"

	var domainErr *domain.Error
	if status != http.StatusInternalServerError && errors.As(err, &domainErr) {
		message = domainErr.Msg
	}
	if status == http.StatusInternalServerError {
		logger.Error(op+" failed", zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

func respondInvalidRequest(c *gin.Context, logger *zap.Logger, op string, err error) {
	logger.Warn("invalid "+op+" request", zap.Error(err))
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request"})
}
