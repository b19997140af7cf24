package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehail/internal/api/middleware"
	"ridehail/internal/services"
	"ridehail/pkg/logger"
)

// respondError maps service errors to HTTP responses. Anything unknown is a
// 500 and gets logged; its text never reaches the client.
func respondError(c *gin.Context, log logger.ILogger, err error) {
	var (
		validation *services.ValidationError
		conflict   *services.ConflictError
	)

	log = middleware.RequestLog(c, log)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"errors": validation.Messages})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error(), "status": conflict.Status})
	case errors.Is(err, services.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
	case errors.Is(err, services.ErrNotPermitted):
		c.JSON(http.StatusForbidden, gin.H{"error": "not permitted"})
	case errors.Is(err, services.ErrInvalidLogin):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrRideNotFound),
		errors.Is(err, services.ErrVehicleNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrDocumentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		log.Error("request failed",
			logger.String("method", c.Request.Method),
			logger.String("path", c.FullPath()),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// badRequest reports a body that could not be bound at all.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"errors": []string{err.Error()}})
}
