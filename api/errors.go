package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/expertbooking/internal/domain"
	"github.com/Domenick1991/expertbooking/internal/repository"
	"github.com/Domenick1991/expertbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// writeError maps service errors to the {"error": ...} body used by every
// endpoint. Validation failures also carry per-field messages.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, booking.ErrInvalidEmail),
		errors.Is(err, booking.ErrInvalidStatus),
		errors.Is(err, domain.ErrUnknownStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, repository.ErrSlotNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrSlotTaken),
		errors.Is(err, booking.ErrSlotLocked),
		errors.Is(err, repository.ErrStatusChanged),
		errors.Is(err, domain.ErrTerminalStatus),
		errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
