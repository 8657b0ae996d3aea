package httpapi

import (
	"errors"
	"net/http"

	"lotto/domain/entities"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// respondError maps the domain error taxonomy to an HTTP status
func respondError(c *gin.Context, err error) {
	var validation *entities.ValidationError
	var rejected *entities.RejectedPlay
	var conflict *entities.ConflictError
	var incomplete *entities.IncompleteResult

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"field":   validation.Field,
			"details": validation.Message,
		})
	case errors.As(err, &rejected):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Play rejected",
			"reason":  rejected.Reason,
			"details": rejected.Detail,
		})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Conflict",
			"kind":  conflict.Kind,
			"key":   conflict.Key,
		})
	case errors.As(err, &incomplete):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Incomplete result",
			"missing": incomplete.Missing,
		})
	case entities.IsRetryable(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporarily unavailable, retry later"})
	default:
		log.WithFields(log.Fields{
			"requestId": c.GetString(ctxRequestID),
			"error":     err,
		}).Error("Unhandled request error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request",
		"details": err.Error(),
	})
}
