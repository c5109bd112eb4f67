package handlers

import (
	"errors"
	"net/http"

	"lead-scoring-service/internal/core/domain"

	"github.com/gin-gonic/gin"
)

func mapDomainError(c *gin.Context, err error) {
	switch {
	// Not found errors
	case errors.Is(err, domain.ErrUnknownModel),
		errors.Is(err, domain.ErrModelRecordNotFound),
		errors.Is(err, domain.ErrArtifactMissing):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	// Conflict errors
	case errors.Is(err, domain.ErrModelAlreadyRegistered):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	// Bad request / validation errors
	case errors.Is(err, domain.ErrInvalidModelVersion),
		errors.Is(err, domain.ErrInvalidLeadID),
		errors.Is(err, domain.ErrEmptyBatch),
		errors.Is(err, domain.ErrFeatureDimension):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	// Nothing to serve with: fatal for the request, not for the process
	case errors.Is(err, domain.ErrNoModelAvailable),
		errors.Is(err, domain.ErrModelLoadFailed),
		errors.Is(err, domain.ErrModelNotLoaded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
