package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"lead-scoring-service/internal/adapters/primary/http/dto"
	"lead-scoring-service/internal/core/domain"
)

func (h *Handler) Score(c *gin.Context) {
	var req dto.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.engine.Score(c.Request.Context(), req.Source, dto.ToLeadBatch(req.Leads))
	if err != nil {
		log.WithError(err).Error("batch scoring failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToScoreResponse(result))
}

func (h *Handler) RecordConversion(c *gin.Context) {
	var req dto.ConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.engine.RecordConversion(c.Request.Context(), req.LeadID, req.ModelVersion)
	if err != nil {
		// A conversion for a version the registry never saw is a
		// data-integrity warning, not a silent drop.
		if err == domain.ErrUnknownModel {
			log.WithFields(log.Fields{
				"lead_id":       req.LeadID,
				"model_version": req.ModelVersion,
			}).Warn("conversion attributed to unregistered model version")
		}
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToModelRecordResponse(rec))
}
