package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"lead-scoring-service/internal/adapters/primary/http/dto"
)

func (h *Handler) ListModels(c *gin.Context) {
	records := h.engine.ListModels()

	items := make([]dto.ModelRecordResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, dto.ToModelRecordResponse(rec))
	}

	c.JSON(http.StatusOK, dto.ListModelsResponse{Items: items, Total: len(items)})
}

func (h *Handler) GetModel(c *gin.Context) {
	rec, err := h.engine.GetModel(c.Param("version"))
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToModelRecordResponse(rec))
}

func (h *Handler) AddModel(c *gin.Context) {
	var req dto.AddModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.engine.AddModel(c.Request.Context(), req.ModelVersion)
	if err != nil {
		log.WithError(err).Error("add model failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToModelRecordResponse(rec))
}

func (h *Handler) GetRecentMonitoring(c *gin.Context) {
	version := c.Param("version")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	items, err := h.engine.RecentMonitoring(c.Request.Context(), version, limit)
	if err != nil {
		log.WithError(err).Error("recent monitoring lookup failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MonitoringResponse{ModelVersion: version, Items: items})
}
