package handlers

import (
	"lead-scoring-service/internal/core/services"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	engine *services.Engine
}

func New(engine *services.Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	// Scoring & feedback
	r.POST("/score", h.Score)
	r.POST("/conversions", h.RecordConversion)

	// Registry
	r.GET("/models", h.ListModels)
	r.GET("/models/:version", h.GetModel)
	r.POST("/models", h.AddModel)
	r.GET("/models/:version/monitoring", h.GetRecentMonitoring)

	// Operational views
	r.GET("/status", h.GetStatus)
	r.GET("/status/report", h.GetStatusReport)
	r.GET("/benchmark", h.GetBenchmark)
}
