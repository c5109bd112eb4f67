package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Snapshot())
}

func (h *Handler) GetStatusReport(c *gin.Context) {
	c.String(http.StatusOK, h.engine.StatusReport())
}

func (h *Handler) GetBenchmark(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Benchmark(c.Request.Context()))
}
