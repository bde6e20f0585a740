package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campusdesk/campusdesk/internal/pkg/response"
	"github.com/campusdesk/campusdesk/internal/rag"
)

type HealthHandler struct {
	orch *rag.Orchestrator
}

func NewHealthHandler(orch *rag.Orchestrator) *HealthHandler {
	return &HealthHandler{orch: orch}
}

func (h *HealthHandler) Health(c *gin.Context) {
	_, total, err := h.orch.Stats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"status": "ok",
		"chunks": total,
	})
}
