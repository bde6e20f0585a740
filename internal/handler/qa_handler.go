package handler

import (
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campusdesk/campusdesk/internal/model"
	"github.com/campusdesk/campusdesk/internal/pkg/errcode"
	"github.com/campusdesk/campusdesk/internal/pkg/response"
	"github.com/campusdesk/campusdesk/internal/rag"
)

type QAHandler struct {
	orch *rag.Orchestrator
}

func NewQAHandler(orch *rag.Orchestrator) *QAHandler {
	return &QAHandler{orch: orch}
}

type queryRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// Query runs the pipeline to completion and returns the aggregated
// answer.
func (h *QAHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		response.Error(c, errcode.ErrInvalid, "message is required")
		return
	}
	answer, sources, err := h.orch.Query(c.Request.Context(), req.Message, req.SessionID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"answer":  answer,
		"sources": sources,
	})
}

// Stream emits the event sequence as server-sent events, one event
// per pipeline emission, so the UI can show sources before the
// answer arrives.
func (h *QAHandler) Stream(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		response.Error(c, errcode.ErrInvalid, "message is required")
		return
	}
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	events := h.orch.QueryStream(c.Request.Context(), req.Message, req.SessionID)
	c.Stream(func(w io.Writer) bool {
		ev, ok := <-events
		if !ok {
			return false
		}
		c.SSEvent(string(ev.Type), ev)
		return ev.Type != model.EventAnswer && ev.Type != model.EventError
	})
}

// CreateSession mints a session id and registers it so history and
// profile facts accumulate under it.
func (h *QAHandler) CreateSession(c *gin.Context) {
	sessionID := uuid.NewString()
	if err := h.orch.CreateSession(c.Request.Context(), sessionID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"session_id": sessionID})
}

func (h *QAHandler) DeleteSession(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		response.Error(c, errcode.ErrInvalid, "session id is required")
		return
	}
	if err := h.orch.DeleteSession(c.Request.Context(), sessionID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": sessionID})
}
