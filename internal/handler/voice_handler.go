package handler

import (
	"encoding/base64"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campusdesk/campusdesk/internal/pkg/errcode"
	"github.com/campusdesk/campusdesk/internal/pkg/response"
	"github.com/campusdesk/campusdesk/internal/rag"
	"github.com/campusdesk/campusdesk/internal/speech"
)

type VoiceHandler struct {
	orch        *rag.Orchestrator
	synthesizer speech.Synthesizer
	transcriber speech.Transcriber
}

func NewVoiceHandler(orch *rag.Orchestrator, synthesizer speech.Synthesizer, transcriber speech.Transcriber) *VoiceHandler {
	return &VoiceHandler{orch: orch, synthesizer: synthesizer, transcriber: transcriber}
}

type ttsRequest struct {
	Text string `json:"text"`
}

func (h *VoiceHandler) Synthesize(c *gin.Context) {
	var req ttsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		response.Error(c, errcode.ErrInvalid, "text is required")
		return
	}
	audio, err := h.synthesizer.Synthesize(c.Request.Context(), req.Text)
	if err != nil {
		handleError(c, err)
		return
	}
	c.Data(200, "audio/mpeg", audio)
}

type voiceQueryRequest struct {
	Audio     string `json:"audio"` // base64 wav
	SessionID string `json:"session_id"`
}

// Query is the one-shot voice loop: transcribe, answer, speak. The
// transcript and answer text ride along so the UI can caption the
// exchange.
func (h *VoiceHandler) Query(c *gin.Context) {
	var req voiceQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	audio, err := base64.StdEncoding.DecodeString(req.Audio)
	if err != nil || len(audio) == 0 {
		response.Error(c, errcode.ErrInvalid, "audio must be base64 encoded")
		return
	}
	transcript, err := h.transcriber.Transcribe(c.Request.Context(), audio)
	if err != nil {
		handleError(c, err)
		return
	}
	if strings.TrimSpace(transcript) == "" {
		response.Error(c, errcode.ErrInvalid, "could not understand the audio")
		return
	}
	answer, sources, err := h.orch.Query(c.Request.Context(), transcript, req.SessionID)
	if err != nil {
		handleError(c, err)
		return
	}
	reply, err := h.synthesizer.Synthesize(c.Request.Context(), answer)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"transcript": transcript,
		"answer":     answer,
		"sources":    sources,
		"audio":      base64.StdEncoding.EncodeToString(reply),
	})
}
