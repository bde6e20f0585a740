package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusdesk/campusdesk/internal/middleware"
)

type RouterDeps struct {
	QA     *QAHandler
	Voice  *VoiceHandler
	Admin  *AdminHandler
	Health *HealthHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/health", deps.Health.Health)

	api.POST("/qa/query", deps.QA.Query)
	api.POST("/qa/stream", deps.QA.Stream)
	api.POST("/qa/sessions", deps.QA.CreateSession)
	api.DELETE("/qa/sessions/:id", deps.QA.DeleteSession)

	voiceGroup := api.Group("/voice")
	voiceGroup.Use(middleware.RateLimit(time.Second))
	voiceGroup.POST("/tts", deps.Voice.Synthesize)
	voiceGroup.POST("/query", deps.Voice.Query)

	api.POST("/admin/documents", deps.Admin.Upload)
	api.DELETE("/admin/documents/:source", deps.Admin.DeleteSource)
	api.DELETE("/admin/documents", deps.Admin.DeleteAll)
	api.POST("/admin/rebuild", deps.Admin.Rebuild)
	api.GET("/admin/stats", deps.Admin.Stats)
}
