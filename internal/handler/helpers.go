package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/campusdesk/campusdesk/internal/pkg/errcode"
	appErr "github.com/campusdesk/campusdesk/internal/pkg/errors"
	"github.com/campusdesk/campusdesk/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case appErr.IsIngestion(err):
		response.Error(c, errcode.ErrIngestFailed, err.Error())
	case appErr.IsProviderFailure(err):
		response.Error(c, errcode.ErrAIUnavailable, "ai provider unavailable")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
