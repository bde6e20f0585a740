package handler

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/campusdesk/campusdesk/internal/pkg/errcode"
	"github.com/campusdesk/campusdesk/internal/pkg/response"
	"github.com/campusdesk/campusdesk/internal/rag"
)

type AdminHandler struct {
	orch      *rag.Orchestrator
	uploadDir string
}

func NewAdminHandler(orch *rag.Orchestrator, uploadDir string) *AdminHandler {
	return &AdminHandler{orch: orch, uploadDir: uploadDir}
}

// Upload saves one document and folds it into the corpus. The saved
// file stays in the upload directory so the corpus can be rebuilt
// from disk later.
func (h *AdminHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	name := filepath.Base(file.Filename)
	if name == "" || name == "." || strings.ContainsAny(name, "/\\") {
		response.Error(c, errcode.ErrInvalidFile, "invalid file name")
		return
	}
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		handleError(c, err)
		return
	}
	dst := filepath.Join(h.uploadDir, name)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		response.Error(c, errcode.ErrUploadFailed, "failed to save file")
		return
	}
	chunks, err := h.orch.AddDocument(c.Request.Context(), dst)
	if err != nil {
		handleError(c, err)
		return
	}
	logutil.GetLogger(c.Request.Context()).Info("document ingested",
		zap.String("file", name),
		zap.Int("chunks", chunks),
	)
	response.Success(c, gin.H{
		"file":   name,
		"chunks": chunks,
	})
}

func (h *AdminHandler) DeleteSource(c *gin.Context) {
	source := c.Param("source")
	if source == "" {
		response.Error(c, errcode.ErrInvalid, "source is required")
		return
	}
	deleted, err := h.orch.DeleteSource(c.Request.Context(), source)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted_chunks": deleted})
}

func (h *AdminHandler) DeleteAll(c *gin.Context) {
	if err := h.orch.DeleteAll(c.Request.Context()); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

func (h *AdminHandler) Rebuild(c *gin.Context) {
	if err := h.orch.Rebuild(c.Request.Context()); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"rebuilt": true})
}

func (h *AdminHandler) Stats(c *gin.Context) {
	sources, total, err := h.orch.Stats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"sources":      sources,
		"total_chunks": total,
	})
}
