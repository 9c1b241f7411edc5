// Package files implements the case file upload and download endpoints. Content moves
// directly between the client and S3 over pre-signed URLs.
package files

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/digital-evidence-archive/dea-backend/internal/api/respond"
	"github.com/digital-evidence-archive/dea-backend/internal/audit"
	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
	"github.com/digital-evidence-archive/dea-backend/internal/middleware"
	"github.com/digital-evidence-archive/dea-backend/internal/services"
)

// FileService is what the handlers need from services.FileService
type FileService interface {
	InitiateUpload(ctx context.Context, caller *models.User, caseULID string, req services.UploadRequest) (*services.InitiatedUpload, error)
	CompleteUpload(ctx context.Context, caller *models.User, caseULID, fileULID, sha256Hash string) (*models.CaseFile, error)
	Info(ctx context.Context, caller *models.User, caseULID, fileULID string) (*models.CaseFile, error)
	DownloadURL(ctx context.Context, caller *models.User, caseULID, fileULID string) (*services.Download, error)
}

// Handlers serves the case file endpoints
type Handlers struct {
	files FileService
}

// NewHandlers creates a new Handlers instance
func NewHandlers(files FileService) *Handlers {
	return &Handlers{files: files}
}

// InitiateUploadHandler opens a multipart upload
// POST /cases/:caseId/files
func (h *Handlers) InitiateUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := respond.Caller(c)
		if !ok {
			return
		}
		var req services.UploadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}
		upload, err := h.files.InitiateUpload(c.Request.Context(), caller, c.Param("caseId"), req)
		if err != nil {
			respond.Error(c, err)
			return
		}
		middleware.AnnotateAudit(c, func(e *audit.Event) { e.FileID = upload.File.ULID })
		c.JSON(http.StatusOK, upload)
	}
}

type completeRequest struct {
	SHA256Hash string `json:"sha256Hash" binding:"required"`
}

// CompleteUploadHandler finishes a multipart upload
// PUT /cases/:caseId/files/:fileId/contents
func (h *Handlers) CompleteUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := respond.Caller(c)
		if !ok {
			return
		}
		var req completeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}
		f, err := h.files.CompleteUpload(c.Request.Context(), caller, c.Param("caseId"), c.Param("fileId"), req.SHA256Hash)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, f)
	}
}

// InfoHandler returns a file's metadata
// GET /cases/:caseId/files/:fileId/info
func (h *Handlers) InfoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := respond.Caller(c)
		if !ok {
			return
		}
		f, err := h.files.Info(c.Request.Context(), caller, c.Param("caseId"), c.Param("fileId"))
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, f)
	}
}

// DownloadHandler returns a pre-signed download URL
// GET /cases/:caseId/files/:fileId/contents
func (h *Handlers) DownloadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := respond.Caller(c)
		if !ok {
			return
		}
		dl, err := h.files.DownloadURL(c.Request.Context(), caller, c.Param("caseId"), c.Param("fileId"))
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, dl)
	}
}
